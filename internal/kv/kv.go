// Package kv is the durability layer beneath the entity stores: one
// serialized blob per store, addressed by a fixed string key.
package kv

import "context"

// Store is an embedded key-value string store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Namespaces used by the application stores.
const (
	NamespaceProperty = "property-storage"
	NamespaceAsset    = "asset-storage"
	NamespaceUser     = "user-storage"
	NamespaceAuth     = "auth-storage"
)
