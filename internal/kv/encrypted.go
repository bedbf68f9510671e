package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// EncryptedStore age-encrypts every value before handing it to the wrapped
// Store. Values are ASCII-armored so text-only engines can hold them.
type EncryptedStore struct {
	inner     Store
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

var _ Store = (*EncryptedStore)(nil)

// NewEncryptedStore wraps inner with encryption for identity.
func NewEncryptedStore(inner Store, identity *age.X25519Identity) *EncryptedStore {
	return &EncryptedStore{
		inner:     inner,
		identity:  identity,
		recipient: identity.Recipient(),
	}
}

// Get implements Store.
func (s *EncryptedStore) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	r, err := age.Decrypt(armor.NewReader(strings.NewReader(sealed)), s.identity)
	if err != nil {
		return "", false, fmt.Errorf("decrypting %s: %w", key, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("reading decrypted %s: %w", key, err)
	}
	return string(plain), true, nil
}

// Set implements Store.
func (s *EncryptedStore) Set(ctx context.Context, key, value string) error {
	var buf bytes.Buffer
	armored := armor.NewWriter(&buf)
	w, err := age.Encrypt(armored, s.recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, value); err != nil {
		return fmt.Errorf("encrypting %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return fmt.Errorf("finalizing armor: %w", err)
	}
	return s.inner.Set(ctx, key, buf.String())
}

// Delete implements Store.
func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// LoadOrCreateIdentity reads an X25519 identity from path, generating and
// writing a new one (mode 0600) when the file does not exist.
func LoadOrCreateIdentity(path string) (*age.X25519Identity, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("parsing identity %s: %w", path, err)
		}
		return identity, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading identity %s: %w", path, err)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(identity.String()+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("writing identity: %w", err)
	}
	return identity, nil
}
