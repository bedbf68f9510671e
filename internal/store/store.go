// Package store owns the in-memory state of every HabiTrack entity. Each
// store mediates mutations through a remote transport and snapshots its
// state into a key-value backing store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"habitrack-backend/internal/kv"
)

var (
	ErrNoCurrentProperty = errors.New("store: no current property selected")
	ErrProfileExists     = errors.New("store: user profile already exists")
	ErrNoProfile         = errors.New("store: no user profile")
	ErrNoPhoneNumber     = errors.New("store: no phone number set for OTP")
	ErrInvalidPhone      = errors.New("store: invalid phone number")
	ErrInvalidCode       = errors.New("store: OTP code must be six digits")
	ErrCooldown          = errors.New("store: OTP cooldown still running")
	ErrNotFound          = errors.New("store: no entity with that id")
	ErrBusy              = errors.New("store: another change to this entity is in flight")
	ErrMissingID         = errors.New("store: remote response has no id")
)

// Fixed keys under which each store persists its blob.
const (
	KeyProperties  = "properties"
	KeyAssets      = "assets"
	KeyUserProfile = "user-profile"
	KeyAuth        = "auth-store"
)

const stateVersion = 0

// envelope is the on-disk shape of every store blob.
type envelope[S any] struct {
	State   S   `json:"state"`
	Version int `json:"version"`
}

// readState loads the blob at key. ok is false when nothing is stored.
func readState[S any](ctx context.Context, backing kv.Store, key string) (state S, ok bool, err error) {
	raw, found, err := backing.Get(ctx, key)
	if err != nil {
		return state, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found || raw == "" {
		return state, false, nil
	}

	var env envelope[S]
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return state, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return env.State, true, nil
}

func writeState[S any](ctx context.Context, backing kv.Store, key string, state S) error {
	raw, err := json.Marshal(envelope[S]{State: state, Version: stateVersion})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := backing.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
