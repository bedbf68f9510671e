// Package remote holds the backend calls the stores depend on. Stores only
// see the Transport interface, so tests swap in deterministic fakes.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRejected marks a call the backend refused.
var ErrRejected = errors.New("remote: request rejected")

// Transport creates and updates entities of type Out from inputs of type In.
type Transport[In, Out any] interface {
	Create(ctx context.Context, in In) (Out, error)
	Update(ctx context.Context, id string, in In) (Out, error)
}

// Deleter is implemented by transports that can confirm deletes.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrRejected }

// Clock abstracts time retrieval so stores are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs behind an optional prefix.
type UUIDGenerator struct {
	Prefix string
}

func (g UUIDGenerator) New() string { return g.Prefix + uuid.New().String() }

// Timestamp formats t the way the backend does: RFC 3339 in UTC with millis.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
