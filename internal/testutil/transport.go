package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"habitrack-backend/internal/model"
)

// ErrRemoteDown is the error FakeTransport returns when told to fail.
var ErrRemoteDown = errors.New("fake remote: unavailable")

// Call records one FakeTransport invocation.
type Call struct {
	Op string
	ID string
}

// FakeTransport is a synchronous, scriptable remote. It assigns sequential
// ids and stub-clock timestamps and records every call.
type FakeTransport[In, Out any] struct {
	mu        sync.Mutex
	Clock     *StubClock
	IDs       *StubIDGenerator
	Build     func(In, model.Record) Out
	CreateErr error
	UpdateErr error
	DeleteErr error
	// OnCall, when set, runs before each call returns; tests use it to
	// block a call in flight.
	OnCall func(op, id string)
	calls  []Call
}

// NewFakeTransport returns a fake that builds outputs with build.
func NewFakeTransport[In, Out any](build func(In, model.Record) Out) *FakeTransport[In, Out] {
	return &FakeTransport[In, Out]{
		Clock: FixedClock(),
		IDs:   NewStubIDGenerator(),
		Build: build,
	}
}

func (f *FakeTransport[In, Out]) record(op, id string) (func(string, string), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, ID: id})
	switch op {
	case "create":
		return f.OnCall, f.CreateErr
	case "update":
		return f.OnCall, f.UpdateErr
	default:
		return f.OnCall, f.DeleteErr
	}
}

// Create implements remote.Transport.
func (f *FakeTransport[In, Out]) Create(ctx context.Context, in In) (Out, error) {
	var zero Out
	hook, err := f.record("create", "")
	if hook != nil {
		hook("create", "")
	}
	if err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	now := f.Clock.Now().UTC().Format(time.RFC3339Nano)
	return f.Build(in, model.Record{ID: f.IDs.New(), CreatedAt: now, UpdatedAt: now}), nil
}

// Update implements remote.Transport.
func (f *FakeTransport[In, Out]) Update(ctx context.Context, id string, in In) (Out, error) {
	var zero Out
	hook, err := f.record("update", id)
	if hook != nil {
		hook("update", id)
	}
	if err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f.Clock.Advance(time.Millisecond)
	return f.Build(in, model.Record{
		ID:        id,
		CreatedAt: "2023-01-01T00:00:00Z",
		UpdatedAt: f.Clock.Now().UTC().Format(time.RFC3339Nano),
	}), nil
}

// Delete implements remote.Deleter.
func (f *FakeTransport[In, Out]) Delete(ctx context.Context, id string) error {
	hook, err := f.record("delete", id)
	if hook != nil {
		hook("delete", id)
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// Calls returns a copy of the recorded calls.
func (f *FakeTransport[In, Out]) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Fail makes every subsequent call return err (nil restores success).
func (f *FakeTransport[In, Out]) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateErr, f.UpdateErr, f.DeleteErr = err, err, err
}
