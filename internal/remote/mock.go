package remote

import (
	"context"
	"time"

	"habitrack-backend/internal/model"
)

// DefaultLatency is the simulated round trip of the mocked backend.
const DefaultLatency = 800 * time.Millisecond

// HistoricalCreatedAt is the createdAt the mocked backend reports on updates.
const HistoricalCreatedAt = "2023-01-01T00:00:00Z"

// Mock simulates the backend: it waits Latency, then merges the input with
// a generated id and timestamps via Build.
type Mock[In, Out any] struct {
	Latency time.Duration
	Clock   Clock
	IDs     IDGenerator
	Build   func(in In, rec model.Record) Out
	// FailWith, when set, is returned by every call after the latency.
	FailWith error
}

var _ Deleter = (*Mock[model.PropertyInput, model.Property])(nil)

// NewMock creates a Mock with real time and UUID ids.
func NewMock[In, Out any](latency time.Duration, idPrefix string, build func(In, model.Record) Out) *Mock[In, Out] {
	return &Mock[In, Out]{
		Latency: latency,
		Clock:   RealClock{},
		IDs:     UUIDGenerator{Prefix: idPrefix},
		Build:   build,
	}
}

// Create implements Transport.
func (m *Mock[In, Out]) Create(ctx context.Context, in In) (Out, error) {
	var zero Out
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	now := Timestamp(m.Clock.Now())
	return m.Build(in, model.Record{ID: m.IDs.New(), CreatedAt: now, UpdatedAt: now}), nil
}

// Update implements Transport.
func (m *Mock[In, Out]) Update(ctx context.Context, id string, in In) (Out, error) {
	var zero Out
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	return m.Build(in, model.Record{
		ID:        id,
		CreatedAt: HistoricalCreatedAt,
		UpdatedAt: Timestamp(m.Clock.Now()),
	}), nil
}

// Delete implements Deleter.
func (m *Mock[In, Out]) Delete(ctx context.Context, _ string) error {
	return m.wait(ctx)
}

func (m *Mock[In, Out]) wait(ctx context.Context) error {
	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	return m.FailWith
}

// NewPropertyMock returns the mocked property backend.
func NewPropertyMock(latency time.Duration) *Mock[model.PropertyInput, model.Property] {
	return NewMock(latency, "mock-", model.NewProperty)
}

// NewAssetMock returns the mocked asset backend.
func NewAssetMock(latency time.Duration) *Mock[model.AssetInput, model.Asset] {
	return NewMock(latency, "mock-", model.NewAsset)
}

// UserMock is the mocked user backend. New profiles always start unverified.
type UserMock struct {
	*Mock[model.UserInput, model.UserProfile]
}

// NewUserMock returns the mocked user backend.
func NewUserMock(latency time.Duration) UserMock {
	return UserMock{NewMock(latency, "user-", model.NewUserProfile)}
}

// Create implements Transport.
func (m UserMock) Create(ctx context.Context, in model.UserInput) (model.UserProfile, error) {
	in.Verified = false
	return m.Mock.Create(ctx, in)
}
