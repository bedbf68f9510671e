package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/model"
	"habitrack-backend/internal/testutil"
)

type propertyFixture struct {
	backing *kv.MemoryStore
	remote  *testutil.FakeTransport[model.PropertyInput, model.Property]
	store   *EntityStore[model.PropertyInput, model.Property]
	logs    *test.Hook
}

func newPropertyFixture(t *testing.T) *propertyFixture {
	t.Helper()
	log, hook := testutil.NullLogger()
	backing := kv.NewMemoryStore()
	fake := testutil.NewFakeTransport(model.NewProperty)
	s := NewEntityStore[model.PropertyInput, model.Property](KeyProperties, backing, fake, log)
	require.NoError(t, s.Initialize(context.Background()))
	return &propertyFixture{backing: backing, remote: fake, store: s, logs: hook}
}

func home(name string) model.PropertyInput {
	return model.PropertyInput{
		Name:         name,
		AddressLine1: "1 Main St",
		City:         "Pune",
		State:        "MH",
		PostalCode:   "411001",
		Country:      "India",
		Rooms:        []string{"Kitchen", "Hall"},
	}
}

// assertConsistent checks that the index holds exactly the listed ids and
// that each indexed value equals its list entry.
func assertConsistent[In any, T Entity](t *testing.T, s *EntityStore[In, T]) {
	t.Helper()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var listIDs, indexIDs []string
	for _, item := range s.items {
		listIDs = append(listIDs, item.EntityID())
		assert.Equal(t, item, s.index[item.EntityID()])
	}
	for id := range s.index {
		indexIDs = append(indexIDs, id)
	}
	sort.Strings(listIDs)
	sort.Strings(indexIDs)
	assert.Equal(t, listIDs, indexIDs)
}

func rawBlob(t *testing.T, backing kv.Store, key string) string {
	t.Helper()
	raw, ok, err := backing.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	return raw
}

func TestEntityStore_SaveThenGetByID(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	saved, ok := f.store.Save(ctx, home("Home"))
	require.True(t, ok)
	assert.Equal(t, "id-1", saved.ID)
	assert.Equal(t, "2024-01-15T10:30:00Z", saved.CreatedAt)
	assert.Equal(t, saved.CreatedAt, saved.UpdatedAt)

	got, ok := f.store.GetByID(saved.ID)
	require.True(t, ok)
	assert.Equal(t, f.store.GetAll()[0], got)
	assert.Equal(t, "Home", got.Name)
	assertConsistent(t, f.store)
}

func TestEntityStore_ConsistentAfterMixedOperations(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	a, _ := f.store.Save(ctx, home("A"))
	b, _ := f.store.Save(ctx, home("B"))
	c, _ := f.store.Save(ctx, home("C"))
	assertConsistent(t, f.store)

	updated, ok := f.store.Update(ctx, b.ID, home("B2"))
	require.True(t, ok)
	assert.Equal(t, "B2", updated.Name)
	assert.Equal(t, "2023-01-01T00:00:00Z", updated.CreatedAt)
	assertConsistent(t, f.store)

	require.True(t, f.store.Delete(ctx, a.ID))
	assertConsistent(t, f.store)

	all := f.store.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "update keeps list position")
	assert.Equal(t, c.ID, all[1].ID)
	for _, p := range all {
		got, ok := f.store.GetByID(p.ID)
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
}

func TestEntityStore_DeleteThenGetByID(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	saved, _ := f.store.Save(ctx, home("Home"))
	require.True(t, f.store.Delete(ctx, saved.ID))

	_, ok := f.store.GetByID(saved.ID)
	assert.False(t, ok)
	assert.Empty(t, f.store.GetAll())
	assert.Equal(t, testutil.Call{Op: "delete", ID: saved.ID}, f.remote.Calls()[1])
}

func TestEntityStore_UpdateFailureLeavesStateUntouched(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	saved, _ := f.store.Save(ctx, home("Home"))
	beforeList := f.store.GetAll()
	beforeBlob := rawBlob(t, f.backing, KeyProperties)

	f.remote.Fail(testutil.ErrRemoteDown)
	_, ok := f.store.Update(ctx, saved.ID, home("Renamed"))

	assert.False(t, ok)
	assert.Equal(t, beforeList, f.store.GetAll())
	got, _ := f.store.GetByID(saved.ID)
	assert.Equal(t, "Home", got.Name)
	assert.Equal(t, beforeBlob, rawBlob(t, f.backing, KeyProperties))
	assertConsistent(t, f.store)

	require.NotNil(t, f.logs.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, f.logs.LastEntry().Level)
	assert.Equal(t, "update", f.logs.LastEntry().Data["op"])
}

func TestEntityStore_SaveFailure(t *testing.T) {
	f := newPropertyFixture(t)
	f.remote.Fail(testutil.ErrRemoteDown)

	_, ok := f.store.Save(context.Background(), home("Home"))

	assert.False(t, ok)
	assert.Empty(t, f.store.GetAll())
	_, stored, err := f.backing.Get(context.Background(), KeyProperties)
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestEntityStore_RemoteResponseWithoutID(t *testing.T) {
	log, _ := testutil.NullLogger()
	fake := testutil.NewFakeTransport(func(in model.PropertyInput, rec model.Record) model.Property {
		rec.ID = ""
		return model.NewProperty(in, rec)
	})
	s := NewEntityStore[model.PropertyInput, model.Property](KeyProperties, kv.NewMemoryStore(), fake, log)

	_, ok := s.Save(context.Background(), home("Home"))
	assert.False(t, ok)
	assert.Empty(t, s.GetAll())
}

func TestEntityStore_DeleteFailureKeepsEntity(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	saved, _ := f.store.Save(ctx, home("Home"))
	f.remote.DeleteErr = testutil.ErrRemoteDown

	assert.False(t, f.store.Delete(ctx, saved.ID))
	_, ok := f.store.GetByID(saved.ID)
	assert.True(t, ok)
}

func TestEntityStore_FailFastWithoutRemoteCall(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name string
		run  func() bool
	}{
		{name: "update empty id", run: func() bool { _, ok := f.store.Update(ctx, "", home("X")); return ok }},
		{name: "delete empty id", run: func() bool { return f.store.Delete(ctx, "") }},
		{name: "update unknown id", run: func() bool { _, ok := f.store.Update(ctx, "missing", home("X")); return ok }},
		{name: "delete unknown id", run: func() bool { return f.store.Delete(ctx, "missing") }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, tc.run())
		})
	}
	assert.Empty(t, f.remote.Calls())
}

func TestEntityStore_GetByIDMissing(t *testing.T) {
	f := newPropertyFixture(t)

	_, ok := f.store.GetByID("")
	assert.False(t, ok)
	_, ok = f.store.GetByID("nope")
	assert.False(t, ok)
}

func TestEntityStore_CancelledContextAppliesNothing(t *testing.T) {
	f := newPropertyFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := f.store.Save(ctx, home("Home"))
	assert.False(t, ok)
	assert.Empty(t, f.store.GetAll())
}

func TestEntityStore_OverlappingUpdateRejected(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	saved, _ := f.store.Save(ctx, home("Home"))

	started := make(chan struct{})
	release := make(chan struct{})
	f.remote.OnCall = func(op, _ string) {
		if op == "update" {
			close(started)
			<-release
		}
	}

	done := make(chan bool)
	go func() {
		_, ok := f.store.Update(ctx, saved.ID, home("First"))
		done <- ok
	}()
	<-started

	_, ok := f.store.Update(ctx, saved.ID, home("Second"))
	assert.False(t, ok, "second update on the same id must be refused")
	assert.False(t, f.store.Delete(ctx, saved.ID), "delete while updating must be refused")

	close(release)
	assert.True(t, <-done)

	got, _ := f.store.GetByID(saved.ID)
	assert.Equal(t, "First", got.Name)
}

func TestEntityStore_PersistsEnvelope(t *testing.T) {
	f := newPropertyFixture(t)
	saved, _ := f.store.Save(context.Background(), home("Home"))

	var env struct {
		State   map[string]json.RawMessage `json:"state"`
		Version int                        `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(rawBlob(t, f.backing, KeyProperties)), &env))

	assert.Equal(t, 0, env.Version)
	assert.Len(t, env.State, 1, "only the list is persisted")
	var list []model.Property
	require.NoError(t, json.Unmarshal(env.State[KeyProperties], &list))
	assert.Equal(t, []model.Property{saved}, list)
}

func TestEntityStore_LoadIsIdempotent(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	f.store.Save(ctx, home("A"))
	f.store.Save(ctx, home("B"))

	log, _ := testutil.NullLogger()
	reloaded := NewEntityStore[model.PropertyInput, model.Property](KeyProperties, f.backing, f.remote, log)

	assert.False(t, reloaded.IsHydrated())
	require.NoError(t, reloaded.Load(ctx))
	assert.True(t, reloaded.IsHydrated())
	firstList := reloaded.GetAll()
	firstIndex := reloaded.index

	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, firstList, reloaded.GetAll())
	assert.Equal(t, firstIndex, reloaded.index)
	assert.Equal(t, f.store.GetAll(), reloaded.GetAll())
	assertConsistent(t, reloaded)
}

func TestEntityStore_LoadWithNothingPersistedHydrates(t *testing.T) {
	log, _ := testutil.NullLogger()
	s := NewEntityStore[model.PropertyInput, model.Property](KeyProperties, kv.NewMemoryStore(), testutil.NewFakeTransport(model.NewProperty), log)

	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.IsHydrated())
	assert.Empty(t, s.GetAll())
}

func TestEntityStore_InitializeHydratesOnce(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemoryStore()
	require.NoError(t, backing.Set(ctx, KeyProperties,
		`{"state":{"properties":[{"id":"p1","name":"One"}]},"version":0}`))

	log, _ := testutil.NullLogger()
	s := NewEntityStore[model.PropertyInput, model.Property](KeyProperties, backing, testutil.NewFakeTransport(model.NewProperty), log)
	assert.False(t, s.IsHydrated())

	require.NoError(t, s.Initialize(ctx))
	assert.True(t, s.IsHydrated())
	require.Len(t, s.GetAll(), 1)

	require.NoError(t, backing.Set(ctx, KeyProperties,
		`{"state":{"properties":[{"id":"p1"},{"id":"p2"}]},"version":0}`))
	require.NoError(t, s.Initialize(ctx))
	assert.Len(t, s.GetAll(), 1, "second Initialize must not re-read storage")

	got, ok := s.GetByID("p1")
	require.True(t, ok)
	assert.Equal(t, "One", got.Name)
}

func TestEntityStore_HydrationDropsUnindexableEntries(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemoryStore()
	require.NoError(t, backing.Set(ctx, KeyProperties,
		`{"state":{"properties":[{"id":"a","name":"A"},{"name":"no id"},{"id":"a","name":"dup"}]},"version":0}`))

	log, hook := testutil.NullLogger()
	s := NewEntityStore[model.PropertyInput, model.Property](KeyProperties, backing, testutil.NewFakeTransport(model.NewProperty), log)
	require.NoError(t, s.Initialize(ctx))

	all := s.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "A", all[0].Name)
	assertConsistent(t, s)
	assert.Len(t, hook.AllEntries(), 2)
}

func TestEntityStore_InitializeCorruptBlob(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemoryStore()
	require.NoError(t, backing.Set(ctx, KeyProperties, `{not json`))

	log, _ := testutil.NullLogger()
	s := NewEntityStore[model.PropertyInput, model.Property](KeyProperties, backing, testutil.NewFakeTransport(model.NewProperty), log)

	assert.Error(t, s.Initialize(ctx))
	assert.False(t, s.IsHydrated())
}

type failingKV struct {
	kv.Store
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestEntityStore_PersistFailureKeepsMemoryState(t *testing.T) {
	log, hook := testutil.NullLogger()
	s := NewEntityStore[model.PropertyInput, model.Property](KeyProperties, failingKV{kv.NewMemoryStore()}, testutil.NewFakeTransport(model.NewProperty), log)

	saved, ok := s.Save(context.Background(), home("Home"))
	require.True(t, ok)
	_, found := s.GetByID(saved.ID)
	assert.True(t, found)
	assert.Equal(t, "Failed to persist state", hook.LastEntry().Message)
}

func TestEntityStore_Reset(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	saved, _ := f.store.Save(ctx, home("Home"))

	require.NoError(t, f.store.Reset(ctx))

	assert.Empty(t, f.store.GetAll())
	_, ok := f.store.GetByID(saved.ID)
	assert.False(t, ok)
	_, stored, err := f.backing.Get(ctx, KeyProperties)
	require.NoError(t, err)
	assert.False(t, stored)
}
