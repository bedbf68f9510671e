package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/model"
	"habitrack-backend/internal/testutil"
	"habitrack-backend/internal/view"
)

func newPropertyStore(t *testing.T, backing kv.Store) (*PropertyStore, *testutil.FakeTransport[model.PropertyInput, model.Property]) {
	t.Helper()
	log, _ := testutil.NullLogger()
	fake := testutil.NewFakeTransport(model.NewProperty)
	s := NewPropertyStore(backing, fake, log)
	require.NoError(t, s.Initialize(context.Background()))
	return s, fake
}

func TestPropertyStore_CurrentProperty(t *testing.T) {
	s, _ := newPropertyStore(t, kv.NewMemoryStore())
	ctx := context.Background()

	_, ok := s.CurrentProperty()
	assert.False(t, ok)

	_, err := s.SetCurrentProperty("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	saved, _ := s.Save(ctx, home("Home"))
	current, err := s.SetCurrentProperty(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, current)

	got, ok := s.CurrentProperty()
	require.True(t, ok)
	assert.Equal(t, saved.ID, got.ID)

	s.ClearCurrentProperty()
	_, ok = s.CurrentProperty()
	assert.False(t, ok)
}

func TestPropertyStore_UpdateRefreshesCurrent(t *testing.T) {
	s, _ := newPropertyStore(t, kv.NewMemoryStore())
	ctx := context.Background()

	saved, _ := s.Save(ctx, home("Home"))
	other, _ := s.Save(ctx, home("Other"))
	_, err := s.SetCurrentProperty(saved.ID)
	require.NoError(t, err)

	_, ok := s.Update(ctx, other.ID, home("Other 2"))
	require.True(t, ok)
	current, _ := s.CurrentProperty()
	assert.Equal(t, "Home", current.Name)

	_, ok = s.Update(ctx, saved.ID, home("Home 2"))
	require.True(t, ok)
	current, _ = s.CurrentProperty()
	assert.Equal(t, "Home 2", current.Name)
}

func TestPropertyStore_DeleteClearsCurrent(t *testing.T) {
	s, fake := newPropertyStore(t, kv.NewMemoryStore())
	ctx := context.Background()

	saved, _ := s.Save(ctx, home("Home"))
	_, err := s.SetCurrentProperty(saved.ID)
	require.NoError(t, err)

	fake.DeleteErr = testutil.ErrRemoteDown
	require.False(t, s.Delete(ctx, saved.ID))
	_, ok := s.CurrentProperty()
	assert.True(t, ok, "failed delete keeps the selection")

	fake.DeleteErr = nil
	require.True(t, s.Delete(ctx, saved.ID))
	_, ok = s.CurrentProperty()
	assert.False(t, ok)
}

func TestPropertyStore_CurrentPropertyIsNotPersisted(t *testing.T) {
	backing := kv.NewMemoryStore()
	s, _ := newPropertyStore(t, backing)
	ctx := context.Background()

	saved, _ := s.Save(ctx, home("Home"))
	_, err := s.SetCurrentProperty(saved.ID)
	require.NoError(t, err)

	assert.NotContains(t, rawBlob(t, backing, KeyProperties), "currentProperty")

	restarted, _ := newPropertyStore(t, backing)
	_, ok := restarted.GetByID(saved.ID)
	assert.True(t, ok)
	_, ok = restarted.CurrentProperty()
	assert.False(t, ok)
}

func TestPropertyStore_GetAllRooms(t *testing.T) {
	s, _ := newPropertyStore(t, kv.NewMemoryStore())
	ctx := context.Background()

	withRooms, _ := s.Save(ctx, home("Home"))
	noRooms := home("Bare")
	noRooms.Rooms = nil
	bare, _ := s.Save(ctx, noRooms)

	assert.Equal(t, []model.Option{
		{Label: "Kitchen", Value: "Kitchen"},
		{Label: "Hall", Value: "Hall"},
	}, s.GetAllRooms(withRooms.ID))
	assert.Empty(t, s.GetAllRooms(bare.ID))
	assert.Empty(t, s.GetAllRooms("missing"))
	assert.Empty(t, s.GetAllRooms(""))
}

func TestPropertyStore_PropertiesByCountry(t *testing.T) {
	s, _ := newPropertyStore(t, kv.NewMemoryStore())
	ctx := context.Background()

	s.Save(ctx, home("A"))
	s.Save(ctx, home("B"))
	spain := home("C")
	spain.Country = "Spain"
	s.Save(ctx, spain)
	unknown := home("D")
	unknown.Country = ""
	s.Save(ctx, unknown)

	groups := s.PropertiesByCountry()
	assert.Equal(t, 2, groups["India"].Count)
	assert.Equal(t, 1, groups["Spain"].Count)
	assert.Equal(t, 1, groups[view.UnspecifiedCountry].Count)
	assert.Equal(t, []string{"India", "Spain", view.UnspecifiedCountry}, groups.Labels(view.UnspecifiedCountry))
}

func TestPropertyStore_ResetClearsCurrent(t *testing.T) {
	s, _ := newPropertyStore(t, kv.NewMemoryStore())
	ctx := context.Background()
	saved, _ := s.Save(ctx, home("Home"))
	_, err := s.SetCurrentProperty(saved.ID)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	_, ok := s.CurrentProperty()
	assert.False(t, ok)
	assert.Empty(t, s.GetAll())
}
