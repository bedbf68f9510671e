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

type assetFixture struct {
	properties *PropertyStore
	assets     *AssetStore
	remote     *testutil.FakeTransport[model.AssetInput, model.Asset]
}

func newAssetFixture(t *testing.T) *assetFixture {
	t.Helper()
	backing := kv.NewMemoryStore()
	properties, _ := newPropertyStore(t, backing)

	log, _ := testutil.NullLogger()
	fake := testutil.NewFakeTransport(model.NewAsset)
	assets := NewAssetStore(backing, fake, properties, log)
	require.NoError(t, assets.Initialize(context.Background()))
	return &assetFixture{properties: properties, assets: assets, remote: fake}
}

func (f *assetFixture) selectProperty(t *testing.T, name string) model.Property {
	t.Helper()
	p, ok := f.properties.Save(context.Background(), home(name))
	require.True(t, ok)
	_, err := f.properties.SetCurrentProperty(p.ID)
	require.NoError(t, err)
	return p
}

func fridge(room string) model.AssetInput {
	return model.AssetInput{
		Name:         "Fridge",
		Brand:        "LG",
		Model:        "GL-I292",
		SerialNumber: "SN-1",
		Category:     "fridge",
		Room:         room,
	}
}

func TestAssetStore_SaveRequiresCurrentProperty(t *testing.T) {
	f := newAssetFixture(t)

	_, ok := f.assets.Save(context.Background(), fridge("Kitchen"))

	assert.False(t, ok)
	assert.Empty(t, f.remote.Calls(), "nothing is sent without a current property")
	assert.Empty(t, f.assets.GetAll())
}

func TestAssetStore_SaveAssignsCurrentProperty(t *testing.T) {
	f := newAssetFixture(t)
	p := f.selectProperty(t, "Home")

	in := fridge("Kitchen")
	in.PropertyID = "forged"
	saved, ok := f.assets.Save(context.Background(), in)

	require.True(t, ok)
	assert.Equal(t, p.ID, saved.PropertyID)
	got, ok := f.assets.GetByID(saved.ID)
	require.True(t, ok)
	assert.Equal(t, saved, got)
}

func TestAssetStore_UpdateKeepsCurrentProperty(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()
	p := f.selectProperty(t, "Home")
	saved, _ := f.assets.Save(ctx, fridge("Kitchen"))

	updated, ok := f.assets.Update(ctx, saved.ID, fridge("Hall"))
	require.True(t, ok)
	assert.Equal(t, "Hall", updated.Room)
	assert.Equal(t, p.ID, updated.PropertyID)

	f.properties.ClearCurrentProperty()
	_, ok = f.assets.Update(ctx, saved.ID, fridge("Kitchen"))
	assert.False(t, ok)
}

func TestAssetStore_ScopedToCurrentProperty(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()

	first := f.selectProperty(t, "First")
	f.assets.Save(ctx, fridge("Kitchen"))
	f.assets.Save(ctx, fridge("Hall"))

	f.selectProperty(t, "Second")
	f.assets.Save(ctx, fridge("Kitchen"))

	assert.Len(t, f.assets.AssetsForCurrentProperty(), 1)
	assert.Len(t, f.assets.AssetsForProperty(first.ID), 2)
	assert.Len(t, f.assets.GetAll(), 3)

	f.properties.ClearCurrentProperty()
	assert.Empty(t, f.assets.AssetsForCurrentProperty())
	assert.Empty(t, f.assets.AssetsByRooms())
}

func TestAssetStore_AssetsByRooms(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()
	f.selectProperty(t, "Home")

	_, ok := f.assets.Save(ctx, fridge("Kitchen"))
	require.True(t, ok)
	_, ok = f.assets.Save(ctx, fridge("Kitchen"))
	require.True(t, ok)
	_, ok = f.assets.Save(ctx, fridge(""))
	require.True(t, ok)

	groups := f.assets.AssetsByRooms()

	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups["Kitchen"].Count)
	assert.Equal(t, "Kitchen", groups["Kitchen"].Label)
	assert.Equal(t, 1, groups[view.UnspecifiedRoom].Count)
}

func TestAssetStore_DeleteThenGetByID(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()
	f.selectProperty(t, "Home")
	saved, _ := f.assets.Save(ctx, fridge("Kitchen"))

	require.True(t, f.assets.Delete(ctx, saved.ID))
	_, ok := f.assets.GetByID(saved.ID)
	assert.False(t, ok)
}
