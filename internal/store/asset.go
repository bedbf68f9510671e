package store

import (
	"context"

	"github.com/sirupsen/logrus"

	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/model"
	"habitrack-backend/internal/remote"
	"habitrack-backend/internal/view"
)

// CurrentPropertySource tells the asset store which property new assets
// belong to.
type CurrentPropertySource interface {
	CurrentProperty() (model.Property, bool)
}

// AssetStore holds assets for every property. Writes and the scoped reads
// act on the current property only.
type AssetStore struct {
	*EntityStore[model.AssetInput, model.Asset]
	properties CurrentPropertySource
	log        logrus.FieldLogger
}

// NewAssetStore creates an AssetStore persisting under KeyAssets.
func NewAssetStore(backing kv.Store, transport remote.Transport[model.AssetInput, model.Asset], properties CurrentPropertySource, log logrus.FieldLogger) *AssetStore {
	return &AssetStore{
		EntityStore: NewEntityStore(KeyAssets, backing, transport, log),
		properties:  properties,
		log:         log.WithField("store", KeyAssets),
	}
}

// Save creates an asset in the current property. Without a current
// property nothing is sent and false is returned.
func (s *AssetStore) Save(ctx context.Context, in model.AssetInput) (model.Asset, bool) {
	propertyID, ok := s.currentPropertyID("save")
	if !ok {
		return model.Asset{}, false
	}
	in.PropertyID = propertyID
	return s.EntityStore.Save(ctx, in)
}

// Update rewrites an asset, keeping it in the current property.
func (s *AssetStore) Update(ctx context.Context, id string, in model.AssetInput) (model.Asset, bool) {
	propertyID, ok := s.currentPropertyID("update")
	if !ok {
		return model.Asset{}, false
	}
	in.PropertyID = propertyID
	return s.EntityStore.Update(ctx, id, in)
}

// AssetsForCurrentProperty lists assets of the current property. With no
// current property the list is empty.
func (s *AssetStore) AssetsForCurrentProperty() []model.Asset {
	p, ok := s.properties.CurrentProperty()
	if !ok {
		return []model.Asset{}
	}
	return s.AssetsForProperty(p.ID)
}

// AssetsForProperty lists the assets belonging to propertyID.
func (s *AssetStore) AssetsForProperty(propertyID string) []model.Asset {
	assets := s.Filter(func(a model.Asset) bool { return a.PropertyID == propertyID })
	if assets == nil {
		return []model.Asset{}
	}
	return assets
}

// AssetsByRooms groups the current property's assets by room.
func (s *AssetStore) AssetsByRooms() view.Groups[model.Asset] {
	return view.GroupBy(s.AssetsForCurrentProperty(), func(a model.Asset) string { return a.Room }, view.UnspecifiedRoom)
}

func (s *AssetStore) currentPropertyID(op string) (string, bool) {
	p, ok := s.properties.CurrentProperty()
	if !ok || p.ID == "" {
		s.log.WithField("op", op).WithError(ErrNoCurrentProperty).Error("Refusing asset change")
		return "", false
	}
	return p.ID, true
}
