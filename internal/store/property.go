package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/model"
	"habitrack-backend/internal/remote"
	"habitrack-backend/internal/view"
)

// PropertyStore holds the user's properties and the property the session
// is currently working in. The current property is never persisted.
type PropertyStore struct {
	*EntityStore[model.PropertyInput, model.Property]

	currentMu sync.RWMutex
	current   *model.Property
}

// NewPropertyStore creates a PropertyStore persisting under KeyProperties.
func NewPropertyStore(backing kv.Store, transport remote.Transport[model.PropertyInput, model.Property], log logrus.FieldLogger) *PropertyStore {
	return &PropertyStore{
		EntityStore: NewEntityStore(KeyProperties, backing, transport, log),
	}
}

// Update refreshes the current property when it is the one updated.
func (s *PropertyStore) Update(ctx context.Context, id string, in model.PropertyInput) (model.Property, bool) {
	updated, ok := s.EntityStore.Update(ctx, id, in)
	if ok {
		s.currentMu.Lock()
		if s.current != nil && s.current.ID == id {
			s.current = &updated
		}
		s.currentMu.Unlock()
	}
	return updated, ok
}

// Delete clears the current property when it is the one deleted.
func (s *PropertyStore) Delete(ctx context.Context, id string) bool {
	if !s.EntityStore.Delete(ctx, id) {
		return false
	}
	s.currentMu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.currentMu.Unlock()
	return true
}

// Reset also clears the current property.
func (s *PropertyStore) Reset(ctx context.Context) error {
	s.ClearCurrentProperty()
	return s.EntityStore.Reset(ctx)
}

// SetCurrentProperty selects the property with id for this session.
func (s *PropertyStore) SetCurrentProperty(id string) (model.Property, error) {
	p, ok := s.GetByID(id)
	if !ok {
		return model.Property{}, ErrNotFound
	}
	s.currentMu.Lock()
	s.current = &p
	s.currentMu.Unlock()
	return p, nil
}

func (s *PropertyStore) ClearCurrentProperty() {
	s.currentMu.Lock()
	s.current = nil
	s.currentMu.Unlock()
}

// CurrentProperty returns the selected property, if any.
func (s *PropertyStore) CurrentProperty() (model.Property, bool) {
	s.currentMu.RLock()
	defer s.currentMu.RUnlock()
	if s.current == nil {
		return model.Property{}, false
	}
	return *s.current, true
}

// GetAllRooms returns the rooms of property id as picker options. Unknown
// ids and properties without rooms yield an empty list.
func (s *PropertyStore) GetAllRooms(id string) []model.Option {
	p, ok := s.GetByID(id)
	if !ok {
		return []model.Option{}
	}
	rooms := make([]model.Option, 0, len(p.Rooms))
	for _, room := range p.Rooms {
		rooms = append(rooms, model.Option{Label: room, Value: room})
	}
	return rooms
}

// PropertiesByCountry groups every property by country.
func (s *PropertyStore) PropertiesByCountry() view.Groups[model.Property] {
	return view.GroupBy(s.GetAll(), func(p model.Property) string { return p.Country }, view.UnspecifiedCountry)
}
