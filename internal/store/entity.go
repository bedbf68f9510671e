package store

import (
	"context"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/remote"
)

// Entity is anything the backend assigns an id to.
type Entity interface {
	EntityID() string
}

// EntityStore keeps an ordered list of entities plus an id index over the
// same values. Both are only ever replaced together under mu, so a reader
// never sees them disagree.
type EntityStore[In any, T Entity] struct {
	key       string
	backing   kv.Store
	transport remote.Transport[In, T]
	log       logrus.FieldLogger

	mu       sync.RWMutex
	items    []T
	index    map[string]T
	hydrated bool
	inflight map[string]struct{}
}

// NewEntityStore creates an unhydrated store persisting under key.
func NewEntityStore[In any, T Entity](key string, backing kv.Store, transport remote.Transport[In, T], log logrus.FieldLogger) *EntityStore[In, T] {
	return &EntityStore[In, T]{
		key:       key,
		backing:   backing,
		transport: transport,
		log:       log.WithField("store", key),
		index:     make(map[string]T),
		inflight:  make(map[string]struct{}),
	}
}

// Initialize hydrates the store from its backing store. Only the first
// successful call reads storage; later calls return immediately.
func (s *EntityStore[In, T]) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}
	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	s.hydrated = true
	return nil
}

// Load replaces the in-memory state with the persisted list, rebuilding
// the index from it, and marks the store hydrated. With nothing persisted
// the state is left as is.
func (s *EntityStore[In, T]) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	s.hydrated = true
	return nil
}

func (s *EntityStore[In, T]) loadLocked(ctx context.Context) error {
	state, ok, err := readState[map[string][]T](ctx, s.backing, s.key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.rebuildLocked(state[s.key])
	return nil
}

// rebuildLocked derives list and index from items. Entries without an id
// or repeating an earlier id cannot be indexed and are dropped.
func (s *EntityStore[In, T]) rebuildLocked(items []T) {
	list := make([]T, 0, len(items))
	index := make(map[string]T, len(items))
	for _, item := range items {
		id := item.EntityID()
		if id == "" {
			s.log.Warn("Dropping persisted entry without an id")
			continue
		}
		if _, dup := index[id]; dup {
			s.log.WithField("id", id).Warn("Dropping persisted entry with duplicate id")
			continue
		}
		list = append(list, item)
		index[id] = item
	}
	s.items = list
	s.index = index
}

// Save creates the entity remotely and appends the result. It reports
// false, leaving state untouched, when the remote call fails.
func (s *EntityStore[In, T]) Save(ctx context.Context, in In) (T, bool) {
	var zero T
	log := s.log.WithField("op", "save")

	out, err := s.transport.Create(ctx, in)
	if err != nil {
		log.WithError(err).Error("Save failed")
		return zero, false
	}
	id := out.EntityID()
	if id == "" {
		log.WithError(ErrMissingID).Error("Save failed")
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.index[id]; dup {
		log.WithField("id", id).Error("Save failed: remote returned an id already in the store")
		return zero, false
	}
	s.items = append(s.items, out)
	s.index[id] = out
	s.persistLocked(ctx)
	return out, true
}

// Update replaces the entity with the remote result. Unknown ids, remote
// failures and overlapping changes to the same id report false.
func (s *EntityStore[In, T]) Update(ctx context.Context, id string, in In) (T, bool) {
	var zero T
	if id == "" {
		return zero, false
	}
	log := s.log.WithFields(logrus.Fields{"op": "update", "id": id})

	if err := s.begin(id); err != nil {
		log.WithError(err).Warn("Update refused")
		return zero, false
	}
	defer s.finish(id)

	out, err := s.transport.Update(ctx, id, in)
	if err != nil {
		log.WithError(err).Error("Update failed")
		return zero, false
	}
	if got := out.EntityID(); got != id {
		log.WithField("remote_id", got).Error("Update failed: remote returned a different id")
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pos := slices.IndexFunc(s.items, func(item T) bool { return item.EntityID() == id })
	if pos < 0 {
		log.Warn("Entity vanished while the update was in flight; discarding result")
		return zero, false
	}
	s.items[pos] = out
	s.index[id] = out
	s.persistLocked(ctx)
	return out, true
}

// Delete removes the entity. When the transport can delete, the backend
// must confirm first.
func (s *EntityStore[In, T]) Delete(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	log := s.log.WithFields(logrus.Fields{"op": "delete", "id": id})

	if err := s.begin(id); err != nil {
		log.WithError(err).Warn("Delete refused")
		return false
	}
	defer s.finish(id)

	if d, ok := s.transport.(remote.Deleter); ok {
		if err := d.Delete(ctx, id); err != nil {
			log.WithError(err).Error("Delete failed")
			return false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(s.items, func(item T) bool { return item.EntityID() == id })
	delete(s.index, id)
	s.persistLocked(ctx)
	return true
}

// GetByID looks id up in the index.
func (s *EntityStore[In, T]) GetByID(id string) (T, bool) {
	if id == "" {
		var zero T
		return zero, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.index[id]
	return item, ok
}

// GetAll returns a copy of the list in insertion order.
func (s *EntityStore[In, T]) GetAll() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Filter returns the entities matching keep, in list order.
func (s *EntityStore[In, T]) Filter(keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (s *EntityStore[In, T]) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Reset drops every entity locally and removes the persisted blob.
func (s *EntityStore[In, T]) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.index = make(map[string]T)
	return s.backing.Delete(ctx, s.key)
}

func (s *EntityStore[In, T]) begin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; !ok {
		return ErrNotFound
	}
	if _, busy := s.inflight[id]; busy {
		return ErrBusy
	}
	s.inflight[id] = struct{}{}
	return nil
}

func (s *EntityStore[In, T]) finish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// persistLocked snapshots the list. A failed write is logged; the
// in-memory state stays authoritative until the next successful write.
func (s *EntityStore[In, T]) persistLocked(ctx context.Context) {
	state := map[string][]T{s.key: s.items}
	if err := writeState(context.WithoutCancel(ctx), s.backing, s.key, state); err != nil {
		s.log.WithError(err).Error("Failed to persist state")
	}
}
