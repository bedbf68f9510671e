package store

import (
	"context"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/model"
	"habitrack-backend/internal/remote"
)

type userState struct {
	Profile *model.UserProfile `json:"userProfile"`
}

// UserStore holds the single profile of the signed-in user.
type UserStore struct {
	backing   kv.Store
	transport remote.Transport[model.UserInput, model.UserProfile]
	log       logrus.FieldLogger

	mu       sync.RWMutex
	profile  *model.UserProfile
	hydrated bool
	busy     bool
	// clears counts Clear calls; a change started before a clear is dropped.
	clears uint64
}

// NewUserStore creates a UserStore persisting under KeyUserProfile.
func NewUserStore(backing kv.Store, transport remote.Transport[model.UserInput, model.UserProfile], log logrus.FieldLogger) *UserStore {
	return &UserStore{
		backing:   backing,
		transport: transport,
		log:       log.WithField("store", KeyUserProfile),
	}
}

// Initialize restores the persisted profile once per process.
func (s *UserStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}
	state, ok, err := readState[userState](ctx, s.backing, KeyUserProfile)
	if err != nil {
		return err
	}
	if ok && state.Profile != nil {
		if state.Profile.ID == "" {
			s.log.Warn("Dropping persisted profile without an id")
		} else {
			s.profile = state.Profile
		}
	}
	s.hydrated = true
	return nil
}

func (s *UserStore) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Profile returns the stored profile, if any.
func (s *UserStore) Profile() (model.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return model.UserProfile{}, false
	}
	return *s.profile, true
}

// IsGuest reports whether no profile has been created yet.
func (s *UserStore) IsGuest() bool {
	_, ok := s.Profile()
	return !ok
}

// Save registers a new profile. It refuses when one already exists.
func (s *UserStore) Save(ctx context.Context, in model.UserInput) (model.UserProfile, bool) {
	log := s.log.WithField("op", "save")
	clears, err := s.begin(false)
	if err != nil {
		log.WithError(err).Warn("Save refused")
		return model.UserProfile{}, false
	}
	defer s.finish()

	out, err := s.transport.Create(ctx, in)
	if err != nil {
		log.WithError(err).Error("Save failed")
		return model.UserProfile{}, false
	}
	if out.ID == "" {
		log.WithError(ErrMissingID).Error("Save failed")
		return model.UserProfile{}, false
	}

	if !s.apply(ctx, &out, clears) {
		log.Warn("Profile was cleared while the change was in flight; discarding result")
		return model.UserProfile{}, false
	}
	return out, true
}

// Update replaces the profile with in.
func (s *UserStore) Update(ctx context.Context, in model.UserInput) (model.UserProfile, bool) {
	log := s.log.WithField("op", "update")
	clears, err := s.begin(true)
	if err != nil {
		log.WithError(err).Warn("Update refused")
		return model.UserProfile{}, false
	}
	defer s.finish()

	current, _ := s.Profile()
	out, err := s.transport.Update(ctx, current.ID, in)
	if err != nil {
		log.WithError(err).Error("Update failed")
		return model.UserProfile{}, false
	}
	if out.ID != current.ID {
		log.WithField("remote_id", out.ID).Error("Update failed: remote returned a different id")
		return model.UserProfile{}, false
	}

	if !s.apply(ctx, &out, clears) {
		log.Warn("Profile was cleared while the change was in flight; discarding result")
		return model.UserProfile{}, false
	}
	return out, true
}

// SetLanguage switches the profile language.
func (s *UserStore) SetLanguage(ctx context.Context, language string) bool {
	if !slices.Contains(model.Languages, language) {
		s.log.WithField("language", language).Warn("Unsupported language")
		return false
	}
	current, ok := s.Profile()
	if !ok {
		s.log.WithError(ErrNoProfile).Warn("Cannot set language")
		return false
	}
	in := current.UserInput
	in.Language = language
	_, ok = s.Update(ctx, in)
	return ok
}

// Clear forgets the profile locally, as on logout.
func (s *UserStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	s.clears++
	return s.backing.Delete(ctx, KeyUserProfile)
}

// DeleteAccount deletes the profile remotely, then clears it locally.
func (s *UserStore) DeleteAccount(ctx context.Context) bool {
	log := s.log.WithField("op", "delete")
	if _, err := s.begin(true); err != nil {
		log.WithError(err).Warn("Delete refused")
		return false
	}
	defer s.finish()

	current, _ := s.Profile()
	if d, ok := s.transport.(remote.Deleter); ok {
		if err := d.Delete(ctx, current.ID); err != nil {
			log.WithError(err).Error("Delete failed")
			return false
		}
	}
	if err := s.Clear(context.WithoutCancel(ctx)); err != nil {
		log.WithError(err).Error("Failed to remove persisted profile")
	}
	return true
}

// begin marks a change in flight. needProfile selects whether a profile
// must (update, delete) or must not (save) already exist.
func (s *UserStore) begin(needProfile bool) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return 0, ErrBusy
	}
	if needProfile && s.profile == nil {
		return 0, ErrNoProfile
	}
	if !needProfile && s.profile != nil {
		return 0, ErrProfileExists
	}
	s.busy = true
	return s.clears, nil
}

func (s *UserStore) finish() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// apply stores p unless Clear ran since the change began.
func (s *UserStore) apply(ctx context.Context, p *model.UserProfile, clears uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clears != clears {
		return false
	}
	s.profile = p
	if err := writeState(context.WithoutCancel(ctx), s.backing, KeyUserProfile, userState{Profile: p}); err != nil {
		s.log.WithError(err).Error("Failed to persist state")
	}
	return true
}
