package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/parse"
	"habitrack-backend/internal/remote"
)

// DefaultOTPCooldown is how long a user waits before requesting another code.
const DefaultOTPCooldown = time.Minute

// authState is the persisted part of AuthStore: the token and nothing else.
type authState struct {
	Token string `json:"token,omitempty"`
}

// AuthStore tracks the OTP sign-in flow and the resulting session token.
// Only the token survives a restart.
type AuthStore struct {
	backing  kv.Store
	otp      remote.OTPService
	clock    remote.Clock
	cooldown time.Duration
	log      logrus.FieldLogger

	mu              sync.RWMutex
	token           string
	phoneNumber     string
	cooldownExpires time.Time
	attempts        int
	hydrated        bool
}

var _ remote.TokenSource = (*AuthStore)(nil)

// NewAuthStore creates an AuthStore. backing should be encrypted at rest.
func NewAuthStore(backing kv.Store, otp remote.OTPService, clock remote.Clock, cooldown time.Duration, log logrus.FieldLogger) *AuthStore {
	if cooldown <= 0 {
		cooldown = DefaultOTPCooldown
	}
	return &AuthStore{
		backing:  backing,
		otp:      otp,
		clock:    clock,
		cooldown: cooldown,
		log:      log.WithField("store", KeyAuth),
	}
}

// Initialize restores the persisted token once per process.
func (s *AuthStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}
	state, ok, err := readState[authState](ctx, s.backing, KeyAuth)
	if err != nil {
		return err
	}
	if ok {
		s.token = state.Token
	}
	s.hydrated = true
	return nil
}

func (s *AuthStore) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Token implements remote.TokenSource.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a session token is held.
func (s *AuthStore) IsAuthenticated() bool {
	return s.Token() != ""
}

// SetToken stores and persists token.
func (s *AuthStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return writeState(ctx, s.backing, KeyAuth, authState{Token: token})
}

// ClearToken signs out: the token and the OTP phone number and cooldown
// are forgotten.
func (s *AuthStore) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.phoneNumber = ""
	s.cooldownExpires = time.Time{}
	return writeState(ctx, s.backing, KeyAuth, authState{})
}

// SetOTPPhoneNumber normalises and remembers the number codes are sent to.
func (s *AuthStore) SetOTPPhoneNumber(countryCode, number string) (string, error) {
	phone, err := parse.PhoneNumber(countryCode, number)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.phoneNumber = phone
	s.mu.Unlock()
	return phone, nil
}

// OTPPhoneNumber returns the number set for the current OTP flow.
func (s *AuthStore) OTPPhoneNumber() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phoneNumber
}

// StartOTPCountdown starts the resend cooldown for phone and resets the
// attempt counter.
func (s *AuthStore) StartOTPCountdown(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phoneNumber = phone
	s.cooldownExpires = s.clock.Now().Add(s.cooldown)
	s.attempts = 0
}

// CooldownRemaining returns how long until another code may be sent.
func (s *AuthStore) CooldownRemaining() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cooldownExpires.IsZero() {
		return 0
	}
	return max(s.cooldownExpires.Sub(s.clock.Now()), 0)
}

// RequestOTP normalises the number and sends a code to it. Malformed
// numbers are reported as ErrInvalidPhone.
func (s *AuthStore) RequestOTP(ctx context.Context, countryCode, number string) (string, error) {
	phone, err := parse.PhoneNumber(countryCode, number)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if err := s.SendOTP(ctx, phone); err != nil {
		return "", err
	}
	return phone, nil
}

// SendOTP asks the backend to send a code to phone. The cooldown is
// reserved before the call, so a concurrent request is refused with
// ErrCooldown; phone becomes the flow's number only once the send succeeds.
func (s *AuthStore) SendOTP(ctx context.Context, phone string) error {
	if phone == "" {
		return ErrNoPhoneNumber
	}

	s.mu.Lock()
	now := s.clock.Now()
	if s.cooldownExpires.After(now) {
		s.mu.Unlock()
		return ErrCooldown
	}
	previous := s.cooldownExpires
	reserved := now.Add(s.cooldown)
	s.cooldownExpires = reserved
	s.mu.Unlock()

	if err := s.otp.SendOTP(ctx, phone); err != nil {
		s.mu.Lock()
		if s.cooldownExpires.Equal(reserved) {
			s.cooldownExpires = previous
		}
		s.mu.Unlock()
		s.log.WithError(err).Error("Failed to send OTP")
		return fmt.Errorf("failed to send OTP: %w", err)
	}

	s.mu.Lock()
	s.phoneNumber = phone
	s.attempts = 0
	s.mu.Unlock()
	return nil
}

// VerifyOTP checks code with the backend. On success the issued token is
// stored and the OTP state reset.
func (s *AuthStore) VerifyOTP(ctx context.Context, code string) error {
	phone := s.OTPPhoneNumber()
	if phone == "" {
		return ErrNoPhoneNumber
	}
	if !parse.IsOTPCode(code) {
		return ErrInvalidCode
	}
	s.RecordOTPAttempt()

	token, err := s.otp.VerifyOTP(ctx, phone, code)
	if err != nil {
		s.log.WithError(err).WithField("attempts", s.OTPAttempts()).Warn("OTP verification failed")
		return fmt.Errorf("OTP verification failed: %w", err)
	}
	if err := s.SetToken(context.WithoutCancel(ctx), token); err != nil {
		return err
	}
	s.ResetOTPState()
	return nil
}

func (s *AuthStore) RecordOTPAttempt() {
	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()
}

func (s *AuthStore) OTPAttempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts
}

// ResetOTPState forgets the phone number, cooldown and attempts.
func (s *AuthStore) ResetOTPState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phoneNumber = ""
	s.cooldownExpires = time.Time{}
	s.attempts = 0
}
