package remote

import (
	"context"
	"net/http"
	"time"
)

// OTPService sends and verifies one-time passcodes.
type OTPService interface {
	SendOTP(ctx context.Context, phoneNumber string) error
	// VerifyOTP returns a session token when code is accepted.
	VerifyOTP(ctx context.Context, phoneNumber, code string) (string, error)
}

// MockOTP accepts every code after Latency and issues a random token.
type MockOTP struct {
	Latency time.Duration
	Tokens  IDGenerator
}

var _ OTPService = (*MockOTP)(nil)

// NewMockOTP creates a MockOTP issuing "token-<uuid>" tokens.
func NewMockOTP(latency time.Duration) *MockOTP {
	return &MockOTP{Latency: latency, Tokens: UUIDGenerator{Prefix: "token-"}}
}

// SendOTP implements OTPService.
func (m *MockOTP) SendOTP(ctx context.Context, _ string) error {
	return m.wait(ctx)
}

// VerifyOTP implements OTPService.
func (m *MockOTP) VerifyOTP(ctx context.Context, _, _ string) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	return m.Tokens.New(), nil
}

func (m *MockOTP) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HTTPOTP is the OTPService of a real backend.
type HTTPOTP struct {
	client *Client
}

var _ OTPService = (*HTTPOTP)(nil)

// NewHTTPOTP creates an OTP service on client.
func NewHTTPOTP(client *Client) *HTTPOTP {
	return &HTTPOTP{client: client}
}

type otpRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code,omitempty"`
}

type otpResponse struct {
	Token string `json:"token"`
}

// SendOTP implements OTPService with POST /auth/otp.
func (h *HTTPOTP) SendOTP(ctx context.Context, phoneNumber string) error {
	return h.client.do(ctx, http.MethodPost, "/auth/otp", otpRequest{PhoneNumber: phoneNumber}, nil)
}

// VerifyOTP implements OTPService with POST /auth/otp/verify.
func (h *HTTPOTP) VerifyOTP(ctx context.Context, phoneNumber, code string) (string, error) {
	var resp otpResponse
	if err := h.client.do(ctx, http.MethodPost, "/auth/otp/verify", otpRequest{PhoneNumber: phoneNumber, Code: code}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrRejected
	}
	return resp.Token, nil
}
