package model

// Language codes supported by the app.
const (
	LanguageEnglish = "en"
	LanguageHindi   = "hi"
	LanguageSpanish = "es"
)

// Languages lists the supported language codes.
var Languages = []string{LanguageEnglish, LanguageHindi, LanguageSpanish}

// Subscription plans.
const (
	PlanFree = "free"
	PlanPaid = "paid"
)

// Plans lists the supported plans.
var Plans = []string{PlanFree, PlanPaid}

// UserInput is the editable part of a user profile.
type UserInput struct {
	Name        string         `json:"name" validate:"required,min=2"`
	Email       string         `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber string         `json:"phoneNumber" validate:"required,min=10"`
	Image       *ImageMetadata `json:"image,omitempty" validate:"omitempty"`
	Language    string         `json:"language" validate:"required,language"`
	Verified    bool           `json:"verified"`
	Plan        string         `json:"plan" validate:"required,plan"`
}

// UserProfile is the profile of the signed-in user.
type UserProfile struct {
	UserInput
	Record
}

// NewUserProfile merges an input with backend-assigned fields.
func NewUserProfile(in UserInput, rec Record) UserProfile {
	return UserProfile{UserInput: in, Record: rec}
}
