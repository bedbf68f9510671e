package model

// PropertyInput is the user-editable part of a Property.
type PropertyInput struct {
	Name         string          `json:"name" validate:"required"`
	AddressLine1 string          `json:"addressLine1" validate:"required"`
	AddressLine2 string          `json:"addressLine2,omitempty"`
	City         string          `json:"city" validate:"required"`
	State        string          `json:"state" validate:"required"`
	PostalCode   string          `json:"postalCode" validate:"required"`
	Country      string          `json:"country" validate:"required"`
	Coordinates  string          `json:"coordinates,omitempty"`
	Images       []ImageMetadata `json:"images" validate:"dive"`
	Rooms        []string        `json:"rooms" validate:"unique,dive,required"`
}

// Property is a household property as stored by the backend.
type Property struct {
	PropertyInput
	Record
}

// NewProperty merges an input with backend-assigned fields.
func NewProperty(in PropertyInput, rec Record) Property {
	return Property{PropertyInput: in, Record: rec}
}
