package model

// AssetInput is the user-editable part of an Asset. PropertyID is filled in
// by the asset store from the current property.
type AssetInput struct {
	Name            string          `json:"name" validate:"required"`
	Brand           string          `json:"brand" validate:"required"`
	Model           string          `json:"model" validate:"required"`
	SerialNumber    string          `json:"serialNumber" validate:"required"`
	DisplayName     string          `json:"displayName,omitempty"`
	Category        string          `json:"category" validate:"required,assetcategory"`
	Room            string          `json:"room" validate:"required"`
	Size            string          `json:"size,omitempty"`
	ManufactureDate string          `json:"manufactureDate,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	InstallDate     string          `json:"installDate,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Warranties      string          `json:"warranties,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Images          []ImageMetadata `json:"images" validate:"dive"`
	PropertyID      string          `json:"propertyId,omitempty"`
}

// Asset is an appliance or device that belongs to exactly one Property.
type Asset struct {
	AssetInput
	Record
}

// NewAsset merges an input with backend-assigned fields.
func NewAsset(in AssetInput, rec Record) Asset {
	return Asset{AssetInput: in, Record: rec}
}

// Label returns the display name, falling back to the asset name.
func (a Asset) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Name
}
