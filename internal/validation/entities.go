package validation

import (
	"slices"

	"habitrack-backend/internal/model"
)

// Canonical schemas, built once at startup.
var (
	Property = NewSchema[model.PropertyInput](nil)
	Asset    = NewSchema[model.AssetInput](nil)
	User     = NewSchema[model.UserInput](map[string]any{
		"language": model.LanguageEnglish,
		"plan":     model.PlanFree,
	})
)

// ValidateProperty validates property form input.
func ValidateProperty(input map[string]any) Result[model.PropertyInput] {
	return Property.Validate(input)
}

// ValidateAsset validates asset form input.
func ValidateAsset(input map[string]any) Result[model.AssetInput] {
	return Asset.Validate(input)
}

// ValidateUser validates profile form input.
func ValidateUser(input map[string]any) Result[model.UserInput] {
	return User.Validate(input)
}

// ValidateAssetForProperty validates asset input and, when the property
// declares rooms, requires the asset's room to be one of them.
func ValidateAssetForProperty(input map[string]any, property model.Property) Result[model.AssetInput] {
	res := ValidateAsset(input)
	if !res.Success || len(property.Rooms) == 0 {
		return res
	}
	if !slices.Contains(property.Rooms, res.Data.Room) {
		return failed[model.AssetInput](Issue{
			Path:    "room",
			Message: "room must be one of the rooms of " + property.Name,
			Code:    "validation_room",
		})
	}
	return res
}

