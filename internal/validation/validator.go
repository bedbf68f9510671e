package validation

import (
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"habitrack-backend/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("assetcategory", func(fl validator.FieldLevel) bool {
		return model.IsAssetCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return slices.Contains(model.Languages, fl.Field().String())
	})
	_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
		return slices.Contains(model.Plans, fl.Field().String())
	})
	return v
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// message turns a validator failure into the text shown under a form field.
func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + fe.Param() + " characters"
		}
		return field + " must be at least " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "oneof":
		return field + " must be one of [" + fe.Param() + "]"
	case "unique":
		return field + " must not contain duplicates"
	case "datetime":
		return field + " must be a valid date"
	case "assetcategory":
		return field + " must be one of the supported categories"
	case "language":
		return field + " must be one of [" + strings.Join(model.Languages, " ") + "]"
	case "plan":
		return field + " must be one of [" + strings.Join(model.Plans, " ") + "]"
	default:
		return field + " is invalid"
	}
}
