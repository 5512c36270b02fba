// Package validation is the add-school form schema. It is shared by the
// client draft, which re-validates on every change, and by the ingestion
// handler, which re-checks whatever arrives over the wire.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/aanand-mishra/schools-api/internal/types"
	"github.com/go-playground/validator/v10"
)

// phonePattern accepts digits, '+', '-', whitespace and parentheses.
var phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)

// messages maps field -> failing tag -> message shown under the input.
var messages = map[string]map[string]string{
	types.FieldSchoolName: {
		"required": "School name is required",
		"min":      "School name must be at least 2 characters",
	},
	types.FieldEmailAddress: {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	types.FieldAddress: {
		"required": "Address is required",
		"min":      "Address must be at least 5 characters",
	},
	types.FieldCity: {
		"required": "City is required",
		"min":      "City must be at least 2 characters",
	},
	types.FieldState: {
		"required": "State is required",
		"min":      "State must be at least 2 characters",
	},
	types.FieldContactNumber: {
		"required": "Contact number is required",
		"phone":    "Please enter a valid phone number",
		"min":      "Contact number must be at least 10 digits",
	},
}

// FieldErrors holds one message per offending field, keyed by the form
// part name (e.g. "emailAddress").
type FieldErrors map[string]string

// Error joins the messages in form order so the result is stable.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, field := range types.ScalarFields {
		if msg, ok := fe[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, ", ")
}

// Schema validates SchoolForm values. It is safe for concurrent use.
type Schema struct {
	validate *validator.Validate
}

// New builds the schema, registering the custom "phone" tag and making
// validator report fields by their json (form part) names.
func New() *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// RegisterValidation only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return &Schema{validate: v}
}

// Validate returns nil when the form is acceptable, otherwise the first
// failing rule of every invalid field. The image is never constrained
// here; the content type is checked when the blob is uploaded.
func (s *Schema) Validate(form types.SchoolForm) FieldErrors {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: only possible for a non-struct argument.
		return FieldErrors{"": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, e.Tag())
	}
	return out
}

func message(field, tag string) string {
	if msg, ok := messages[field][tag]; ok {
		return msg
	}
	return "field " + field + " is invalid"
}
