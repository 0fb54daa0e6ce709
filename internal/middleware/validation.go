package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

var phonePattern = regexp.MustCompile(`^[0-9+\-\s]{7,15}$`)

func init() {
	validate = validator.New()

	// Report violations under the wire field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("telefono", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// ErrEmptyPatch marks an update payload with zero recognized fields
var ErrEmptyPatch = errors.New("empty update payload")

// Normalizer is implemented by payloads that clean themselves up
// (trimming, lower-casing) before validation
type Normalizer interface {
	Normalize()
}

// Patch is implemented by partial-update payloads
type Patch interface {
	Empty() bool
}

// ValidateRequest validates a payload against its validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes a JSON request body, normalizes it and
// validates it in one pass. Unknown JSON fields are dropped by decoding.
// For partial updates it also rejects payloads with zero recognized fields.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}

	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}

	if err := validate.Struct(v); err != nil {
		return err
	}

	if p, ok := v.(Patch); ok && p.Empty() {
		return ErrEmptyPatch
	}

	return nil
}

// FormatValidationErrors converts a validation failure into the itemized
// message list of the error envelope. All violations are reported at once.
func FormatValidationErrors(err error) []string {
	if errors.Is(err, ErrEmptyPatch) {
		return []string{"must provide at least one field to update"}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, e.Field()+": "+getErrorMessage(e))
	}

	return messages
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "telefono":
		return "invalid phone format"
	case "min":
		if e.Kind() == reflect.String {
			return "must have at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must have at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Split(e.Param(), " "), ", ")
	case "len", "hexadecimal":
		return "invalid identifier format"
	default:
		return "invalid value"
	}
}
