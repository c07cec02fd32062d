package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Labels and relationship types are spliced into Cypher and SQL text,
	// so they are restricted to identifier characters.
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

const MaxIdentifierLength = 64

func init() {
	validate = validator.New()
	validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return IsIdentifier(fl.Field().String())
	})
}

// IsIdentifier reports whether s may be used as a label, relationship type or
// property name.
func IsIdentifier(s string) bool {
	return len(s) <= MaxIdentifierLength && identifierPattern.MatchString(s)
}

// ValidateIdentifier returns an error naming kind when s is not an identifier.
func ValidateIdentifier(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s: must not be empty", kind)
	}
	if !IsIdentifier(s) {
		return fmt.Errorf("%s '%s' is invalid (must start with a letter or underscore, followed by at most %d alphanumerics or underscores)",
			kind, s, MaxIdentifierLength-1)
	}
	return nil
}

// Struct validates v against its `validate` struct tags.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	return formatValidationError(validate.Struct(v))
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "identifier":
			return fmt.Errorf("%s: '%v' is not a valid identifier", field, e.Value())
		case "nefield":
			return fmt.Errorf("%s: must differ from %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
