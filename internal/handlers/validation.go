package handlers

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Field format rules for the banking profile fields. These mirror what the
// web frontend enforces; the API is the authority.
var (
	fullNamePattern      = regexp.MustCompile(`^[A-Za-zÀ-ž' -]{2,100}$`)
	idNumberPattern      = regexp.MustCompile(`^[0-9]{13}$`)
	accountNumberPattern = regexp.MustCompile(`^[0-9]{8,20}$`)
	amountPattern        = regexp.MustCompile(`^(?:\d{1,12})(?:\.\d{1,2})?$`)
	currencyPattern      = regexp.MustCompile(`^[A-Z]{3}$`)
	swiftBicPattern      = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

// Global validator instance (reused across all handlers)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	patterns := map[string]*regexp.Regexp{
		"full_name":      fullNamePattern,
		"id_number":      idNumberPattern,
		"account_number": accountNumberPattern,
		"amount":         amountPattern,
		"currency":       currencyPattern,
		"swift_bic":      swiftBicPattern,
	}

	for tag, pattern := range patterns {
		p := pattern
		// Registration never fails for non-reserved tags
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return p.MatchString(fl.Field().String())
		})
	}

	return v
}

// ValidateRequest validates a request struct and returns a user-friendly
// error message naming the first failing field
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return fmt.Errorf("validation failed: %s: %s", ve[0].Field(), formatValidationError(ve[0]))
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "full_name":
		return "must be 2-100 letters, spaces, hyphens, or apostrophes"
	case "id_number":
		return "must be exactly 13 digits"
	case "account_number":
		return "must be 8-20 digits"
	case "amount":
		return "must be a decimal amount with at most 2 fraction digits"
	case "currency":
		return "must be a 3-letter ISO currency code"
	case "swift_bic":
		return "must be a valid SWIFT/BIC code"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
