package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Field Patterns
// =============================================================================

var (
	loginRegex  = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	emailRegex  = regexp.MustCompile(`^[-\w.]+@([-\w]+\.)+[-\w]{2,4}$`)
	alpha2Regex = regexp.MustCompile(`^[a-zA-Z]{2}$`)
	phoneRegex  = regexp.MustCompile(`^\+\d+$`)
)

// Field limits from the registration contract.
const (
	LoginMinLen    = 3
	LoginMaxLen    = 30
	EmailMaxLen    = 50
	PasswordMinLen = 6
	PasswordMaxLen = 100
	PhoneMinLen    = 5
	PhoneMaxLen    = 20
	ImageMinLen    = 5
	ImageMaxLen    = 200
)

// =============================================================================
// Validator Setup
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Tag-level rules used by API request structs.
	must(v.RegisterValidation("user_login", func(fl validator.FieldLevel) bool {
		return ValidLogin(fl.Field().String())
	}))
	must(v.RegisterValidation("user_email", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	}))
	must(v.RegisterValidation("user_password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	}))
	must(v.RegisterValidation("country_alpha2", func(fl validator.FieldLevel) bool {
		return ValidCountryCode(fl.Field().String())
	}))
	must(v.RegisterValidation("user_phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	}))
	must(v.RegisterValidation("user_image", func(fl validator.FieldLevel) bool {
		return ValidImage(fl.Field().String())
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidateStruct runs the tag rules on a request struct. On failure it
// returns the offending field name (lower-cased) and false.
func ValidateStruct(s any) (field string, ok bool) {
	err := validate.Struct(s)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return strings.ToLower(verrs[0].Field()), false
	}
	return "", false
}

// =============================================================================
// Field Rules
// =============================================================================

// ValidLogin checks length and the [a-zA-Z0-9-] alphabet.
func ValidLogin(login string) bool {
	if len(login) < LoginMinLen || len(login) > LoginMaxLen {
		return false
	}
	return loginRegex.MatchString(login)
}

// ValidEmail checks shape and length.
func ValidEmail(email string) bool {
	if email == "" || len(email) > EmailMaxLen {
		return false
	}
	return emailRegex.MatchString(email)
}

// ValidPassword requires 6..100 characters with at least one lower-case
// letter, one upper-case letter and one digit.
func ValidPassword(password string) bool {
	if len(password) < PasswordMinLen || len(password) > PasswordMaxLen {
		return false
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}

// ValidCountryCode checks the two-letter alpha2 pattern. Case is accepted
// here; lookups upper-case before hitting the store.
func ValidCountryCode(code string) bool {
	return alpha2Regex.MatchString(code)
}

// ValidPhone checks the +digits pattern and length. Empty is valid: phone
// is an optional field, handlers skip the check when it is absent.
func ValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	if len(phone) < PhoneMinLen || len(phone) > PhoneMaxLen {
		return false
	}
	return phoneRegex.MatchString(phone)
}

// ValidImage checks the avatar URL length. Empty is valid: image is optional.
func ValidImage(image string) bool {
	if image == "" {
		return true
	}
	return len(image) >= ImageMinLen && len(image) <= ImageMaxLen
}
