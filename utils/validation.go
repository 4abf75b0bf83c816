package utils

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Email and mobile number patterns
var (
	EmailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	MobileRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// Validate is the shared struct validator for request bodies
var Validate = validator.New()

// ValidateStruct runs tag-based validation and flattens the first failure
// into a readable message.
func ValidateStruct(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		e := errs[0]
		return fmt.Errorf("field '%s' failed validation (%s)", e.Field(), e.Tag())
	}
	return err
}

// ValidateEmail checks if email format is valid
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateMobile checks if a mobile number looks plausible
func ValidateMobile(mobile string) error {
	if mobile == "" {
		return fmt.Errorf("mobile number is required")
	}
	if !MobileRegex.MatchString(mobile) {
		return fmt.Errorf("invalid mobile number format")
	}
	return nil
}
