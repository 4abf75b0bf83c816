package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("student@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.domain.org"))

	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
}

func TestValidateMobile(t *testing.T) {
	assert.NoError(t, ValidateMobile("01712345678"))
	assert.NoError(t, ValidateMobile("+8801712345678"))

	assert.Error(t, ValidateMobile(""))
	assert.Error(t, ValidateMobile("12345"))
	assert.Error(t, ValidateMobile("01712-345678"))
}

func TestValidateStructReportsFirstFailure(t *testing.T) {
	type req struct {
		Title string  `validate:"required"`
		Fee   float64 `validate:"required,gt=0"`
	}

	assert.NoError(t, ValidateStruct(&req{Title: "Welding", Fee: 5000}))

	err := ValidateStruct(&req{Fee: 5000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Title")
	assert.Contains(t, err.Error(), "required")
}
