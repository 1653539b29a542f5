package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Email    string  `json:"email" validate:"required,email"`
	Nick     *string `json:"nick,omitempty" validate:"omitempty,max=5"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.Nil(t, ValidateStruct(sampleRequest{Username: "jdoe", Email: "j@x.com"}))
	})

	t.Run("reports json field names", func(t *testing.T) {
		long := "toolongnick"
		errs := ValidateStruct(sampleRequest{Username: "jd", Email: "nope", Nick: &long})

		assert.Equal(t, map[string]string{
			"username": "Minimum length is 3",
			"email":    "Invalid email format",
			"nick":     "Maximum length is 5",
		}, errs)
	})

	t.Run("required", func(t *testing.T) {
		errs := ValidateStruct(sampleRequest{})

		assert.Equal(t, "This field is required", errs["username"])
		assert.Equal(t, "This field is required", errs["email"])
	})
}
