package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type barForm struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,phone10"`
	City  string `json:"city" validate:"omitempty,min=2"`
}

func TestFieldErrorsUsesJSONNames(t *testing.T) {
	fields := FieldErrors(&barForm{Phone: "12345"})

	assert.Equal(t, "required", fields["name"])
	assert.Equal(t, "must be a 10-digit phone number", fields["phone"])
	assert.NotContains(t, fields, "city")
}

func TestFieldErrorsNilWhenValid(t *testing.T) {
	assert.Nil(t, FieldErrors(&barForm{Name: "Le Zinc", Phone: "0612345678"}))
}

func TestIsPhone10(t *testing.T) {
	assert.True(t, IsPhone10("0612345678"))
	assert.False(t, IsPhone10("612345678"))
	assert.False(t, IsPhone10("06123456789"))
	assert.False(t, IsPhone10("06-2345678"))
}
