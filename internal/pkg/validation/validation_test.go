package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Day   string `validate:"omitempty,date"`
	Start string `validate:"required,clock"`
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	tests := []struct {
		name  string
		in    sample
		valid bool
	}{
		{name: "valid", in: sample{Day: "2025-03-01", Start: "09:00"}, valid: true},
		{name: "empty optional date", in: sample{Start: "21:30"}, valid: true},
		{name: "zero seconds accepted", in: sample{Start: "10:00:00"}, valid: true},
		{name: "non-zero seconds", in: sample{Start: "10:00:30"}},
		{name: "impossible date", in: sample{Day: "2025-02-30", Start: "09:00"}},
		{name: "wrong date layout", in: sample{Day: "01/03/2025", Start: "09:00"}},
		{name: "hour out of range", in: sample{Start: "24:00"}},
		{name: "missing colon", in: sample{Start: "0900"}},
		{name: "missing required clock", in: sample{Day: "2025-03-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRegisterWithGin(t *testing.T) {
	assert.NoError(t, RegisterWithGin())
}
