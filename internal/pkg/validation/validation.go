// Package validation registers the project's custom binding tags on gin's
// validator engine.
package validation

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
)

// Register adds the "date" (YYYY-MM-DD) and "clock" (HH:MM) tags to v.
// Empty strings pass so the tags combine with omitempty and required.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("date", validateDate); err != nil {
		return fmt.Errorf("register date validator: %w", err)
	}
	if err := v.RegisterValidation("clock", validateClock); err != nil {
		return fmt.Errorf("register clock validator: %w", err)
	}
	return nil
}

// RegisterWithGin registers the custom tags on gin's default validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

func validateDate(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, err := interval.ParseDate(s)
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, err := interval.ParseClock(s)
	return err == nil
}
