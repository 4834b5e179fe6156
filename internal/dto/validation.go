package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/config"
)

// NewValidator returns a validator with the timetable specific rules
// registered: lesson_type and iso_date.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("lesson_type", func(fl validator.FieldLevel) bool {
		return models.LessonType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(config.DateLayout, fl.Field().String())
		return err == nil
	})
	return v
}
