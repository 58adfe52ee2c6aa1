package controllers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"school_transport/internal/precheck"
	"school_transport/internal/session"
)

// RegisterValidators adds the domain tags to gin's binding engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("session_type", func(fl validator.FieldLevel) bool {
		_, err := session.ParseType(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("checklist_field", func(fl validator.FieldLevel) bool {
		f := precheck.Field(fl.Field().String())
		for _, known := range precheck.Fields {
			if f == known {
				return true
			}
		}
		return false
	})
}
