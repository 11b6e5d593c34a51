package controllers

import (
	"leadflow-backend/services"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by the request
// structs in this package.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("template_vars", validTemplateVars)
}

// validTemplateVars rejects templates that reference unknown variables.
func validTemplateVars(fl validator.FieldLevel) bool {
	return services.ValidateTemplate(fl.Field().String()).Valid
}
