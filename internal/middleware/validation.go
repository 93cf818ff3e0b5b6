package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	pkgvalidator "github.com/jwalitptl/medicare-api/pkg/validator"
)

// RegisterValidators installs the custom tags on gin's binding engine.
func RegisterValidators() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return pkgvalidator.Register(v)
	}
	return nil
}
