package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/layerq/internal/layer"
)

// validate checks the struct-tag rules on Config. Field paths in its
// errors use the yaml key names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// column: a catalog column the SQL compiler can read.
	_ = v.RegisterValidation("column", func(fl validator.FieldLevel) bool {
		return layer.IsStored(fl.Field().String())
	})
	return v
}

// describe renders one failed rule as a config problem.
func describe(fe validator.FieldError) string {
	// Namespace is "Config.generator.column_order[1]".
	_, path, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "required":
		return path + " is required"
	case "gte":
		return path + " must not be negative"
	case "column":
		return fmt.Sprintf("%s: unknown column %q", path, fe.Value())
	default:
		return fmt.Sprintf("%s: failed %q rule", path, fe.Tag())
	}
}
