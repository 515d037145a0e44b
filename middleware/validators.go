package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storefront-service/models"
)

// RegisterValidators adds the enum tags used in request bindings to gin's
// validator engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return registerEnumValidators(v)
}

func registerEnumValidators(v *validator.Validate) error {
	validators := map[string]validator.Func{
		"paymentmethod": func(fl validator.FieldLevel) bool {
			return models.PaymentMethod(fl.Field().String()).Valid()
		},
		"orderstatus": func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		},
		"paymentstatus": func(fl validator.FieldLevel) bool {
			return models.PaymentStatus(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}
