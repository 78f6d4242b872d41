package handlers

import (
	"reflect"
	"sync"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerValidatorsOnce sync.Once

// registerValidators teaches gin's validator about decimal.Decimal amounts.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
			d, ok := fieldDecimal(fl)
			return ok && !d.IsNegative()
		})
		_ = v.RegisterValidation("decimal_gt0", func(fl validator.FieldLevel) bool {
			d, ok := fieldDecimal(fl)
			return ok && d.IsPositive()
		})
		_ = v.RegisterValidation("decimal_scale", func(fl validator.FieldLevel) bool {
			d, ok := fieldDecimal(fl)
			return ok && domain.FitsAmountScale(d)
		})
	})
}

// decimalValue exposes decimals to the validator as their string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}
