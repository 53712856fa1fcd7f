package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/go-playground/validator/v10"
)

var (
	errRequired      = errors.New("is required")
	errInvalidDay    = errors.New("must be a day in YYYY-MM-DD format")
	errInvalidResult = errors.New("must be one of the call outcomes")
	errNotNegative   = errors.New("must not be negative")
	errNeedAmount    = errors.New("commission or bonus is required")
)

var customErrors = map[string]error{
	"required":         errRequired,
	"datetime":         errInvalidDay,
	"outcome":          errInvalidResult,
	"gte":              errNotNegative,
	"required_without": errNeedAmount,
}

// NewValidator returns a validator reporting json field names, with the
// outcome tag registered
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("outcome", func(fl validator.FieldLevel) bool {
		return types.Outcome(fl.Field().String()).IsValid()
	})
	return v
}

// validationErrors converts validator errors into [{field: message}]
func validationErrors(err error) []map[string]string {
	errList := make([]map[string]string, 0)

	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		for _, e := range validationErr {
			errMsg := fmt.Sprintf("%s is invalid", e.Field())
			if v, ok := customErrors[e.Tag()]; ok {
				errMsg = v.Error()
			}
			errList = append(errList, map[string]string{e.Field(): errMsg})
		}
	}
	return errList
}
