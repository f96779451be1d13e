package validators

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/anonto42/nano-midea/client/internal/errs"
	"github.com/go-playground/validator/v10"
)

// Validator checks input structs against their validate tags. It satisfies
// echo.Validator so the stub server can share it with c.Validate.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with json field names in messages
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate runs struct validation and returns a ValidationError naming every
// failing field.
func (v *Validator) Validate(i any) error {
	return v.check("validate", v.validate.Struct(i))
}

// Check is Validate with the failing operation named in the error.
func (v *Validator) Check(op string, i any) error {
	return v.check(op, v.validate.Struct(i))
}

// Var validates a single value against tag, reporting it as field.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, describe(field, fe))
		}
		return errs.Validation(field, strings.Join(msgs, "; "))
	}
	if err != nil {
		return errs.Validation(field, err.Error())
	}
	return nil
}

func (v *Validator) check(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs.Validation(op, err.Error())
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, describe(fe.Field(), fe))
	}
	sort.Strings(msgs)
	return errs.Validation(op, strings.Join(msgs, "; "))
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
