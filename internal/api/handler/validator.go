package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// errorResponse is the {"error": "..."} envelope of every 4xx/5xx body.
type errorResponse struct {
	Error string `json:"error"`
}

type echoValidator struct {
	v *validator.Validate
}

// NewValidator builds the echo.Validator used by every handler. Messages
// name fields by their json or query key, and the "role" tag accepts the
// roles the domain knows.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.ValidRole(fl.Field().String())
	})
	return &echoValidator{v: v}
}

func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	msgs := make([]string, len(ve))
	for i, fe := range ve {
		msgs[i] = fieldError(fe)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// wireName is the key a client sends for f.
func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(f.Name)
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "role":
		return fmt.Sprintf("%s must be %s or %s", field, domain.RoleAdmin, domain.RoleOperator)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
