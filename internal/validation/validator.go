// Package validation checks mutation inputs with validator/v10 and reports
// failures as InvalidInput errors carrying the submitted arguments, with a
// reason per offending argument.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/listenupapp/catalog-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their `arg` tag, falling back
// to the json tag and then the Go field name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"arg", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{v: v}
}

// Validate validates a struct. Field failures become an InvalidInput error whose
// details are args, the arguments as submitted, and whose reasons map each
// failing argument to a message.
func (v *Validator) Validate(s any, args map[string]any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err, args)
	}
	return nil
}

func (v *Validator) formatError(err error, args map[string]any) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	reasons := make(map[string]string, len(validationErrs))
	names := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		reasons[e.Field()] = friendlyMessage(e)
		names = append(names, e.Field())
	}

	domainErr := domainerrors.InvalidInput("invalid "+strings.Join(names, ", "), args)
	domainErr.Reasons = reasons
	return domainErr
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "dive":
		return "contains an invalid element"
	case "notblank":
		return "must not be blank"
	default:
		return "is invalid"
	}
}
