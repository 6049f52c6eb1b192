package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their storage name so messages match the config files
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the printer has every field needed to connect.
func (p PrinterConfig) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	missing := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		missing = append(missing, fe.Field())
	}

	return fmt.Errorf("%w for printer '%s': missing %s",
		ErrInvalidConfiguration, p.Name, strings.Join(missing, ", "))
}

// Validate checks the job record invariants.
func (j JobRecord) Validate() error {
	err := validate.Struct(j)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		msg := fmt.Sprintf("failed on '%s' validation", fe.Tag())
		if fe.Field() == "copies" {
			msg = "must be a positive number or -1 for infinite"
		}
		return &ValidationError{Field: fe.Field(), Message: msg}
	}

	return fmt.Errorf("%w: %v", ErrInvalidJob, err)
}
