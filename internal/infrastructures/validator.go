package infrastructures

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/heyheylabs/bdvoucher-core/internal/app/errors"
)

// employeeIDPattern matches the accepted employee identifier shape:
// 3-20 characters of letters, digits, underscore or hyphen.
var employeeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()

	if err := validate.RegisterValidation("employee_id", func(fl validator.FieldLevel) bool {
		return employeeIDPattern.MatchString(fl.Field().String())
	}); err != nil {
		logrus.Fatalf("failed to register employee_id validation: %v", err)
	}

	return &Validator{
		validate: validate,
	}
}

func (v *Validator) Validate(i interface{}) error {
	if i == nil {
		return errors.NewBadRequestError("Invalid request body")
	}

	err := v.validate.Struct(i)
	if err != nil {
		return errors.NewBadRequestError(err.Error())
	}
	return nil
}
