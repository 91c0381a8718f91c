package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MKhiriev/go-account-keeper/models"
)

const (
	FieldUsername = "username"
	FieldPassword = "password"
)

// credentialsFields maps public field names onto struct field names.
var credentialsFields = map[string]string{
	FieldUsername: "Username",
	FieldPassword: "Password",
}

type CredentialsValidator struct {
	validate *validator.Validate
}

func NewCredentialsValidator() Validator {
	return &CredentialsValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (v *CredentialsValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Credentials:
		return v.validateCredentials(ctx, value, fields...)
	case *models.Credentials:
		if value == nil {
			return ErrUnsupportedType
		}
		return v.validateCredentials(ctx, *value, fields...)
	default:
		return ErrUnsupportedType
	}
}

func (v *CredentialsValidator) validateCredentials(_ context.Context, creds models.Credentials, fields ...string) error {
	var err error
	if len(fields) == 0 {
		fields = []string{FieldUsername, FieldPassword}
		err = v.validate.Struct(creds)
	} else {
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			name, ok := credentialsFields[f]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownField, f)
			}
			names = append(names, name)
		}
		err = v.validate.StructPartial(creds, names...)
	}
	if err != nil {
		return mapValidationError(err)
	}

	// `required` accepts whitespace, a label never should
	for _, f := range fields {
		if f == FieldUsername && strings.TrimSpace(creds.Username) == "" {
			return ErrBlankUsername
		}
	}

	return nil
}

func mapValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	switch fe.StructField() {
	case "Username":
		if fe.Tag() == "max" {
			return ErrUsernameTooLong
		}
		return ErrEmptyUsername
	case "Password":
		return ErrEmptyPassword
	}
	return fmt.Errorf("%s: %s", fe.Field(), fe.Tag())
}
