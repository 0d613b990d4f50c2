package validator

import (
	"strings"

	apperrors "marina/pkg/errors"
	"marina/pkg/logger"
	"marina/pkg/model"
	"marina/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

type AccountValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAccountValidator(log *logger.Logger) *AccountValidator {
	log.Info("Account validator initialized successfully")
	return &AccountValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *AccountValidator) RequireFields(input *model.AccountInput) error {
	var missing []string
	if strings.TrimSpace(input.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(input.Email) == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return apperrors.MissingFields(missing...)
	}
	return nil
}

func (v *AccountValidator) Validate(account *model.Account) error {
	if err := validation.Struct(v.validate, account); err != nil {
		v.logger.Warn("Account validation failed", "email", account.Email, "error", err)
		if errs, ok := err.(validation.ValidationErrors); ok {
			return apperrors.Validation("Account validation failed", errs.Details())
		}
		return apperrors.Validation("Account validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// ValidatePassword never logs the candidate.
func (v *AccountValidator) ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return apperrors.Validation("Account validation failed", map[string]any{
			"password": "password must be between 6 and 72 characters",
		})
	}
	return nil
}
