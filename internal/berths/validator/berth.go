package validator

import (
	"strings"

	apperrors "marina/pkg/errors"
	"marina/pkg/logger"
	"marina/pkg/model"
	"marina/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BerthValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBerthValidator(log *logger.Logger) *BerthValidator {
	log.Info("Berth validator initialized successfully")
	return &BerthValidator{
		validate: validation.New(),
		logger:   log,
	}
}

// RequireFields reports a missing number or category.
func (v *BerthValidator) RequireFields(input *model.BerthInput) error {
	var missing []string
	if input.Number == nil {
		missing = append(missing, "number")
	}
	if strings.TrimSpace(input.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return apperrors.MissingFields(missing...)
	}
	return nil
}

func (v *BerthValidator) Validate(berth *model.Berth) error {
	if err := validation.Struct(v.validate, berth); err != nil {
		v.logger.Warn("Berth validation failed", "number", berth.Number, "error", err)
		if errs, ok := err.(validation.ValidationErrors); ok {
			return apperrors.Validation("Berth validation failed", errs.Details())
		}
		return apperrors.Validation("Berth validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (v *BerthValidator) ValidateStatus(status string) error {
	if err := v.validate.Var(status, "max=500"); err != nil {
		return apperrors.Validation("Berth validation failed", map[string]any{
			"status": "status must be at most 500 characters",
		})
	}
	return nil
}
