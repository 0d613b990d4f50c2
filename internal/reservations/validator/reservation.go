package validator

import (
	"fmt"
	"strings"
	"time"

	apperrors "marina/pkg/errors"
	"marina/pkg/logger"
	"marina/pkg/model"
	"marina/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// Accepted instant layouts. Values without a zone are read as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	log.Info("Reservation validator initialized successfully")
	return &ReservationValidator{
		validate: validation.New(),
		logger:   log,
	}
}

// ParseInstant parses a client supplied timestamp.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ValidateRange parses both bounds and requires start strictly before end.
func ValidateRange(start, end string) (time.Time, time.Time, error) {
	s, errStart := ParseInstant(start)
	e, errEnd := ParseInstant(end)
	if errStart != nil || errEnd != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidRange("start_date and end_date must be valid timestamps")
	}
	if err := ValidateInterval(s, e); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}

func ValidateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return apperrors.InvalidRange("start_date must be before end_date")
	}
	return nil
}

// Overlaps is the closed-interval test: touching endpoints overlap.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return !start1.After(end2) && !start2.After(end1)
}

// RequireFields reports every blank field of a creation request.
func (v *ReservationValidator) RequireFields(input *model.ReservationInput) error {
	var missing []string
	if strings.TrimSpace(input.ClientName) == "" {
		missing = append(missing, "client_name")
	}
	if strings.TrimSpace(input.VesselName) == "" {
		missing = append(missing, "vessel_name")
	}
	if strings.TrimSpace(input.StartDate) == "" {
		missing = append(missing, "start_date")
	}
	if strings.TrimSpace(input.EndDate) == "" {
		missing = append(missing, "end_date")
	}
	if len(missing) > 0 {
		return apperrors.MissingFields(missing...)
	}
	return nil
}

// Validate checks a fully assembled reservation before it is written.
func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	if err := ValidateInterval(reservation.StartDate, reservation.EndDate); err != nil {
		return err
	}
	if err := validation.Struct(v.validate, reservation); err != nil {
		v.logger.Warn("Reservation validation failed", "berth_number", reservation.BerthNumber, "error", err)
		if errs, ok := err.(validation.ValidationErrors); ok {
			return apperrors.Validation("Reservation validation failed", errs.Details())
		}
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
