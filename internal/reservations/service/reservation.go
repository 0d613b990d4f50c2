package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"marina/internal/events"
	reservationserrors "marina/internal/reservations/errors"
	"marina/internal/reservations/repository"
	"marina/internal/reservations/validator"
	"marina/pkg/config"
	apperrors "marina/pkg/errors"
	"marina/pkg/model"
	"marina/pkg/sanitizer"

	"github.com/google/uuid"
)

// BerthChecker reports whether a berth with the given number exists.
type BerthChecker interface {
	Exists(ctx context.Context, number int) (bool, error)
}

type ReservationService interface {
	Create(ctx context.Context, berthNumber int, input *model.ReservationInput) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetForBerth(ctx context.Context, berthNumber int, id string) (*model.Reservation, error)
	ListForBerth(ctx context.Context, berthNumber int) ([]*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	Update(ctx context.Context, berthNumber int, id string, input *model.ReservationInput) (*model.Reservation, error)
	Delete(ctx context.Context, berthNumber int, id string) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.BerthLockRepository
	berths    BerthChecker
	validator *validator.ReservationValidator
	publisher events.Publisher
	cfg       *config.Config

	lockAttempts   int
	lockRetryDelay time.Duration
}

const (
	defaultLockAttempts   = 5
	defaultLockRetryDelay = 50 * time.Millisecond
)

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.BerthLockRepository,
	berths BerthChecker,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		berths:    berths,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,

		lockAttempts:   defaultLockAttempts,
		lockRetryDelay: defaultLockRetryDelay,
	}
}

func (s *reservationService) Create(ctx context.Context, berthNumber int, input *model.ReservationInput) (*model.Reservation, error) {
	if err := s.validator.RequireFields(input); err != nil {
		return nil, err
	}
	start, end, err := validator.ValidateRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		BerthNumber: berthNumber,
		ClientName:  input.ClientName,
		VesselName:  input.VesselName,
		StartDate:   start,
		EndDate:     end,
	}
	s.sanitize(reservation)
	if err := s.validator.Validate(reservation); err != nil {
		return nil, err
	}

	exists, err := s.berths.Exists(ctx, berthNumber)
	if err != nil {
		return nil, apperrors.Internal("Failed to check berth existence", err)
	}
	if !exists {
		return nil, apperrors.NotFoundWithID("Berth", strconv.Itoa(berthNumber))
	}

	err = s.withBerthLock(ctx, berthNumber, func() error {
		if err := s.verifyNoOverlap(ctx, reservation, ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Reservation not created", "berth_number", berthNumber, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"berth_number", reservation.BerthNumber,
		"start_date", reservation.StartDate,
		"end_date", reservation.EndDate,
	)
	s.publish(ctx, events.ReservationCreated, reservation)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateLookupError(err, id)
	}
	return reservation, nil
}

// GetForBerth treats a reservation filed under another berth as absent.
func (s *reservationService) GetForBerth(ctx context.Context, berthNumber int, id string) (*model.Reservation, error) {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.BerthNumber != berthNumber {
		return nil, apperrors.NotFoundWithID("Reservation", id)
	}
	return reservation, nil
}

func (s *reservationService) ListForBerth(ctx context.Context, berthNumber int) ([]*model.Reservation, error) {
	reservations, err := s.repo.FindByBerth(ctx, berthNumber)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservations", "berth_number", berthNumber, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}
	return reservations, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// Update merges the non-blank input fields into the stored reservation.
// Dates that are not supplied keep their stored value.
func (s *reservationService) Update(ctx context.Context, berthNumber int, id string, input *model.ReservationInput) (*model.Reservation, error) {
	existing, err := s.GetForBerth(ctx, berthNumber, id)
	if err != nil {
		return nil, err
	}

	merged, err := s.merge(existing, input)
	if err != nil {
		return nil, err
	}
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		return nil, err
	}

	err = s.withBerthLock(ctx, berthNumber, func() error {
		if err := s.verifyNoOverlap(ctx, merged, id); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, id, merged); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to update reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Reservation not updated", "id", id, "berth_number", berthNumber, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Reservation updated successfully", "id", id, "berth_number", berthNumber)
	s.publish(ctx, events.ReservationUpdated, merged)
	return merged, nil
}

func (s *reservationService) Delete(ctx context.Context, berthNumber int, id string) error {
	existing, err := s.GetForBerth(ctx, berthNumber, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translateLookupError(err, id)
	}

	s.cfg.Log.Info("Reservation deleted successfully", "id", id, "berth_number", berthNumber)
	s.publish(ctx, events.ReservationDeleted, existing)
	return nil
}

// --- Helpers ---

func (s *reservationService) translateLookupError(err error, id string) error {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound), errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.NotFoundWithID("Reservation", id)
	default:
		s.cfg.Log.Error("Failed to retrieve reservation", "id", id, "error", err)
		return apperrors.Internal("Failed to retrieve reservation", err)
	}
}

func (s *reservationService) merge(existing *model.Reservation, input *model.ReservationInput) (*model.Reservation, error) {
	merged := *existing

	if input.ClientName != "" {
		merged.ClientName = input.ClientName
	}
	if input.VesselName != "" {
		merged.VesselName = input.VesselName
	}
	if input.StartDate != "" {
		start, err := validator.ParseInstant(input.StartDate)
		if err != nil {
			return nil, apperrors.InvalidRange("start_date must be a valid timestamp")
		}
		merged.StartDate = start
	}
	if input.EndDate != "" {
		end, err := validator.ParseInstant(input.EndDate)
		if err != nil {
			return nil, apperrors.InvalidRange("end_date must be a valid timestamp")
		}
		merged.EndDate = end
	}

	return &merged, nil
}

func (s *reservationService) sanitize(r *model.Reservation) {
	r.ClientName = sanitizer.SanitizeText(r.ClientName)
	r.VesselName = sanitizer.SanitizeText(r.VesselName)
}

func (s *reservationService) verifyNoOverlap(ctx context.Context, reservation *model.Reservation, excludeID string) error {
	candidates, err := s.repo.FindOverlapping(ctx, reservation.BerthNumber, reservation.StartDate, reservation.EndDate, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}

	for _, other := range candidates {
		if other.ID == excludeID {
			continue
		}
		if validator.Overlaps(other.StartDate, other.EndDate, reservation.StartDate, reservation.EndDate) {
			return apperrors.Conflict(fmt.Sprintf(
				"Berth %d is already reserved from %s to %s",
				reservation.BerthNumber,
				other.StartDate.Format(time.RFC3339),
				other.EndDate.Format(time.RFC3339),
			)).WithDetails(map[string]any{"reservation_id": other.ID})
		}
	}
	return nil
}

func (s *reservationService) withBerthLock(ctx context.Context, berthNumber int, fn func() error) error {
	lock, err := s.acquireBerthLock(ctx, berthNumber)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lock); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release berth lock", "lock_id", lock.ID, "error", releaseErr)
		}
	}()

	return fn()
}

// acquireBerthLock waits briefly for a concurrent writer on the same berth to
// finish before giving up with Conflict.
func (s *reservationService) acquireBerthLock(ctx context.Context, berthNumber int) (*model.BerthLock, error) {
	holder := uuid.NewString()
	for attempt := 1; ; attempt++ {
		lock, err := s.lockRepo.Acquire(ctx, berthNumber, holder)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, reservationserrors.ErrLockHeld) {
			return nil, apperrors.Internal("Failed to acquire berth lock", err)
		}
		if attempt >= s.lockAttempts {
			s.cfg.Log.Warn("Berth lock still held, giving up", "berth_number", berthNumber, "attempts", attempt)
			return nil, apperrors.Conflict("This berth is being booked by another request. Please try again.")
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.Conflict("This berth is being booked by another request. Please try again.")
		case <-time.After(s.lockRetryDelay):
		}
	}
}

func (s *reservationService) publish(ctx context.Context, eventType string, r *model.Reservation) {
	event := events.New(eventType, r.BerthNumber, r.ID, r)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event", "type", eventType, "id", r.ID, "error", err)
	}
}
