package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	berthserrors "marina/internal/berths/errors"
	"marina/internal/berths/repository"
	"marina/internal/berths/validator"
	"marina/internal/events"
	"marina/pkg/config"
	apperrors "marina/pkg/errors"
	"marina/pkg/model"
	"marina/pkg/sanitizer"
)

// ActiveReservationFinder returns reservations whose range contains at.
type ActiveReservationFinder interface {
	FindActiveAt(ctx context.Context, at time.Time) ([]*model.Reservation, error)
}

type BerthService interface {
	List(ctx context.Context) ([]*model.BerthView, error)
	GetByNumber(ctx context.Context, number int) (*model.BerthView, error)
	Create(ctx context.Context, input *model.BerthInput) (*model.Berth, error)
	UpdateStatus(ctx context.Context, number int, update *model.BerthStatusUpdate) (*model.Berth, error)
	Delete(ctx context.Context, number int) error
	Exists(ctx context.Context, number int) (bool, error)
}

type berthService struct {
	repo         repository.BerthRepository
	reservations ActiveReservationFinder
	validator    *validator.BerthValidator
	publisher    events.Publisher
	cfg          *config.Config
	now          func() time.Time
}

func NewBerthService(
	repo repository.BerthRepository,
	reservations ActiveReservationFinder,
	validator *validator.BerthValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BerthService {
	return &berthService{
		repo:         repo,
		reservations: reservations,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// List annotates every berth with the reservation active right now.
func (s *berthService) List(ctx context.Context) ([]*model.BerthView, error) {
	now := s.now()

	var berths []*model.Berth
	var active []*model.Reservation
	var errBerths, errActive error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		berths, errBerths = s.repo.FindAll(ctx)
		if errBerths != nil {
			s.cfg.Log.Error("Failed to list berths", "error", errBerths)
			errBerths = apperrors.Internal("Failed to retrieve berths", errBerths)
		}
	}()

	go func() {
		defer wg.Done()
		active, errActive = s.reservations.FindActiveAt(ctx, now)
		if errActive != nil {
			s.cfg.Log.Error("Failed to list active reservations", "error", errActive)
			errActive = apperrors.Internal("Failed to retrieve reservations", errActive)
		}
	}()

	wg.Wait()
	if errBerths != nil {
		return nil, errBerths
	}
	if errActive != nil {
		return nil, errActive
	}

	current := indexByBerth(active)
	views := make([]*model.BerthView, 0, len(berths))
	for _, b := range berths {
		views = append(views, &model.BerthView{Berth: *b, CurrentReservation: current[b.Number]})
	}
	return views, nil
}

func (s *berthService) GetByNumber(ctx context.Context, number int) (*model.BerthView, error) {
	berth, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, s.translateError(err, number, "Failed to retrieve berth")
	}

	active, err := s.reservations.FindActiveAt(ctx, s.now())
	if err != nil {
		s.cfg.Log.Error("Failed to list active reservations", "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}

	return &model.BerthView{Berth: *berth, CurrentReservation: indexByBerth(active)[number]}, nil
}

func (s *berthService) Create(ctx context.Context, input *model.BerthInput) (*model.Berth, error) {
	if err := s.validator.RequireFields(input); err != nil {
		return nil, err
	}

	berth := &model.Berth{
		Number:   *input.Number,
		Category: sanitizer.SanitizeEnum(input.Category),
		Status:   sanitizer.SanitizeText(input.Status),
	}
	if err := s.validator.Validate(berth); err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, berth.Number)
	if err != nil {
		return nil, apperrors.Internal("Failed to check berth existence", err)
	}
	if exists {
		return nil, duplicate(berth.Number)
	}

	if err := s.repo.Create(ctx, berth); err != nil {
		if errors.Is(err, berthserrors.ErrDuplicate) {
			return nil, duplicate(berth.Number)
		}
		s.cfg.Log.Error("Failed to create berth", "number", berth.Number, "error", err)
		return nil, apperrors.Internal("Failed to create berth", err)
	}

	s.cfg.Log.Info("Berth created successfully", "number", berth.Number, "category", berth.Category)
	s.publish(ctx, events.BerthCreated, berth.Number, berth.ID, berth)
	return berth, nil
}

// UpdateStatus changes only the status; number and category are fixed.
func (s *berthService) UpdateStatus(ctx context.Context, number int, update *model.BerthStatusUpdate) (*model.Berth, error) {
	if update.Status == nil {
		return nil, apperrors.MissingFields("status")
	}

	status := sanitizer.SanitizeText(*update.Status)
	if err := s.validator.ValidateStatus(status); err != nil {
		return nil, err
	}

	berth, err := s.repo.UpdateStatus(ctx, number, status)
	if err != nil {
		return nil, s.translateError(err, number, "Failed to update berth")
	}

	s.cfg.Log.Info("Berth status updated", "number", number)
	s.publish(ctx, events.BerthUpdated, number, berth.ID, berth)
	return berth, nil
}

// Delete leaves the berth's reservations in place.
func (s *berthService) Delete(ctx context.Context, number int) error {
	if err := s.repo.Delete(ctx, number); err != nil {
		return s.translateError(err, number, "Failed to delete berth")
	}

	s.cfg.Log.Info("Berth deleted successfully", "number", number)
	s.publish(ctx, events.BerthDeleted, number, "", nil)
	return nil
}

func (s *berthService) Exists(ctx context.Context, number int) (bool, error) {
	return s.repo.Exists(ctx, number)
}

// --- Helpers ---

func (s *berthService) translateError(err error, number int, message string) error {
	if errors.Is(err, berthserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Berth", strconv.Itoa(number))
	}
	s.cfg.Log.Error(message, "number", number, "error", err)
	return apperrors.Internal(message, err)
}

func (s *berthService) publish(ctx context.Context, eventType string, number int, id string, payload any) {
	if err := s.publisher.Publish(ctx, events.New(eventType, number, id, payload)); err != nil {
		s.cfg.Log.Warn("Failed to publish berth event", "type", eventType, "number", number, "error", err)
	}
}

func duplicate(number int) error {
	return apperrors.Conflict(fmt.Sprintf("Berth %d already exists", number))
}

// indexByBerth keeps the earliest-starting active reservation per berth.
func indexByBerth(active []*model.Reservation) map[int]*model.Reservation {
	index := make(map[int]*model.Reservation, len(active))
	for _, r := range active {
		if prev, ok := index[r.BerthNumber]; !ok || r.StartDate.Before(prev.StartDate) {
			index[r.BerthNumber] = r
		}
	}
	return index
}
