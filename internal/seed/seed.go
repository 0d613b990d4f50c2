package seed

import (
	"context"
	"fmt"
	"time"

	accountsrepo "marina/internal/accounts/repository"
	"marina/internal/auth"
	berthsrepo "marina/internal/berths/repository"
	reservationsrepo "marina/internal/reservations/repository"
	"marina/pkg/config"
	"marina/pkg/logger"
	"marina/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DemoEmail    = "john@example.com"
	DemoPassword = "123456"
	DemoUsername = "john"

	berthCount = 12
	day        = 24 * time.Hour
)

type Seeder struct {
	db           *mongo.Database
	berths       berthsrepo.BerthRepository
	reservations reservationsrepo.ReservationRepository
	accounts     accountsrepo.AccountRepository
	hasher       *auth.PasswordHasher
	log          *logger.Logger
}

func NewSeeder(cfg *config.Config) *Seeder {
	return &Seeder{
		db:           cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
		berths:       berthsrepo.NewMongoBerthRepository(cfg),
		reservations: reservationsrepo.NewMongoReservationRepository(cfg),
		accounts:     accountsrepo.NewMongoAccountRepository(cfg),
		hasher:       auth.NewPasswordHasher(cfg.BcryptCost),
		log:          cfg.Log,
	}
}

// Run wipes every collection and loads the demo data set.
func (s *Seeder) Run(ctx context.Context, now time.Time) error {
	for _, name := range []string{
		berthsrepo.CollectionName,
		reservationsrepo.CollectionName,
		reservationsrepo.LockCollectionName,
		accountsrepo.CollectionName,
	} {
		result, err := s.db.Collection(name).DeleteMany(ctx, bson.M{})
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
		s.log.Info("Collection cleared", "collection", name, "deleted", result.DeletedCount)
	}

	for _, berth := range SampleBerths() {
		if err := s.berths.Create(ctx, berth); err != nil {
			return fmt.Errorf("failed to seed berth %d: %w", berth.Number, err)
		}
	}

	reservations := SampleReservations(now)
	for _, reservation := range reservations {
		if err := s.reservations.Create(ctx, reservation); err != nil {
			return fmt.Errorf("failed to seed reservation on berth %d: %w", reservation.BerthNumber, err)
		}
	}
	s.log.Info("Berths and reservations imported", "berths", berthCount, "reservations", len(reservations))

	hash, err := s.hasher.Hash(DemoPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.Create(ctx, &model.Account{
		Username:     DemoUsername,
		Email:        DemoEmail,
		PasswordHash: hash,
	}); err != nil {
		return fmt.Errorf("failed to seed demo account: %w", err)
	}
	s.log.Info("Demo account created", "email", DemoEmail)

	return nil
}

func SampleBerths() []*model.Berth {
	berths := make([]*model.Berth, 0, berthCount)
	for n := 1; n <= berthCount; n++ {
		category := model.BerthCategoryShort
		if n%3 == 0 {
			category = model.BerthCategoryLong
		}
		status := "good condition"
		if n == 8 {
			status = "damaged mooring ring, repair scheduled"
		}
		berths = append(berths, &model.Berth{Number: n, Category: category, Status: status})
	}
	return berths
}

// SampleReservations places a few bookings around now so the dashboard shows
// both occupied and free berths.
func SampleReservations(now time.Time) []*model.Reservation {
	today := now.UTC().Truncate(day)
	at := func(offsetDays int) time.Time { return today.Add(time.Duration(offsetDays) * day) }

	return []*model.Reservation{
		{BerthNumber: 1, ClientName: "Thomas Martin", VesselName: "Sea Breeze", StartDate: at(-2), EndDate: at(3)},
		{BerthNumber: 1, ClientName: "Julie Bernard", VesselName: "Albatross", StartDate: at(4), EndDate: at(8)},
		{BerthNumber: 3, ClientName: "Marc Dubois", VesselName: "Northern Star", StartDate: at(1), EndDate: at(5)},
		{BerthNumber: 5, ClientName: "Claire Petit", VesselName: "Blue Horizon", StartDate: at(-10), EndDate: at(-5)},
		{BerthNumber: 6, ClientName: "Paul Moreau", VesselName: "Kestrel", StartDate: at(-1), EndDate: at(1)},
		{BerthNumber: 9, ClientName: "Anne Laurent", VesselName: "Wanderer", StartDate: at(-3), EndDate: at(14)},
	}
}
