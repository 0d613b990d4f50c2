package main

import (
	"context"

	accountshandler "marina/internal/accounts/handler"
	accountsrepo "marina/internal/accounts/repository"
	accountsservice "marina/internal/accounts/service"
	accountsvalidator "marina/internal/accounts/validator"
	"marina/internal/auth"
	berthshandler "marina/internal/berths/handler"
	berthsrepo "marina/internal/berths/repository"
	berthsservice "marina/internal/berths/service"
	berthsvalidator "marina/internal/berths/validator"
	"marina/internal/events"
	"marina/internal/health"
	"marina/internal/pages"
	reservationshandler "marina/internal/reservations/handler"
	reservationsrepo "marina/internal/reservations/repository"
	reservationsservice "marina/internal/reservations/service"
	reservationsvalidator "marina/internal/reservations/validator"
	"marina/pkg/app"
	"marina/pkg/config"
	"marina/pkg/contracts"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const ServiceName = "marina"

func main() {
	cfg := config.Load(ServiceName)
	if err := cfg.ValidateAuth(); err != nil {
		cfg.Log.Fatal("Invalid auth configuration", "error", err)
	}

	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	publisher, err := events.NewKafkaPublisher(cfg.Kafka, cfg.Log, registry)
	if err != nil {
		cfg.Log.Fatal("Failed to create event publisher", "error", err)
	}

	cfg.Log.Info("Starting marina service")
	serverApp := app.NewApplication(cfg, registry)
	serverApp.OnShutdown(publisher)
	healthHandler, handlers := initHandlers(cfg, publisher)
	serverApp.SetApp(healthHandler, handlers...)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, publisher events.Publisher) (contracts.Handler, []contracts.Handler) {
	gate := auth.NewGate(cfg.JWTSecret, auth.NewRevoker(cfg.Client.Redis, cfg.Log), cfg.Log)

	berthRepo := berthsrepo.NewMongoBerthRepository(cfg)
	reservationRepo := reservationsrepo.NewMongoReservationRepository(cfg)
	lockRepo := reservationsrepo.NewMongoBerthLockRepository(cfg)
	accountRepo := accountsrepo.NewMongoAccountRepository(cfg)

	berthService := berthsservice.NewBerthService(
		berthRepo,
		reservationRepo,
		berthsvalidator.NewBerthValidator(cfg.Log),
		publisher,
		cfg,
	)
	reservationService := reservationsservice.NewReservationService(
		reservationRepo,
		lockRepo,
		berthService,
		reservationsvalidator.NewReservationValidator(cfg.Log),
		publisher,
		cfg,
	)
	accountService := accountsservice.NewAccountService(
		accountRepo,
		accountsvalidator.NewAccountValidator(cfg.Log),
		auth.NewPasswordHasher(cfg.BcryptCost),
		gate,
		cfg,
	)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	mongoClient := cfg.Client.Mongo
	healthHandler := health.NewHealthHandler(
		func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		cfg.MongoDatabaseName,
		map[string]health.Counter{
			berthsrepo.CollectionName:       berthRepo,
			reservationsrepo.CollectionName: reservationRepo,
			accountsrepo.CollectionName:     accountRepo,
		},
		cfg.Log,
	)

	return healthHandler, []contracts.Handler{
		berthshandler.NewBerthHandler(berthService, gate.RequireAPI, cfg.Log),
		reservationshandler.NewReservationHandler(reservationService, gate.RequireAPI, cfg.Log),
		accountshandler.NewAccountHandler(accountService, gate.RequireAPI, cfg.Log),
		pages.NewPageHandler(berthService, reservationService, accountService, gate, cfg.CookieSecure, cfg.Log),
	}
}
