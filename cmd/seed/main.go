package main

import (
	"context"
	"os"
	"time"

	"marina/internal/seed"
	"marina/pkg/config"
)

const JobName = "seed"

func main() {
	cfg := config.Load(JobName)
	if !cfg.ResetDB {
		cfg.Log.Info("RESET_DB is not set, nothing to seed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	if err := seed.NewSeeder(cfg).Run(ctx, time.Now()); err != nil {
		cfg.Log.Error("Seeding failed", "error", err)
		cfg.GracefulShutdown()
		os.Exit(1)
	}
	cfg.Log.Info("Database seeded")
}
