package main

import (
	"context"
	"log"
	"os"
	"time"

	"talent-split/internal/app"
	"talent-split/internal/config"
	"talent-split/internal/pkg/keylock"
	"talent-split/internal/repository"
	"talent-split/internal/usecase"
)

// One-shot relationship expiry sweep, for cron or manual runs.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	c, err := app.NewContainer(cfg)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Printf("cleanup error: %v", err)
		}
	}()

	relUC := usecase.NewRelationshipUsecase(
		repository.NewPostgresRelationshipRepository(c.DB),
		keylock.New(),
		nil,
		cfg.Engine.LockTimeout,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	n, err := relUC.SweepExpired(ctx)
	if err != nil {
		log.Printf("sweep failed: %v", err)
		os.Exit(1)
	}
	log.Printf("sweep complete | expired=%d", n)
}
