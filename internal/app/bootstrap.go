package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"talent-split/internal/config"
	"talent-split/internal/database/migration"
	"talent-split/internal/database/schema"
	"talent-split/internal/delivery/http/middleware"
	"talent-split/internal/delivery/http/routes"
	v1 "talent-split/internal/delivery/http/routes/v1"
	"talent-split/internal/pkg/keylock"
	"talent-split/internal/repository"
	"talent-split/internal/usecase"
	"talent-split/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

func Bootstrap(cfg config.Config) (*App, func() error, error) {
	c, err := NewContainer(cfg)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	runner := migration.Runner{Dir: "migrations"}
	if err := runner.Run(ctx, c.DB.SQLDB()); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	if err := schema.VerifyCore(ctx, c.DB); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("schema verification: %w", err)
	}

	hub := ws.NewHub(c.Logger)
	go hub.Run()

	deps := v1.Deps{
		Cfg:    cfg,
		DB:     c.DB,
		Cache:  c.Cache,
		Events: ws.NewPublisher(hub),
		Locks:  keylock.New(),
	}

	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})
	f.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())
	f.Use(middleware.NewErrorMiddleware().Middleware())

	routes.NewRegistry(deps, ws.NewHandler(hub, c.Logger)).Register(f)

	stopSweeper := startSweeper(c, deps, cfg.Engine.SweepInterval)

	cleanup := func() error {
		stopSweeper()
		return c.Close()
	}
	return &App{Fiber: f}, cleanup, nil
}

// startSweeper runs the relationship expiry sweep on a fixed interval so the
// ledger converges even when nobody reads the lapsed rows.
func startSweeper(c *Container, deps v1.Deps, interval time.Duration) func() {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	relUC := usecase.NewRelationshipUsecase(
		repository.NewPostgresRelationshipRepository(c.DB),
		deps.Locks,
		deps.Events,
		c.Config.Engine.LockTimeout,
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := relUC.SweepExpired(ctx)
				cancel()
				if err != nil {
					c.Logger.Printf("sweep error | error=%v", err)
					continue
				}
				if n > 0 {
					c.Logger.Printf("sweep expired relationships | count=%d", n)
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
