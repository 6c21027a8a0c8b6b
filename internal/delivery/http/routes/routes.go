package routes

import (
	"talent-split/internal/delivery/http/handler"
	v1 "talent-split/internal/delivery/http/routes/v1"
	"talent-split/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	deps   v1.Deps
	health *handler.HealthHandler
	wsh    *ws.Handler
}

func NewRegistry(deps v1.Deps, wsh *ws.Handler) *Registry {
	return &Registry{
		deps:   deps,
		health: handler.NewHealthHandler(deps.DB),
		wsh:    wsh,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)
	if r.wsh != nil {
		app.Get("/ws/events", r.wsh.HandleEventsWS)
	}

	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.deps)
}
