package v1

import (
	"talent-split/internal/config"
	"talent-split/internal/database"
	"talent-split/internal/delivery/http/handler"
	"talent-split/internal/delivery/http/middleware"
	"talent-split/internal/pkg/jwt"
	"talent-split/internal/pkg/keylock"
	"talent-split/internal/repository"
	"talent-split/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// Deps is the shared infrastructure the route tree wires usecases onto.
type Deps struct {
	Cfg    config.Config
	DB     database.DB
	Cache  usecase.ListCache
	Events usecase.EventPublisher
	Locks  *keylock.KeyLock
}

func Register(r fiber.Router, deps Deps) {
	if r == nil {
		return
	}

	jwtSvc := jwt.NewHMACService(deps.Cfg.JWT.Secret, deps.Cfg.JWT.ExpiresIn)
	authMw := middleware.NewAuthMiddleware(jwtSvc)

	appRepo := repository.NewPostgresApplicationRepository(deps.DB)
	relRepo := repository.NewPostgresRelationshipRepository(deps.DB)
	jobRepo := repository.NewPostgresJobRepository(deps.DB)
	docRepo := repository.NewPostgresDocumentRepository(deps.DB)
	subRepo := repository.NewPostgresSubscriptionRepository(deps.DB)
	recRepo := repository.NewPostgresRecruiterRepository(deps.DB)
	invRepo := repository.NewPostgresInvitationRepository(deps.DB)
	plcRepo := repository.NewPostgresPlacementRepository(deps.DB)

	relUC := usecase.NewRelationshipUsecase(relRepo, deps.Locks, deps.Events, deps.Cfg.Engine.LockTimeout)
	appUC := usecase.NewApplicationUsecase(
		appRepo, jobRepo, relRepo, docRepo, subRepo, relUC,
		deps.Locks, deps.Cache, deps.Events,
		usecase.ApplicationsConfig{
			LockTimeout: deps.Cfg.Engine.LockTimeout,
			BulkWorkers: deps.Cfg.Engine.BulkWorkers,
			CacheTTL:    deps.Cfg.Engine.ListCacheTTL,
		},
	)
	prescreenUC := usecase.NewPreScreenUsecase(appRepo, recRepo, relUC, deps.Locks, deps.Cfg.Engine.LockTimeout)
	invUC := usecase.NewInvitationUsecase(invRepo, jobRepo, relUC)
	plcUC := usecase.NewPlacementUsecase(plcRepo)

	appHandler := handler.NewApplicationHandler(appUC, prescreenUC)
	relHandler := handler.NewRelationshipHandler(relUC)
	invHandler := handler.NewInvitationHandler(invUC)
	plcHandler := handler.NewPlacementHandler(plcUC)

	protected := r.Group("", authMw.Middleware())

	appHandler.RegisterRoutes(protected.Group("/applications"))
	relHandler.RegisterRoutes(protected.Group("/relationships"))
	invHandler.RegisterRoutes(protected.Group("/invitations"))
	plcHandler.RegisterRoutes(protected.Group("/placements"))
}
