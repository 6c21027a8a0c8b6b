package handler

import (
	"talent-split/internal/delivery/http/middleware"
	"talent-split/internal/pkg/jwt"
	"talent-split/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// actorFromCtx reads the identity the auth middleware resolved. A miss means
// the route was wired without the middleware; treat it as unauthorized.
func actorFromCtx(c fiber.Ctx) (usecase.Actor, error) {
	actorID, ok := c.Locals(middleware.CtxActorIDKey).(uuid.UUID)
	if !ok {
		return usecase.Actor{}, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	role, ok := c.Locals(middleware.CtxRoleKey).(jwt.Role)
	if !ok {
		return usecase.Actor{}, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return usecase.Actor{ID: actorID, Role: usecase.Role(role)}, nil
}

func pathUUID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	return id, nil
}
