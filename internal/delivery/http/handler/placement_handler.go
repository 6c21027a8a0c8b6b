package handler

import (
	"talent-split/internal/delivery/http/dto"
	"talent-split/internal/pkg/response"
	"talent-split/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type PlacementHandler struct {
	uc usecase.PlacementUsecase
}

func NewPlacementHandler(uc usecase.PlacementUsecase) *PlacementHandler {
	return &PlacementHandler{uc: uc}
}

func (h *PlacementHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.List)
	r.Get("/by-application/:id", h.GetByApplication)
}

func (h *PlacementHandler) List(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}

	views, err := h.uc.List(c.Context(), actor, queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	res := make([]dto.PlacementResponse, 0, len(views))
	for _, v := range views {
		res = append(res, dto.FromPlacementView(v))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *PlacementHandler) GetByApplication(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.uc.GetByApplication(c.Context(), id, actor)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromPlacementView(view))
}
