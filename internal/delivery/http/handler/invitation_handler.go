package handler

import (
	"talent-split/internal/delivery/http/dto"
	"talent-split/internal/delivery/http/middleware"
	"talent-split/internal/pkg/response"
	"talent-split/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type InvitationHandler struct {
	uc usecase.InvitationUsecase
}

type createInvitationRequest struct {
	CandidateID uuid.UUID  `json:"candidate_id"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
}

type acceptInvitationRequest struct {
	Token string `json:"token"`
}

func NewInvitationHandler(uc usecase.InvitationUsecase) *InvitationHandler {
	return &InvitationHandler{uc: uc}
}

func (h *InvitationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/", h.Create)
	r.Post("/:id/accept", h.Accept)
	r.Post("/:id/revoke", h.Revoke)
}

func (h *InvitationHandler) Create(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	if actor.Role != usecase.RoleRecruiter {
		return middleware.NewAppError(fiber.StatusForbidden, "Only recruiters send invitations", nil, nil)
	}

	var req createInvitationRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	view, err := h.uc.Create(c.Context(), actor.ID, req.CandidateID, req.JobID)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.FromInvitationView(view))
}

func (h *InvitationHandler) Accept(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	if actor.Role != usecase.RoleCandidate {
		return middleware.NewAppError(fiber.StatusForbidden, "Only the invited candidate can accept", nil, nil)
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req acceptInvitationRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	rel, err := h.uc.Accept(c.Context(), id, req.Token, actor.ID)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.FromRelationshipView(rel))
}

func (h *InvitationHandler) Revoke(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Revoke(c.Context(), id, actor); err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}
