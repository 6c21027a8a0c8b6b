package handler

import (
	"talent-split/internal/delivery/http/dto"
	"talent-split/internal/delivery/http/middleware"
	"talent-split/internal/domain/relationship"
	"talent-split/internal/pkg/response"
	"talent-split/internal/repository"
	"talent-split/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type RelationshipHandler struct {
	uc usecase.RelationshipUsecase
}

type establishRequest struct {
	RecruiterID   uuid.UUID  `json:"recruiter_id"`
	CandidateID   uuid.UUID  `json:"candidate_id"`
	JobID         *uuid.UUID `json:"job_id,omitempty"`
	ConsentSource string     `json:"consent_source"`
}

func NewRelationshipHandler(uc usecase.RelationshipUsecase) *RelationshipHandler {
	return &RelationshipHandler{uc: uc}
}

func (h *RelationshipHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/", h.Establish)
	r.Get("/", h.List)
	r.Get("/:id", h.Get)
	r.Post("/:id/terminate", h.Terminate)
}

func (h *RelationshipHandler) Establish(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}

	var req establishRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if actor.Role == usecase.RoleRecruiter && actor.ID != req.RecruiterID {
		return middleware.NewAppError(fiber.StatusForbidden, "Recruiters establish only their own relationships", nil, nil)
	}

	view, err := h.uc.Establish(c.Context(), usecase.EstablishParams{
		RecruiterID:   req.RecruiterID,
		CandidateID:   req.CandidateID,
		JobID:         req.JobID,
		ConsentSource: req.ConsentSource,
	})
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.FromRelationshipView(view))
}

func (h *RelationshipHandler) Get(c fiber.Ctx) error {
	if _, err := actorFromCtx(c); err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromRelationshipView(view))
}

func (h *RelationshipHandler) List(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}

	filter := repository.RelationshipListFilter{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	if v, ok := queryUUID(c, "candidate_id"); ok {
		filter.CandidateID = &v
	}
	if raw := c.Query("status"); raw != "" {
		st := relationship.Status(raw)
		filter.Status = &st
	}
	// Recruiters only ever see their own ledger entries.
	if actor.Role == usecase.RoleRecruiter {
		id := actor.ID
		filter.RecruiterID = &id
	} else if v, ok := queryUUID(c, "recruiter_id"); ok {
		filter.RecruiterID = &v
	}

	views, err := h.uc.List(c.Context(), filter)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	res := make([]dto.RelationshipResponse, 0, len(views))
	for _, v := range views {
		res = append(res, dto.FromRelationshipView(v))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *RelationshipHandler) Terminate(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Terminate(c.Context(), id, actor); err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}
