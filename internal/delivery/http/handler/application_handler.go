package handler

import (
	"errors"
	"strconv"

	"talent-split/internal/delivery/http/dto"
	"talent-split/internal/delivery/http/middleware"
	"talent-split/internal/domain/application"
	"talent-split/internal/pkg/response"
	"talent-split/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ApplicationHandler struct {
	uc        usecase.ApplicationUsecase
	prescreen usecase.PreScreenUsecase
}

type createApplicationRequest struct {
	CandidateID     uuid.UUID  `json:"candidate_id"`
	JobID           uuid.UUID  `json:"job_id"`
	RecruiterID     *uuid.UUID `json:"recruiter_id,omitempty"`
	PrimaryResumeID *uuid.UUID `json:"primary_resume_id,omitempty"`
	Notes           string     `json:"notes"`
	ConsentSource   string     `json:"consent_source"`
}

type transitionRequest struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

type bulkTransitionRequest struct {
	ApplicationIDs []uuid.UUID `json:"application_ids"`
	Target         string      `json:"target"`
	Reason         string      `json:"reason"`
}

type prescreenRequest struct {
	RecruiterID *uuid.UUID `json:"recruiter_id,omitempty"`
}

func NewApplicationHandler(uc usecase.ApplicationUsecase, prescreen usecase.PreScreenUsecase) *ApplicationHandler {
	return &ApplicationHandler{uc: uc, prescreen: prescreen}
}

func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/:id", h.Get)
	r.Get("/:id/history", h.History)
	r.Post("/:id/transition", h.Transition)
	r.Post("/bulk-transition", h.BulkTransition)
	r.Post("/:id/accept", h.Accept)
	r.Post("/:id/prescreen", h.RequestPreScreen)
}

func (h *ApplicationHandler) Create(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}

	var req createApplicationRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	view, err := h.uc.Create(c.Context(), usecase.CreateApplicationParams{
		CandidateID:     req.CandidateID,
		JobID:           req.JobID,
		RecruiterID:     req.RecruiterID,
		PrimaryResumeID: req.PrimaryResumeID,
		Notes:           req.Notes,
		ConsentSource:   req.ConsentSource,
	}, actor)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.FromApplicationView(view))
}

func (h *ApplicationHandler) Get(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.uc.Get(c.Context(), id, actor)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromApplicationView(view))
}

func (h *ApplicationHandler) List(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}

	params := usecase.ApplicationListParams{
		Stage:  c.Query("stage"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	if v, ok := queryUUID(c, "job_id"); ok {
		params.JobID = &v
	}
	if v, ok := queryUUID(c, "recruiter_id"); ok {
		params.RecruiterID = &v
	}
	if v, ok := queryUUID(c, "candidate_id"); ok {
		params.CandidateID = &v
	}

	views, err := h.uc.List(c.Context(), params, actor)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	res := make([]dto.ApplicationResponse, 0, len(views))
	for _, v := range views {
		res = append(res, dto.FromApplicationView(v))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *ApplicationHandler) History(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	events, err := h.uc.History(c.Context(), id, actor)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}

	res := make([]dto.StageEventResponse, 0, len(events))
	for _, ev := range events {
		res = append(res, dto.StageEventResponse{
			ID:         ev.ID,
			ActorID:    ev.ActorID,
			FromStage:  string(ev.FromStage),
			ToStage:    string(ev.ToStage),
			Reason:     ev.Reason,
			OccurredAt: ev.OccurredAt,
		})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *ApplicationHandler) Transition(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req transitionRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	target, ok := application.ParseStage(req.Target)
	if !ok {
		return middleware.NewAppError(fiber.StatusBadRequest, "Unknown stage", nil, nil)
	}

	view, err := h.uc.Transition(c.Context(), id, target, actor, req.Reason)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromApplicationView(view))
}

func (h *ApplicationHandler) BulkTransition(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}

	var req bulkTransitionRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if len(req.ApplicationIDs) == 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "Empty application_ids", nil, nil)
	}
	target, ok := application.ParseStage(req.Target)
	if !ok {
		return middleware.NewAppError(fiber.StatusBadRequest, "Unknown stage", nil, nil)
	}

	results := h.uc.BulkTransition(c.Context(), req.ApplicationIDs, target, actor, req.Reason)

	res := make([]dto.BulkTransitionItemResponse, 0, len(results))
	for _, r := range results {
		res = append(res, dto.BulkTransitionItemResponse{
			ApplicationID: r.ApplicationID,
			OK:            r.OK,
			Error:         r.Error,
		})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *ApplicationHandler) Accept(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	if actor.Role != usecase.RoleCompany && actor.Role != usecase.RoleAdmin {
		return middleware.NewAppError(fiber.StatusForbidden, "Only the company can accept", nil, nil)
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.uc.Accept(c.Context(), id, actor)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromApplicationView(view))
}

func (h *ApplicationHandler) RequestPreScreen(c fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req prescreenRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	result, err := h.prescreen.RequestPreScreen(c.Context(), id, req.RecruiterID, actor)
	if err != nil {
		return mapApplicationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.PreScreenResponse{
		ApplicationID:  result.ApplicationID,
		RecruiterID:    result.RecruiterID,
		RelationshipID: result.RelationshipID,
	})
}

func queryInt(c fiber.Ctx, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func queryUUID(c fiber.Ctx, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, false
	}
	v, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return v, true
}

func mapApplicationUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	var transition *usecase.TransitionError
	if errors.As(err, &transition) {
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Invalid transition", fiber.Map{
			"current": string(transition.Current),
			"target":  string(transition.Target),
		}, err)
	}
	var precondition *usecase.PreconditionError
	if errors.As(err, &precondition) {
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Precondition failed", fiber.Map{
			"reason": precondition.Reason,
		}, err)
	}
	var conflict *usecase.ConflictError
	if errors.As(err, &conflict) {
		return middleware.NewAppError(fiber.StatusConflict, "Candidate already represented", dto.ConflictResponse{
			RelationshipID: conflict.RelationshipID,
			RecruiterID:    conflict.RecruiterID,
		}, err)
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidTransition):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Invalid transition", nil, err)
	case errors.Is(err, usecase.ErrPreconditionFailed):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Precondition failed", nil, err)
	case errors.Is(err, usecase.ErrConflict):
		return middleware.NewAppError(fiber.StatusConflict, response.MessageConflict, nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, response.MessageNotFound, nil, err)
	case errors.Is(err, usecase.ErrBusy):
		return middleware.NewAppError(fiber.StatusTooManyRequests, response.MessageBusy, nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, response.MessageUnauthorized, nil, err)
	case errors.Is(err, usecase.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, response.MessageForbidden, nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
