package usecase

import (
	"context"
	"errors"
	"time"

	"talent-split/internal/domain/placement"
	"talent-split/internal/repository"

	"github.com/google/uuid"
)

type PlacementView struct {
	ID                        uuid.UUID  `json:"id"`
	ApplicationID             uuid.UUID  `json:"application_id"`
	RecruiterID               uuid.UUID  `json:"recruiter_id"`
	SalaryCents               int64      `json:"salary_cents"`
	FeePercent                float64    `json:"fee_percent"`
	FeeCents                  int64      `json:"fee_cents"`
	RecruiterSharePercent     float64    `json:"recruiter_share_percent"`
	RecruiterCents            int64      `json:"recruiter_cents"`
	PlatformCents             int64      `json:"platform_cents"`
	HiredAt                   time.Time  `json:"hired_at"`
	CompensatesForPlacementID *uuid.UUID `json:"compensates_for_placement_id,omitempty"`
}

type PlacementUsecase interface {
	GetByApplication(ctx context.Context, applicationID uuid.UUID, actor Actor) (PlacementView, error)
	List(ctx context.Context, actor Actor, limit, offset int) ([]PlacementView, error)
}

type Placements struct {
	placements repository.PlacementRepository
}

func NewPlacementUsecase(placements repository.PlacementRepository) *Placements {
	return &Placements{placements: placements}
}

func (u *Placements) GetByApplication(ctx context.Context, applicationID uuid.UUID, actor Actor) (PlacementView, error) {
	p, err := u.placements.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, repository.ErrPlacementNotFound) {
			return PlacementView{}, ErrNotFound
		}
		return PlacementView{}, ErrInternal
	}
	if actor.Role == RoleRecruiter && actor.ID != p.RecruiterID {
		return PlacementView{}, ErrForbidden
	}
	return toPlacementView(p), nil
}

// List scopes recruiters to their own placements; admins and companies see all.
func (u *Placements) List(ctx context.Context, actor Actor, limit, offset int) ([]PlacementView, error) {
	filter := repository.PlacementListFilter{Limit: limit, Offset: offset}
	if actor.Role == RoleRecruiter {
		id := actor.ID
		filter.RecruiterID = &id
	}

	rows, err := u.placements.List(ctx, filter)
	if err != nil {
		return nil, ErrInternal
	}
	out := make([]PlacementView, 0, len(rows))
	for _, p := range rows {
		out = append(out, toPlacementView(p))
	}
	return out, nil
}

func toPlacementView(p placement.Placement) PlacementView {
	return PlacementView{
		ID:                        p.ID,
		ApplicationID:             p.ApplicationID,
		RecruiterID:               p.RecruiterID,
		SalaryCents:               p.SalaryCents,
		FeePercent:                p.FeePercent,
		FeeCents:                  p.FeeCents,
		RecruiterSharePercent:     p.RecruiterSharePercent,
		RecruiterCents:            p.RecruiterCents,
		PlatformCents:             p.PlatformCents,
		HiredAt:                   p.HiredAt,
		CompensatesForPlacementID: p.CompensatesForPlacementID,
	}
}
