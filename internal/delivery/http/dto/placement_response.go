package dto

import (
	"time"

	"talent-split/internal/usecase"

	"github.com/google/uuid"
)

type PlacementResponse struct {
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

func FromPlacementView(v usecase.PlacementView) PlacementResponse {
	return PlacementResponse{
		ID:                        v.ID,
		ApplicationID:             v.ApplicationID,
		RecruiterID:               v.RecruiterID,
		SalaryCents:               v.SalaryCents,
		FeePercent:                v.FeePercent,
		FeeCents:                  v.FeeCents,
		RecruiterSharePercent:     v.RecruiterSharePercent,
		RecruiterCents:            v.RecruiterCents,
		PlatformCents:             v.PlatformCents,
		HiredAt:                   v.HiredAt,
		CompensatesForPlacementID: v.CompensatesForPlacementID,
	}
}
