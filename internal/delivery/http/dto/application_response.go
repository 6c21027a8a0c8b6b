package dto

import (
	"time"

	"talent-split/internal/usecase"

	"github.com/google/uuid"
)

type ApplicationResponse struct {
	ID                uuid.UUID  `json:"id"`
	CandidateID       uuid.UUID  `json:"candidate_id"`
	JobID             uuid.UUID  `json:"job_id"`
	RecruiterID       *uuid.UUID `json:"recruiter_id,omitempty"`
	Stage             string     `json:"stage"`
	AcceptedByCompany bool       `json:"accepted_by_company"`
	CandidateName     string     `json:"candidate_name"`
	CandidateEmail    string     `json:"candidate_email"`
	CandidateMasked   bool       `json:"candidate_masked"`
	Notes             string     `json:"notes,omitempty"`
	RecruiterNotes    string     `json:"recruiter_notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
}

func FromApplicationView(v usecase.ApplicationView) ApplicationResponse {
	return ApplicationResponse{
		ID:                v.ID,
		CandidateID:       v.CandidateID,
		JobID:             v.JobID,
		RecruiterID:       v.RecruiterID,
		Stage:             v.Stage,
		AcceptedByCompany: v.AcceptedByCompany,
		CandidateName:     v.CandidateName,
		CandidateEmail:    v.CandidateEmail,
		CandidateMasked:   v.CandidateMasked,
		Notes:             v.Notes,
		RecruiterNotes:    v.RecruiterNotes,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
		AcceptedAt:        v.AcceptedAt,
	}
}

type StageEventResponse struct {
	ID         uuid.UUID `json:"id"`
	ActorID    uuid.UUID `json:"actor_id"`
	FromStage  string    `json:"from_stage"`
	ToStage    string    `json:"to_stage"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type BulkTransitionItemResponse struct {
	ApplicationID uuid.UUID `json:"application_id"`
	OK            bool      `json:"ok"`
	Error         string    `json:"error,omitempty"`
}
