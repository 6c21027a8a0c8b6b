package dto

import (
	"time"

	"talent-split/internal/usecase"

	"github.com/google/uuid"
)

type InvitationResponse struct {
	ID          uuid.UUID  `json:"id"`
	RecruiterID uuid.UUID  `json:"recruiter_id"`
	CandidateID uuid.UUID  `json:"candidate_id"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Token       string     `json:"token,omitempty"`
}

func FromInvitationView(v usecase.InvitationView) InvitationResponse {
	return InvitationResponse{
		ID:          v.ID,
		RecruiterID: v.RecruiterID,
		CandidateID: v.CandidateID,
		JobID:       v.JobID,
		Status:      v.Status,
		ExpiresAt:   v.ExpiresAt,
		Token:       v.Token,
	}
}

type PreScreenResponse struct {
	ApplicationID  uuid.UUID `json:"application_id"`
	RecruiterID    uuid.UUID `json:"recruiter_id"`
	RelationshipID uuid.UUID `json:"relationship_id"`
}
