package dto

import (
	"time"

	"talent-split/internal/usecase"

	"github.com/google/uuid"
)

type RelationshipResponse struct {
	ID            uuid.UUID  `json:"id"`
	RecruiterID   uuid.UUID  `json:"recruiter_id"`
	CandidateID   uuid.UUID  `json:"candidate_id"`
	JobID         *uuid.UUID `json:"job_id,omitempty"`
	Status        string     `json:"status"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	ConsentGiven  bool       `json:"consent_given"`
	ConsentSource string     `json:"consent_source"`
}

func FromRelationshipView(v usecase.RelationshipView) RelationshipResponse {
	return RelationshipResponse{
		ID:            v.ID,
		RecruiterID:   v.RecruiterID,
		CandidateID:   v.CandidateID,
		JobID:         v.JobID,
		Status:        v.Status,
		StartDate:     v.StartDate,
		EndDate:       v.EndDate,
		ConsentGiven:  v.ConsentGiven,
		ConsentSource: v.ConsentSource,
	}
}

type ConflictResponse struct {
	RelationshipID uuid.UUID `json:"relationship_id"`
	RecruiterID    uuid.UUID `json:"recruiter_id"`
}
