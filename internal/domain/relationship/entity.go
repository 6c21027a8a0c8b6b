package relationship

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusTerminated Status = "terminated"
)

// Relationship is a recruiter's exclusive right to represent a candidate.
// A nil JobID means a general relationship covering every job; a job-scoped
// one is narrower and only governs that job.
type Relationship struct {
	ID            uuid.UUID
	RecruiterID   uuid.UUID
	CandidateID   uuid.UUID
	JobID         *uuid.UUID
	Status        Status
	StartDate     time.Time
	EndDate       time.Time
	ConsentGiven  bool
	ConsentSource string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EndDate computes the natural expiry of a relationship starting at start:
// twelve calendar months out.
func EndDate(start time.Time) time.Time {
	return start.AddDate(0, 12, 0)
}

// Governs reports whether the relationship covers jobID: an exact job match,
// or a general relationship covering all jobs.
func (r Relationship) Governs(jobID uuid.UUID) bool {
	if r.JobID == nil {
		return true
	}
	return *r.JobID == jobID
}

// ExpiredBy reports whether an active relationship has outlived its end date.
func (r Relationship) ExpiredBy(now time.Time) bool {
	return r.Status == StatusActive && now.After(r.EndDate)
}
