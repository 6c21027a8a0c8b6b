package application

import (
	"time"

	"github.com/google/uuid"
)

// Application is one candidate's pursuit of one job. RecruiterID is nil for a
// direct application until the pre-screen router assigns one.
type Application struct {
	ID                uuid.UUID
	CandidateID       uuid.UUID
	JobID             uuid.UUID
	RecruiterID       *uuid.UUID
	Stage             Stage
	AcceptedByCompany bool
	PrimaryResumeID   *uuid.UUID
	Notes             string
	RecruiterNotes    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	AcceptedAt        *time.Time
}

// Direct reports whether the application arrived without a recruiter.
func (a Application) Direct() bool {
	return a.RecruiterID == nil
}

// StageEvent is one immutable audit entry. Appended on every stage write;
// never updated or deleted.
type StageEvent struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	ActorID       uuid.UUID
	FromStage     Stage
	ToStage       Stage
	Reason        string
	OccurredAt    time.Time
}
