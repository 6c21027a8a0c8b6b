package usecase

import (
	"time"

	"github.com/google/uuid"
)

// Domain events exposed to the notification collaborator. Delivery is
// fire-and-forget; consumers own idempotency.
const (
	EventApplicationStageChanged = "application.stage_changed"
	EventRelationshipEstablished = "relationship.established"
	EventRelationshipTerminated  = "relationship.terminated"
	EventPlacementCreated        = "placement.created"
)

type Event struct {
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(evt Event)
}

// NopPublisher drops events; used when no notification sink is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

type StageChangedPayload struct {
	ApplicationID uuid.UUID `json:"application_id"`
	FromStage     string    `json:"from_stage"`
	ToStage       string    `json:"to_stage"`
	ActorID       uuid.UUID `json:"actor_id"`
}

type RelationshipPayload struct {
	RelationshipID uuid.UUID  `json:"relationship_id"`
	RecruiterID    uuid.UUID  `json:"recruiter_id"`
	CandidateID    uuid.UUID  `json:"candidate_id"`
	JobID          *uuid.UUID `json:"job_id,omitempty"`
}

type PlacementCreatedPayload struct {
	PlacementID    uuid.UUID `json:"placement_id"`
	ApplicationID  uuid.UUID `json:"application_id"`
	RecruiterID    uuid.UUID `json:"recruiter_id"`
	FeeCents       int64     `json:"fee_cents"`
	RecruiterCents int64     `json:"recruiter_cents"`
	PlatformCents  int64     `json:"platform_cents"`
}
