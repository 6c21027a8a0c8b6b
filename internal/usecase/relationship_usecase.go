package usecase

import (
	"context"
	"errors"
	"time"

	"talent-split/internal/domain/relationship"
	"talent-split/internal/pkg/keylock"
	"talent-split/internal/repository"

	"github.com/google/uuid"
)

type EstablishParams struct {
	RecruiterID   uuid.UUID
	CandidateID   uuid.UUID
	JobID         *uuid.UUID
	ConsentSource string
}

type RelationshipView struct {
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

type RelationshipUsecase interface {
	Establish(ctx context.Context, params EstablishParams) (RelationshipView, error)
	Terminate(ctx context.Context, relationshipID uuid.UUID, actor Actor) error
	Get(ctx context.Context, relationshipID uuid.UUID) (RelationshipView, error)
	List(ctx context.Context, filter repository.RelationshipListFilter) ([]RelationshipView, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type Relationships struct {
	rels repository.RelationshipRepository

	locks       *keylock.KeyLock
	lockTimeout time.Duration
	events      EventPublisher

	now   func() time.Time
	newID func() uuid.UUID
}

func NewRelationshipUsecase(rels repository.RelationshipRepository, locks *keylock.KeyLock, events EventPublisher, lockTimeout time.Duration) *Relationships {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &Relationships{
		rels:        rels,
		locks:       locks,
		lockTimeout: lockTimeout,
		events:      events,
		now:         time.Now,
		newID:       uuid.New,
	}
}

// Establish grants a recruiter the right to represent a candidate, job-scoped
// or general. Exactly one recruiter can hold it: a competing active grant
// returns ConflictError; the same recruiter asking again gets the existing row.
func (u *Relationships) Establish(ctx context.Context, params EstablishParams) (RelationshipView, error) {
	if params.RecruiterID == uuid.Nil || params.CandidateID == uuid.Nil {
		return RelationshipView{}, ErrInvalidInput
	}

	// One lock per candidate, not per (candidate, job): a general grant and a
	// job-scoped one land on different unique-index keys, so scoped locks
	// would let the two check-then-insert paths interleave.
	release, err := u.lock(ctx, relationshipLockKey(params.CandidateID))
	if err != nil {
		return RelationshipView{}, err
	}
	defer release()

	now := u.now().UTC()

	existing, err := u.findBlocking(ctx, params.CandidateID, params.JobID, now)
	if err != nil {
		return RelationshipView{}, err
	}
	if existing != nil {
		if existing.RecruiterID == params.RecruiterID {
			return toRelationshipView(*existing), nil
		}
		return RelationshipView{}, &ConflictError{
			RelationshipID: existing.ID,
			RecruiterID:    existing.RecruiterID,
		}
	}

	rel := relationship.Relationship{
		ID:            u.newID(),
		RecruiterID:   params.RecruiterID,
		CandidateID:   params.CandidateID,
		JobID:         params.JobID,
		Status:        relationship.StatusActive,
		StartDate:     now,
		EndDate:       relationship.EndDate(now),
		ConsentGiven:  true,
		ConsentSource: params.ConsentSource,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := u.rels.Insert(ctx, rel); err != nil {
		// Lost a race another instance won; the unique index is the backstop.
		if errors.Is(err, repository.ErrActiveRelationshipExists) {
			if blocking, ferr := u.findBlocking(ctx, params.CandidateID, params.JobID, now); ferr == nil && blocking != nil {
				if blocking.RecruiterID == params.RecruiterID {
					return toRelationshipView(*blocking), nil
				}
				return RelationshipView{}, &ConflictError{
					RelationshipID: blocking.ID,
					RecruiterID:    blocking.RecruiterID,
				}
			}
			return RelationshipView{}, ErrConflict
		}
		return RelationshipView{}, ErrInternal
	}

	u.events.Publish(Event{
		Type:       EventRelationshipEstablished,
		OccurredAt: now,
		Payload: RelationshipPayload{
			RelationshipID: rel.ID,
			RecruiterID:    rel.RecruiterID,
			CandidateID:    rel.CandidateID,
			JobID:          rel.JobID,
		},
	})
	return toRelationshipView(rel), nil
}

// findBlocking returns the active relationship that would block establishment
// for (candidate, job): the same-scope one, or a general grant when asking for
// a job-scoped one. Lapsed rows are expired on read rather than honored.
func (u *Relationships) findBlocking(ctx context.Context, candidateID uuid.UUID, jobID *uuid.UUID, now time.Time) (*relationship.Relationship, error) {
	var candidates []relationship.Relationship

	if jobID == nil {
		general, err := u.rels.ActiveGeneral(ctx, candidateID)
		if err != nil {
			return nil, ErrInternal
		}
		if general != nil {
			candidates = append(candidates, *general)
		}
	} else {
		governing, err := u.rels.ActiveGoverning(ctx, candidateID, *jobID)
		if err != nil {
			return nil, ErrInternal
		}
		candidates = governing
	}

	for _, rel := range candidates {
		if rel.ExpiredBy(now) {
			if _, err := u.rels.Expire(ctx, rel.ID, now); err != nil {
				return nil, ErrInternal
			}
			continue
		}
		found := rel
		return &found, nil
	}
	return nil, nil
}

// Terminate ends a relationship immediately. Only a party to the relationship
// or an admin may end it. Idempotent; never reverts a hire.
func (u *Relationships) Terminate(ctx context.Context, relationshipID uuid.UUID, actor Actor) error {
	rel, err := u.rels.GetByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, repository.ErrRelationshipNotFound) {
			return ErrNotFound
		}
		return ErrInternal
	}

	if actor.Role != RoleAdmin && actor.ID != rel.RecruiterID && actor.ID != rel.CandidateID {
		return ErrForbidden
	}

	now := u.now().UTC()
	flipped, err := u.rels.Terminate(ctx, relationshipID, now)
	if err != nil {
		return ErrInternal
	}
	if !flipped {
		return nil
	}

	u.events.Publish(Event{
		Type:       EventRelationshipTerminated,
		OccurredAt: now,
		Payload: RelationshipPayload{
			RelationshipID: rel.ID,
			RecruiterID:    rel.RecruiterID,
			CandidateID:    rel.CandidateID,
			JobID:          rel.JobID,
		},
	})
	return nil
}

func (u *Relationships) Get(ctx context.Context, relationshipID uuid.UUID) (RelationshipView, error) {
	rel, err := u.rels.GetByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, repository.ErrRelationshipNotFound) {
			return RelationshipView{}, ErrNotFound
		}
		return RelationshipView{}, ErrInternal
	}

	// On-read expiry keeps reads honest between sweeps.
	now := u.now().UTC()
	if rel.ExpiredBy(now) {
		if _, err := u.rels.Expire(ctx, rel.ID, now); err == nil {
			rel.Status = relationship.StatusExpired
		}
	}
	return toRelationshipView(rel), nil
}

func (u *Relationships) List(ctx context.Context, filter repository.RelationshipListFilter) ([]RelationshipView, error) {
	rels, err := u.rels.List(ctx, filter)
	if err != nil {
		return nil, ErrInternal
	}
	out := make([]RelationshipView, 0, len(rels))
	for _, rel := range rels {
		out = append(out, toRelationshipView(rel))
	}
	return out, nil
}

// SweepExpired flips every active relationship past its end date to expired.
func (u *Relationships) SweepExpired(ctx context.Context) (int64, error) {
	n, err := u.rels.ExpireDue(ctx, u.now().UTC())
	if err != nil {
		return 0, ErrInternal
	}
	return n, nil
}

func (u *Relationships) lock(ctx context.Context, key string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, u.lockTimeout)
	defer cancel()
	release, err := u.locks.Acquire(lockCtx, key)
	if err != nil {
		return nil, ErrBusy
	}
	return release, nil
}

func relationshipLockKey(candidateID uuid.UUID) string {
	return "relationship:" + candidateID.String()
}

func toRelationshipView(rel relationship.Relationship) RelationshipView {
	return RelationshipView{
		ID:            rel.ID,
		RecruiterID:   rel.RecruiterID,
		CandidateID:   rel.CandidateID,
		JobID:         rel.JobID,
		Status:        string(rel.Status),
		StartDate:     rel.StartDate,
		EndDate:       rel.EndDate,
		ConsentGiven:  rel.ConsentGiven,
		ConsentSource: rel.ConsentSource,
	}
}
