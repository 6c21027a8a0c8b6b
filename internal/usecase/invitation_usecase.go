package usecase

import (
	"context"
	"errors"
	"time"

	"talent-split/internal/pkg/token"
	"talent-split/internal/repository"

	"github.com/google/uuid"
)

const invitationTTL = 14 * 24 * time.Hour

type InvitationView struct {
	ID          uuid.UUID  `json:"id"`
	RecruiterID uuid.UUID  `json:"recruiter_id"`
	CandidateID uuid.UUID  `json:"candidate_id"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`

	// Token is set only on creation; the stored copy is a bcrypt hash.
	Token string `json:"token,omitempty"`
}

type InvitationUsecase interface {
	Create(ctx context.Context, recruiterID, candidateID uuid.UUID, jobID *uuid.UUID) (InvitationView, error)
	Accept(ctx context.Context, invitationID uuid.UUID, plainToken string, candidateID uuid.UUID) (RelationshipView, error)
	Revoke(ctx context.Context, invitationID uuid.UUID, actor Actor) error
}

type Invitations struct {
	invitations repository.InvitationRepository
	jobs        repository.JobRepository
	ledger      RelationshipEstablisher

	now   func() time.Time
	newID func() uuid.UUID
}

func NewInvitationUsecase(invitations repository.InvitationRepository, jobs repository.JobRepository, ledger RelationshipEstablisher) *Invitations {
	return &Invitations{
		invitations: invitations,
		jobs:        jobs,
		ledger:      ledger,
		now:         time.Now,
		newID:       uuid.New,
	}
}

func (u *Invitations) Create(ctx context.Context, recruiterID, candidateID uuid.UUID, jobID *uuid.UUID) (InvitationView, error) {
	if recruiterID == uuid.Nil || candidateID == uuid.Nil {
		return InvitationView{}, ErrInvalidInput
	}

	if jobID != nil {
		exists, err := u.jobs.ExistsByID(ctx, *jobID)
		if err != nil {
			return InvitationView{}, ErrInternal
		}
		if !exists {
			return InvitationView{}, ErrNotFound
		}
	}

	plain := token.New()
	hash, err := token.Hash(plain)
	if err != nil {
		return InvitationView{}, ErrInternal
	}

	now := u.now().UTC()
	inv := repository.Invitation{
		ID:          u.newID(),
		RecruiterID: recruiterID,
		CandidateID: candidateID,
		JobID:       jobID,
		TokenHash:   hash,
		Status:      repository.InvitationPending,
		ExpiresAt:   now.Add(invitationTTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.invitations.Create(ctx, inv); err != nil {
		return InvitationView{}, ErrInternal
	}

	view := toInvitationView(inv)
	view.Token = plain
	return view, nil
}

// Accept verifies the token, burns the invitation, and establishes the
// relationship with the invitation as consent source. One-shot by design.
func (u *Invitations) Accept(ctx context.Context, invitationID uuid.UUID, plainToken string, candidateID uuid.UUID) (RelationshipView, error) {
	inv, err := u.invitations.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repository.ErrInvitationNotFound) {
			return RelationshipView{}, ErrNotFound
		}
		return RelationshipView{}, ErrInternal
	}

	if inv.CandidateID != candidateID {
		return RelationshipView{}, ErrForbidden
	}
	if !token.Verify(inv.TokenHash, plainToken) {
		return RelationshipView{}, ErrUnauthorized
	}

	now := u.now().UTC()
	if inv.Status != repository.InvitationPending || now.After(inv.ExpiresAt) {
		return RelationshipView{}, &PreconditionError{Reason: "invitation is no longer pending"}
	}

	flipped, err := u.invitations.MarkAccepted(ctx, invitationID, now)
	if err != nil {
		return RelationshipView{}, ErrInternal
	}
	if !flipped {
		return RelationshipView{}, &PreconditionError{Reason: "invitation is no longer pending"}
	}

	return u.ledger.Establish(ctx, EstablishParams{
		RecruiterID:   inv.RecruiterID,
		CandidateID:   inv.CandidateID,
		JobID:         inv.JobID,
		ConsentSource: "invitation:" + inv.ID.String(),
	})
}

func (u *Invitations) Revoke(ctx context.Context, invitationID uuid.UUID, actor Actor) error {
	inv, err := u.invitations.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repository.ErrInvitationNotFound) {
			return ErrNotFound
		}
		return ErrInternal
	}
	if actor.Role != RoleAdmin && actor.ID != inv.RecruiterID {
		return ErrForbidden
	}

	if _, err := u.invitations.MarkRevoked(ctx, invitationID, u.now().UTC()); err != nil {
		return ErrInternal
	}
	return nil
}

func toInvitationView(inv repository.Invitation) InvitationView {
	return InvitationView{
		ID:          inv.ID,
		RecruiterID: inv.RecruiterID,
		CandidateID: inv.CandidateID,
		JobID:       inv.JobID,
		Status:      string(inv.Status),
		ExpiresAt:   inv.ExpiresAt,
	}
}
