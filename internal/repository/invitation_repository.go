package repository

import (
	"context"
	"errors"
	"time"

	"talent-split/internal/database"

	"github.com/google/uuid"
)

var ErrInvitationNotFound = errors.New("invitation not found")

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is a recruiter's consent request to a candidate. Accepting one is
// how a relationship records consent_source.
type Invitation struct {
	ID          uuid.UUID
	RecruiterID uuid.UUID
	CandidateID uuid.UUID
	JobID       *uuid.UUID
	TokenHash   string
	Status      InvitationStatus
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type InvitationRepository interface {
	Create(ctx context.Context, inv Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (Invitation, error)
	// MarkAccepted flips pending to accepted; reports false when the
	// invitation was no longer pending (already used, revoked, expired).
	MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type PostgresInvitationRepository struct {
	db database.DB
}

func NewPostgresInvitationRepository(db database.DB) *PostgresInvitationRepository {
	return &PostgresInvitationRepository{db: db}
}

func (r *PostgresInvitationRepository) Create(ctx context.Context, inv Invitation) error {
	return withRetry(ctx, func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO invitations
			   (id, recruiter_id, candidate_id, job_id, token_hash, status,
			    expires_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
			inv.ID, inv.RecruiterID, inv.CandidateID, inv.JobID, inv.TokenHash,
			string(inv.Status), inv.ExpiresAt, inv.CreatedAt,
		)
		return err
	})
}

func (r *PostgresInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (Invitation, error) {
	var inv Invitation
	var status string
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT id, recruiter_id, candidate_id, job_id, token_hash, status,
			        expires_at, created_at, updated_at
			 FROM invitations WHERE id = $1`,
			id,
		).Scan(&inv.ID, &inv.RecruiterID, &inv.CandidateID, &inv.JobID, &inv.TokenHash,
			&status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	})
	if err != nil {
		if noRows(err) {
			return Invitation{}, ErrInvitationNotFound
		}
		return Invitation{}, err
	}
	inv.Status = InvitationStatus(status)
	return inv, nil
}

func (r *PostgresInvitationRepository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.flipStatus(ctx, id, InvitationAccepted, at)
}

func (r *PostgresInvitationRepository) MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.flipStatus(ctx, id, InvitationRevoked, at)
}

func (r *PostgresInvitationRepository) flipStatus(ctx context.Context, id uuid.UUID, to InvitationStatus, at time.Time) (bool, error) {
	var flipped bool
	err := withRetry(ctx, func() error {
		n, err := r.db.Exec(ctx,
			`UPDATE invitations SET status = $1, updated_at = $2
			 WHERE id = $3 AND status = 'pending'`,
			string(to), at, id,
		)
		if err != nil {
			return err
		}
		flipped = n > 0
		return nil
	})
	return flipped, err
}
