package repository

import (
	"context"
	"errors"
	"time"

	"talent-split/internal/database"
	"talent-split/internal/domain/relationship"

	"github.com/google/uuid"
)

var (
	ErrRelationshipNotFound = errors.New("relationship not found")
	// ErrActiveRelationshipExists is the unique-index backstop for the
	// exclusivity invariant: the insert lost the race.
	ErrActiveRelationshipExists = errors.New("active relationship already exists")
)

type RelationshipListFilter struct {
	RecruiterID *uuid.UUID
	CandidateID *uuid.UUID
	Status      *relationship.Status
	Limit       int
	Offset      int
}

type RelationshipRepository interface {
	Insert(ctx context.Context, rel relationship.Relationship) error
	GetByID(ctx context.Context, id uuid.UUID) (relationship.Relationship, error)
	// ActiveGoverning returns active relationships that govern (candidate, job):
	// the job-scoped one and any general (NULL job) one, job-scoped first.
	ActiveGoverning(ctx context.Context, candidateID, jobID uuid.UUID) ([]relationship.Relationship, error)
	// ActiveGeneral returns the candidate's active general relationship, if any.
	ActiveGeneral(ctx context.Context, candidateID uuid.UUID) (*relationship.Relationship, error)
	Terminate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Expire(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filter RelationshipListFilter) ([]relationship.Relationship, error)
}

type PostgresRelationshipRepository struct {
	db database.DB
}

func NewPostgresRelationshipRepository(db database.DB) *PostgresRelationshipRepository {
	return &PostgresRelationshipRepository{db: db}
}

func (r *PostgresRelationshipRepository) Insert(ctx context.Context, rel relationship.Relationship) error {
	return withRetry(ctx, func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO relationships
			   (id, recruiter_id, candidate_id, job_id, status, start_date, end_date,
			    consent_given, consent_source, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
			rel.ID, rel.RecruiterID, rel.CandidateID, rel.JobID, string(rel.Status),
			rel.StartDate, rel.EndDate, rel.ConsentGiven, rel.ConsentSource, rel.CreatedAt,
		)
		if uniqueViolation(err, "relationships_active_candidate_job") {
			return ErrActiveRelationshipExists
		}
		return err
	})
}

const relationshipColumns = `
	id, recruiter_id, candidate_id, job_id, status, start_date, end_date,
	consent_given, consent_source, created_at, updated_at`

func scanRelationship(row database.Row) (relationship.Relationship, error) {
	var rel relationship.Relationship
	var status string
	err := row.Scan(
		&rel.ID, &rel.RecruiterID, &rel.CandidateID, &rel.JobID, &status,
		&rel.StartDate, &rel.EndDate, &rel.ConsentGiven, &rel.ConsentSource,
		&rel.CreatedAt, &rel.UpdatedAt,
	)
	if err != nil {
		return relationship.Relationship{}, err
	}
	rel.Status = relationship.Status(status)
	return rel, nil
}

func (r *PostgresRelationshipRepository) GetByID(ctx context.Context, id uuid.UUID) (relationship.Relationship, error) {
	var rel relationship.Relationship
	err := withRetry(ctx, func() error {
		var err error
		rel, err = scanRelationship(r.db.QueryRow(ctx,
			`SELECT`+relationshipColumns+` FROM relationships WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if noRows(err) {
			return relationship.Relationship{}, ErrRelationshipNotFound
		}
		return relationship.Relationship{}, err
	}
	return rel, nil
}

func (r *PostgresRelationshipRepository) ActiveGoverning(ctx context.Context, candidateID, jobID uuid.UUID) ([]relationship.Relationship, error) {
	var out []relationship.Relationship
	err := withRetry(ctx, func() error {
		rows, err := r.db.Query(ctx,
			`SELECT`+relationshipColumns+`
			 FROM relationships
			 WHERE candidate_id = $1 AND status = 'active'
			   AND (job_id = $2 OR job_id IS NULL)
			 ORDER BY job_id NULLS LAST`,
			candidateID, jobID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]relationship.Relationship, 0, 2)
		for rows.Next() {
			rel, err := scanRelationship(rows)
			if err != nil {
				return err
			}
			out = append(out, rel)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRelationshipRepository) ActiveGeneral(ctx context.Context, candidateID uuid.UUID) (*relationship.Relationship, error) {
	var rel relationship.Relationship
	err := withRetry(ctx, func() error {
		var err error
		rel, err = scanRelationship(r.db.QueryRow(ctx,
			`SELECT`+relationshipColumns+`
			 FROM relationships
			 WHERE candidate_id = $1 AND status = 'active' AND job_id IS NULL`,
			candidateID,
		))
		return err
	})
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}

// Terminate is idempotent; it reports whether this call did the flip.
func (r *PostgresRelationshipRepository) Terminate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	var flipped bool
	err := withRetry(ctx, func() error {
		n, err := r.db.Exec(ctx,
			`UPDATE relationships SET status = 'terminated', updated_at = $1
			 WHERE id = $2 AND status <> 'terminated'`,
			at, id,
		)
		if err != nil {
			return err
		}
		flipped = n > 0
		return nil
	})
	return flipped, err
}

func (r *PostgresRelationshipRepository) Expire(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	var flipped bool
	err := withRetry(ctx, func() error {
		n, err := r.db.Exec(ctx,
			`UPDATE relationships SET status = 'expired', updated_at = $1
			 WHERE id = $2 AND status = 'active'`,
			at, id,
		)
		if err != nil {
			return err
		}
		flipped = n > 0
		return nil
	})
	return flipped, err
}

// ExpireDue is the sweep: every active relationship past its end date flips to
// expired. History is never deleted.
func (r *PostgresRelationshipRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := withRetry(ctx, func() error {
		var err error
		n, err = r.db.Exec(ctx,
			`UPDATE relationships SET status = 'expired', updated_at = $1
			 WHERE status = 'active' AND end_date < $1`,
			now,
		)
		return err
	})
	return n, err
}

func (r *PostgresRelationshipRepository) List(ctx context.Context, filter RelationshipListFilter) ([]relationship.Relationship, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	var out []relationship.Relationship
	err := withRetry(ctx, func() error {
		rows, err := r.db.Query(ctx,
			`SELECT`+relationshipColumns+`
			 FROM relationships
			 WHERE ($1::uuid IS NULL OR recruiter_id = $1)
			   AND ($2::uuid IS NULL OR candidate_id = $2)
			   AND ($3::text IS NULL OR status = $3)
			 ORDER BY created_at DESC, id
			 LIMIT $4 OFFSET $5`,
			filter.RecruiterID, filter.CandidateID, status, limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]relationship.Relationship, 0)
		for rows.Next() {
			rel, err := scanRelationship(rows)
			if err != nil {
				return err
			}
			out = append(out, rel)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
