package repository

import (
	"context"
	"errors"

	"talent-split/internal/database"

	"github.com/google/uuid"
)

var ErrRecruiterNotFound = errors.New("recruiter not found")

// RecruiterLoad is a pre-screen routing candidate: an active recruiter with
// access to the job, and how many non-terminal applications they already carry.
type RecruiterLoad struct {
	ID               uuid.UUID
	OpenApplications int
}

type RecruiterRepository interface {
	ExistsActive(ctx context.Context, recruiterID uuid.UUID) (bool, error)
	HasJobAccess(ctx context.Context, recruiterID, jobID uuid.UUID) (bool, error)
	// EligibleForJob lists active recruiters with access to the job, least
	// loaded first, ties broken by ascending id so routing is deterministic.
	EligibleForJob(ctx context.Context, jobID uuid.UUID) ([]RecruiterLoad, error)
}

type PostgresRecruiterRepository struct {
	db database.DB
}

func NewPostgresRecruiterRepository(db database.DB) *PostgresRecruiterRepository {
	return &PostgresRecruiterRepository{db: db}
}

func (r *PostgresRecruiterRepository) ExistsActive(ctx context.Context, recruiterID uuid.UUID) (bool, error) {
	var exists bool
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM recruiters WHERE id = $1 AND active)`,
			recruiterID,
		).Scan(&exists)
	})
	return exists, err
}

func (r *PostgresRecruiterRepository) HasJobAccess(ctx context.Context, recruiterID, jobID uuid.UUID) (bool, error) {
	var exists bool
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT EXISTS(
			   SELECT 1 FROM job_recruiters jr
			   JOIN recruiters rc ON rc.id = jr.recruiter_id
			   WHERE jr.job_id = $1 AND jr.recruiter_id = $2 AND rc.active
			 )`,
			jobID, recruiterID,
		).Scan(&exists)
	})
	return exists, err
}

func (r *PostgresRecruiterRepository) EligibleForJob(ctx context.Context, jobID uuid.UUID) ([]RecruiterLoad, error) {
	var out []RecruiterLoad
	err := withRetry(ctx, func() error {
		rows, err := r.db.Query(ctx,
			`SELECT rc.id, COUNT(a.id) FILTER (
			     WHERE a.stage NOT IN ('hired', 'rejected', 'withdrawn')
			 ) AS open_applications
			 FROM job_recruiters jr
			 JOIN recruiters rc ON rc.id = jr.recruiter_id AND rc.active
			 LEFT JOIN applications a ON a.recruiter_id = rc.id
			 WHERE jr.job_id = $1
			 GROUP BY rc.id
			 ORDER BY open_applications ASC, rc.id ASC`,
			jobID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]RecruiterLoad, 0)
		for rows.Next() {
			var rl RecruiterLoad
			if err := rows.Scan(&rl.ID, &rl.OpenApplications); err != nil {
				return err
			}
			out = append(out, rl)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
