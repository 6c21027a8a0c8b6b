package repository

import (
	"context"
	"errors"

	"talent-split/internal/database"

	"github.com/google/uuid"
)

var ErrJobNotFound = errors.New("job not found")

// JobTerms is the slice of a job the engine needs: the financials that feed the
// fee split and the review flag that shapes the draft transition.
type JobTerms struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	SalaryCents    int64
	FeePercent     float64
	RequiresReview bool
	Open           bool
}

type JobRepository interface {
	GetTerms(ctx context.Context, jobID uuid.UUID) (JobTerms, error)
	ExistsByID(ctx context.Context, jobID uuid.UUID) (bool, error)
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) GetTerms(ctx context.Context, jobID uuid.UUID) (JobTerms, error) {
	var t JobTerms
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT id, company_id, salary_cents, fee_percent, requires_review, open
			 FROM jobs WHERE id = $1`,
			jobID,
		).Scan(&t.ID, &t.CompanyID, &t.SalaryCents, &t.FeePercent, &t.RequiresReview, &t.Open)
	})
	if err != nil {
		if noRows(err) {
			return JobTerms{}, ErrJobNotFound
		}
		return JobTerms{}, err
	}
	return t, nil
}

func (r *PostgresJobRepository) ExistsByID(ctx context.Context, jobID uuid.UUID) (bool, error) {
	var exists bool
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)`, jobID).Scan(&exists)
	})
	return exists, err
}
