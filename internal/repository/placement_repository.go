package repository

import (
	"context"
	"errors"

	"talent-split/internal/database"
	"talent-split/internal/domain/placement"

	"github.com/google/uuid"
)

var ErrPlacementNotFound = errors.New("placement not found")

type PlacementListFilter struct {
	RecruiterID *uuid.UUID
	Limit       int
	Offset      int
}

// Placements are written only inside the hire transaction
// (ApplicationRepository.CommitHire); this repository is read-only.
type PlacementRepository interface {
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (placement.Placement, error)
	List(ctx context.Context, filter PlacementListFilter) ([]placement.Placement, error)
}

type PostgresPlacementRepository struct {
	db database.DB
}

func NewPostgresPlacementRepository(db database.DB) *PostgresPlacementRepository {
	return &PostgresPlacementRepository{db: db}
}

const placementColumns = `
	id, application_id, recruiter_id, salary_cents, fee_percent, fee_cents,
	recruiter_share_percent, recruiter_cents, platform_cents, hired_at,
	compensates_for_placement_id`

func scanPlacement(row database.Row) (placement.Placement, error) {
	var p placement.Placement
	err := row.Scan(
		&p.ID, &p.ApplicationID, &p.RecruiterID, &p.SalaryCents, &p.FeePercent,
		&p.FeeCents, &p.RecruiterSharePercent, &p.RecruiterCents, &p.PlatformCents,
		&p.HiredAt, &p.CompensatesForPlacementID,
	)
	return p, err
}

func (r *PostgresPlacementRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (placement.Placement, error) {
	var p placement.Placement
	err := withRetry(ctx, func() error {
		var err error
		p, err = scanPlacement(r.db.QueryRow(ctx,
			`SELECT`+placementColumns+` FROM placements WHERE application_id = $1`,
			applicationID,
		))
		return err
	})
	if err != nil {
		if noRows(err) {
			return placement.Placement{}, ErrPlacementNotFound
		}
		return placement.Placement{}, err
	}
	return p, nil
}

func (r *PostgresPlacementRepository) List(ctx context.Context, filter PlacementListFilter) ([]placement.Placement, error) {
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

	var out []placement.Placement
	err := withRetry(ctx, func() error {
		rows, err := r.db.Query(ctx,
			`SELECT`+placementColumns+`
			 FROM placements
			 WHERE ($1::uuid IS NULL OR recruiter_id = $1)
			 ORDER BY hired_at DESC, id
			 LIMIT $2 OFFSET $3`,
			filter.RecruiterID, limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]placement.Placement, 0)
		for rows.Next() {
			p, err := scanPlacement(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
