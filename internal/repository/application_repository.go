package repository

import (
	"context"
	"errors"
	"time"

	"talent-split/internal/database"
	"talent-split/internal/domain/application"
	"talent-split/internal/domain/placement"

	"github.com/google/uuid"
)

var (
	ErrApplicationNotFound      = errors.New("application not found")
	ErrDuplicateLiveApplication = errors.New("live application already exists for candidate and job")
	ErrStageConflict            = errors.New("stage changed concurrently")
	ErrPlacementExists          = errors.New("placement already exists for application")
)

type ApplicationListFilter struct {
	JobID       *uuid.UUID
	RecruiterID *uuid.UUID
	CandidateID *uuid.UUID
	Stage       *application.Stage
	Limit       int
	Offset      int
}

// ApplicationListRow carries the candidate identity alongside the application
// so the usecase can apply the masking projection without a second query.
type ApplicationListRow struct {
	Application    application.Application
	CandidateName  string
	CandidateEmail string
}

// HireCommit is everything the hired transition writes in one transaction.
type HireCommit struct {
	ApplicationID  uuid.UUID
	FromStage      application.Stage
	Event          application.StageEvent
	Placement      placement.Placement
	RelationshipID *uuid.UUID
	HiredAt        time.Time
}

type ApplicationRepository interface {
	Create(ctx context.Context, app application.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (ApplicationListRow, error)
	List(ctx context.Context, filter ApplicationListFilter) ([]ApplicationListRow, error)
	UpdateStage(ctx context.Context, id uuid.UUID, from application.Stage, ev application.StageEvent, updatedAt time.Time) error
	CommitHire(ctx context.Context, commit HireCommit) error
	Accept(ctx context.Context, id uuid.UUID, at time.Time) error
	AssignRecruiter(ctx context.Context, id, recruiterID uuid.UUID, updatedAt time.Time) error
	CountUnansweredRequired(ctx context.Context, applicationID, jobID uuid.UUID) (int, error)
	Events(ctx context.Context, applicationID uuid.UUID) ([]application.StageEvent, error)
}

type PostgresApplicationRepository struct {
	db database.DB
}

func NewPostgresApplicationRepository(db database.DB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

func (r *PostgresApplicationRepository) Create(ctx context.Context, app application.Application) error {
	return withRetry(ctx, func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO applications
			   (id, candidate_id, job_id, recruiter_id, stage, accepted_by_company,
			    primary_resume_id, notes, recruiter_notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
			app.ID, app.CandidateID, app.JobID, app.RecruiterID, string(app.Stage),
			app.AcceptedByCompany, app.PrimaryResumeID, app.Notes, app.RecruiterNotes,
			app.CreatedAt,
		)
		if uniqueViolation(err, "applications_live_candidate_job") {
			return ErrDuplicateLiveApplication
		}
		return err
	})
}

const applicationColumns = `
	a.id, a.candidate_id, a.job_id, a.recruiter_id, a.stage, a.accepted_by_company,
	a.primary_resume_id, a.notes, a.recruiter_notes, a.created_at, a.updated_at,
	a.accepted_at, c.full_name, c.email`

func scanApplicationRow(row database.Row) (ApplicationListRow, error) {
	var out ApplicationListRow
	var stage string
	err := row.Scan(
		&out.Application.ID, &out.Application.CandidateID, &out.Application.JobID,
		&out.Application.RecruiterID, &stage, &out.Application.AcceptedByCompany,
		&out.Application.PrimaryResumeID, &out.Application.Notes,
		&out.Application.RecruiterNotes, &out.Application.CreatedAt,
		&out.Application.UpdatedAt, &out.Application.AcceptedAt,
		&out.CandidateName, &out.CandidateEmail,
	)
	if err != nil {
		return ApplicationListRow{}, err
	}
	out.Application.Stage = application.Stage(stage)
	return out, nil
}

func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (ApplicationListRow, error) {
	var out ApplicationListRow
	err := withRetry(ctx, func() error {
		row := r.db.QueryRow(ctx,
			`SELECT`+applicationColumns+`
			 FROM applications a
			 JOIN candidates c ON c.id = a.candidate_id
			 WHERE a.id = $1`,
			id,
		)
		var err error
		out, err = scanApplicationRow(row)
		return err
	})
	if err != nil {
		if noRows(err) {
			return ApplicationListRow{}, ErrApplicationNotFound
		}
		return ApplicationListRow{}, err
	}
	return out, nil
}

func (r *PostgresApplicationRepository) List(ctx context.Context, filter ApplicationListFilter) ([]ApplicationListRow, error) {
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

	var stage *string
	if filter.Stage != nil {
		s := string(*filter.Stage)
		stage = &s
	}

	var out []ApplicationListRow
	err := withRetry(ctx, func() error {
		rows, err := r.db.Query(ctx,
			`SELECT`+applicationColumns+`
			 FROM applications a
			 JOIN candidates c ON c.id = a.candidate_id
			 WHERE ($1::uuid IS NULL OR a.job_id = $1)
			   AND ($2::uuid IS NULL OR a.recruiter_id = $2)
			   AND ($3::uuid IS NULL OR a.candidate_id = $3)
			   AND ($4::text IS NULL OR a.stage = $4)
			 ORDER BY a.created_at DESC, a.id
			 LIMIT $5 OFFSET $6`,
			filter.JobID, filter.RecruiterID, filter.CandidateID, stage, limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]ApplicationListRow, 0)
		for rows.Next() {
			item, err := scanApplicationRow(rows)
			if err != nil {
				return err
			}
			out = append(out, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStage performs the compare-and-swap stage write plus the audit append
// in one transaction. ErrStageConflict means the row moved under us.
func (r *PostgresApplicationRepository) UpdateStage(ctx context.Context, id uuid.UUID, from application.Stage, ev application.StageEvent, updatedAt time.Time) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		n, err := tx.Exec(ctx,
			`UPDATE applications SET stage = $1, updated_at = $2 WHERE id = $3 AND stage = $4`,
			string(ev.ToStage), updatedAt, id, string(from),
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrStageConflict
		}

		if err := insertStageEvent(ctx, tx, ev); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

// CommitHire writes the hired stage, the placement, the governing relationship
// expiry, and the audit entry atomically. A reader never observes a partial hire.
func (r *PostgresApplicationRepository) CommitHire(ctx context.Context, commit HireCommit) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		n, err := tx.Exec(ctx,
			`UPDATE applications SET stage = $1, updated_at = $2 WHERE id = $3 AND stage = $4`,
			string(application.StageHired), commit.HiredAt, commit.ApplicationID, string(commit.FromStage),
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrStageConflict
		}

		p := commit.Placement
		_, err = tx.Exec(ctx,
			`INSERT INTO placements
			   (id, application_id, recruiter_id, salary_cents, fee_percent, fee_cents,
			    recruiter_share_percent, recruiter_cents, platform_cents, hired_at,
			    compensates_for_placement_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			p.ID, p.ApplicationID, p.RecruiterID, p.SalaryCents, p.FeePercent, p.FeeCents,
			p.RecruiterSharePercent, p.RecruiterCents, p.PlatformCents, p.HiredAt,
			p.CompensatesForPlacementID,
		)
		if err != nil {
			if uniqueViolation(err, "") {
				return ErrPlacementExists
			}
			return err
		}

		if commit.RelationshipID != nil {
			_, err = tx.Exec(ctx,
				`UPDATE relationships
				 SET status = 'expired', end_date = $1, updated_at = $1
				 WHERE id = $2 AND status = 'active'`,
				commit.HiredAt, *commit.RelationshipID,
			)
			if err != nil {
				return err
			}
		}

		if err := insertStageEvent(ctx, tx, commit.Event); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

// Accept flips accepted_by_company one way. Re-accepting is a no-op.
func (r *PostgresApplicationRepository) Accept(ctx context.Context, id uuid.UUID, at time.Time) error {
	return withRetry(ctx, func() error {
		n, err := r.db.Exec(ctx,
			`UPDATE applications
			 SET accepted_by_company = TRUE, accepted_at = $1, updated_at = $1
			 WHERE id = $2 AND accepted_by_company = FALSE`,
			at, id,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			// Already accepted or missing; distinguish for the caller.
			var exists bool
			if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrApplicationNotFound
			}
		}
		return nil
	})
}

func (r *PostgresApplicationRepository) AssignRecruiter(ctx context.Context, id, recruiterID uuid.UUID, updatedAt time.Time) error {
	return withRetry(ctx, func() error {
		n, err := r.db.Exec(ctx,
			`UPDATE applications SET recruiter_id = $1, updated_at = $2
			 WHERE id = $3 AND recruiter_id IS NULL`,
			recruiterID, updatedAt, id,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrStageConflict
		}
		return nil
	})
}

func (r *PostgresApplicationRepository) CountUnansweredRequired(ctx context.Context, applicationID, jobID uuid.UUID) (int, error) {
	var count int
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT COUNT(*)
			 FROM job_questions q
			 WHERE q.job_id = $1 AND q.required
			   AND NOT EXISTS (
			     SELECT 1 FROM prescreen_answers pa
			     WHERE pa.application_id = $2 AND pa.question_id = q.id
			   )`,
			jobID, applicationID,
		).Scan(&count)
	})
	return count, err
}

func (r *PostgresApplicationRepository) Events(ctx context.Context, applicationID uuid.UUID) ([]application.StageEvent, error) {
	var out []application.StageEvent
	err := withRetry(ctx, func() error {
		rows, err := r.db.Query(ctx,
			`SELECT id, application_id, actor_id, from_stage, to_stage, reason, occurred_at
			 FROM application_events WHERE application_id = $1
			 ORDER BY occurred_at, id`,
			applicationID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]application.StageEvent, 0)
		for rows.Next() {
			var ev application.StageEvent
			var from, to string
			if err := rows.Scan(&ev.ID, &ev.ApplicationID, &ev.ActorID, &from, &to, &ev.Reason, &ev.OccurredAt); err != nil {
				return err
			}
			ev.FromStage = application.Stage(from)
			ev.ToStage = application.Stage(to)
			out = append(out, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertStageEvent(ctx context.Context, tx database.Tx, ev application.StageEvent) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO application_events
		   (id, application_id, actor_id, from_stage, to_stage, reason, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.ApplicationID, ev.ActorID, string(ev.FromStage), string(ev.ToStage),
		ev.Reason, ev.OccurredAt,
	)
	return err
}
