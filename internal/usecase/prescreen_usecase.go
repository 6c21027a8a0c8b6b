package usecase

import (
	"context"
	"errors"
	"time"

	"talent-split/internal/domain/application"
	"talent-split/internal/pkg/keylock"
	"talent-split/internal/repository"

	"github.com/google/uuid"
)

// PreScreenUsecase routes direct applications to a recruiter for vetting.
// Assignment policy in auto mode: the eligible recruiter carrying the fewest
// open applications wins, ties broken by ascending recruiter id. Deterministic
// on purpose so routing is reproducible in tests and audits.
type PreScreenUsecase interface {
	RequestPreScreen(ctx context.Context, applicationID uuid.UUID, recruiterID *uuid.UUID, actor Actor) (PreScreenResult, error)
}

type PreScreenResult struct {
	ApplicationID  uuid.UUID `json:"application_id"`
	RecruiterID    uuid.UUID `json:"recruiter_id"`
	RelationshipID uuid.UUID `json:"relationship_id"`
}

type PreScreen struct {
	apps       repository.ApplicationRepository
	recruiters repository.RecruiterRepository
	ledger     RelationshipEstablisher

	locks       *keylock.KeyLock
	lockTimeout time.Duration

	now func() time.Time
}

func NewPreScreenUsecase(
	apps repository.ApplicationRepository,
	recruiters repository.RecruiterRepository,
	ledger RelationshipEstablisher,
	locks *keylock.KeyLock,
	lockTimeout time.Duration,
) *PreScreen {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &PreScreen{
		apps:        apps,
		recruiters:  recruiters,
		ledger:      ledger,
		locks:       locks,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

func (u *PreScreen) RequestPreScreen(ctx context.Context, applicationID uuid.UUID, recruiterID *uuid.UUID, actor Actor) (PreScreenResult, error) {
	lockCtx, cancel := context.WithTimeout(ctx, u.lockTimeout)
	release, err := u.locks.Acquire(lockCtx, "application:"+applicationID.String())
	cancel()
	if err != nil {
		return PreScreenResult{}, ErrBusy
	}
	defer release()

	row, err := u.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return PreScreenResult{}, ErrNotFound
		}
		return PreScreenResult{}, ErrInternal
	}
	app := row.Application

	if !app.Direct() {
		return PreScreenResult{}, &PreconditionError{Reason: "application already has a recruiter"}
	}
	if app.Stage != application.StageSubmitted {
		return PreScreenResult{}, &PreconditionError{Reason: "pre-screen requires a submitted application"}
	}

	assignee := uuid.Nil
	if recruiterID != nil {
		active, err := u.recruiters.ExistsActive(ctx, *recruiterID)
		if err != nil {
			return PreScreenResult{}, ErrInternal
		}
		if !active {
			return PreScreenResult{}, &PreconditionError{Reason: "recruiter is not active"}
		}
		ok, err := u.recruiters.HasJobAccess(ctx, *recruiterID, app.JobID)
		if err != nil {
			return PreScreenResult{}, ErrInternal
		}
		if !ok {
			return PreScreenResult{}, &PreconditionError{Reason: "recruiter has no access to job"}
		}
		assignee = *recruiterID
	} else {
		assignee, err = u.pickRecruiter(ctx, app.JobID)
		if err != nil {
			return PreScreenResult{}, err
		}
	}

	jobID := app.JobID
	rel, err := u.ledger.Establish(ctx, EstablishParams{
		RecruiterID:   assignee,
		CandidateID:   app.CandidateID,
		JobID:         &jobID,
		ConsentSource: "pre_screen:" + applicationID.String(),
	})
	if err != nil {
		// In auto mode an existing representation wins the assignment: route
		// to the holder instead of failing, as long as they can work the job.
		var conflict *ConflictError
		if recruiterID == nil && errors.As(err, &conflict) {
			ok, aerr := u.recruiters.HasJobAccess(ctx, conflict.RecruiterID, app.JobID)
			if aerr != nil {
				return PreScreenResult{}, ErrInternal
			}
			if !ok {
				return PreScreenResult{}, err
			}
			assignee = conflict.RecruiterID
			rel, err = u.ledger.Establish(ctx, EstablishParams{
				RecruiterID:   assignee,
				CandidateID:   app.CandidateID,
				JobID:         &jobID,
				ConsentSource: "pre_screen:" + applicationID.String(),
			})
		}
		if err != nil {
			return PreScreenResult{}, err
		}
	}

	// Stage stays put; only the recruiter assignment changes.
	if err := u.apps.AssignRecruiter(ctx, applicationID, assignee, u.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrStageConflict) {
			return PreScreenResult{}, ErrConflict
		}
		return PreScreenResult{}, ErrInternal
	}

	return PreScreenResult{
		ApplicationID:  applicationID,
		RecruiterID:    assignee,
		RelationshipID: rel.ID,
	}, nil
}

// pickRecruiter takes the least-loaded eligible recruiter in deterministic
// order; representation conflicts are resolved by the caller.
func (u *PreScreen) pickRecruiter(ctx context.Context, jobID uuid.UUID) (uuid.UUID, error) {
	loads, err := u.recruiters.EligibleForJob(ctx, jobID)
	if err != nil {
		return uuid.Nil, ErrInternal
	}
	if len(loads) == 0 {
		return uuid.Nil, &PreconditionError{Reason: "no eligible recruiter for job"}
	}
	return loads[0].ID, nil
}
