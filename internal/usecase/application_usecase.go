package usecase

import (
	"context"
	"errors"
	"time"

	"talent-split/internal/domain/application"
	"talent-split/internal/domain/candidate"
	"talent-split/internal/domain/placement"
	"talent-split/internal/pkg/keylock"
	"talent-split/internal/pkg/workerpool"
	"talent-split/internal/repository"

	"github.com/google/uuid"
)

type CreateApplicationParams struct {
	CandidateID     uuid.UUID
	JobID           uuid.UUID
	RecruiterID     *uuid.UUID
	PrimaryResumeID *uuid.UUID
	Notes           string
	ConsentSource   string
}

type ApplicationListParams struct {
	JobID       *uuid.UUID
	RecruiterID *uuid.UUID
	CandidateID *uuid.UUID
	Stage       string
	Limit       int
	Offset      int
}

// ApplicationView is the read projection handed to callers. Candidate identity
// obeys the masking rule; the id is always real.
type ApplicationView struct {
	ID                uuid.UUID  `json:"id"`
	CandidateID       uuid.UUID  `json:"candidate_id"`
	JobID             uuid.UUID  `json:"job_id"`
	RecruiterID       *uuid.UUID `json:"recruiter_id,omitempty"`
	Stage             string     `json:"stage"`
	AcceptedByCompany bool       `json:"accepted_by_company"`
	CandidateName     string     `json:"candidate_name"`
	CandidateEmail    string     `json:"candidate_email"`
	CandidateMasked   bool       `json:"candidate_masked"`
	Notes             string     `json:"notes,omitempty"`
	RecruiterNotes    string     `json:"recruiter_notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
}

type BulkTransitionResult struct {
	ApplicationID uuid.UUID `json:"application_id"`
	OK            bool      `json:"ok"`
	Error         string    `json:"error,omitempty"`

	Err error `json:"-"`
}

// RelationshipEstablisher is the slice of the relationship ledger the
// application service needs for submission-with-consent.
type RelationshipEstablisher interface {
	Establish(ctx context.Context, params EstablishParams) (RelationshipView, error)
}

type ApplicationUsecase interface {
	Create(ctx context.Context, params CreateApplicationParams, actor Actor) (ApplicationView, error)
	Transition(ctx context.Context, appID uuid.UUID, target application.Stage, actor Actor, reason string) (ApplicationView, error)
	BulkTransition(ctx context.Context, ids []uuid.UUID, target application.Stage, actor Actor, reason string) []BulkTransitionResult
	Accept(ctx context.Context, appID uuid.UUID, actor Actor) (ApplicationView, error)
	Get(ctx context.Context, appID uuid.UUID, actor Actor) (ApplicationView, error)
	List(ctx context.Context, params ApplicationListParams, actor Actor) ([]ApplicationView, error)
	History(ctx context.Context, appID uuid.UUID, actor Actor) ([]application.StageEvent, error)
}

type Applications struct {
	apps   repository.ApplicationRepository
	jobs   repository.JobRepository
	rels   repository.RelationshipRepository
	docs   repository.DocumentRepository
	subs   repository.SubscriptionRepository
	ledger RelationshipEstablisher

	locks       *keylock.KeyLock
	lockTimeout time.Duration
	bulkWorkers int

	cache    ListCache
	cacheTTL time.Duration
	events   EventPublisher

	now   func() time.Time
	newID func() uuid.UUID
}

type ApplicationsConfig struct {
	LockTimeout time.Duration
	BulkWorkers int
	CacheTTL    time.Duration
}

func NewApplicationUsecase(
	apps repository.ApplicationRepository,
	jobs repository.JobRepository,
	rels repository.RelationshipRepository,
	docs repository.DocumentRepository,
	subs repository.SubscriptionRepository,
	ledger RelationshipEstablisher,
	locks *keylock.KeyLock,
	cache ListCache,
	events EventPublisher,
	cfg ApplicationsConfig,
) *Applications {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 3 * time.Second
	}
	if cfg.BulkWorkers <= 0 {
		cfg.BulkWorkers = 4
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &Applications{
		apps:        apps,
		jobs:        jobs,
		rels:        rels,
		docs:        docs,
		subs:        subs,
		ledger:      ledger,
		locks:       locks,
		lockTimeout: cfg.LockTimeout,
		bulkWorkers: cfg.BulkWorkers,
		cache:       cache,
		cacheTTL:    cfg.CacheTTL,
		events:      events,
		now:         time.Now,
		newID:       uuid.New,
	}
}

func (u *Applications) Create(ctx context.Context, params CreateApplicationParams, actor Actor) (ApplicationView, error) {
	if params.CandidateID == uuid.Nil || params.JobID == uuid.Nil {
		return ApplicationView{}, ErrInvalidInput
	}

	terms, err := u.jobs.GetTerms(ctx, params.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return ApplicationView{}, ErrNotFound
		}
		return ApplicationView{}, ErrInternal
	}
	if !terms.Open {
		return ApplicationView{}, &PreconditionError{Reason: "job is closed"}
	}

	// A recruiter submission records consent and claims representation up
	// front; the ledger's exclusivity check runs before the application lands.
	if params.RecruiterID != nil {
		jobID := params.JobID
		_, err := u.ledger.Establish(ctx, EstablishParams{
			RecruiterID:   *params.RecruiterID,
			CandidateID:   params.CandidateID,
			JobID:         &jobID,
			ConsentSource: params.ConsentSource,
		})
		if err != nil {
			return ApplicationView{}, err
		}
	}

	now := u.now().UTC()
	app := application.Application{
		ID:              u.newID(),
		CandidateID:     params.CandidateID,
		JobID:           params.JobID,
		RecruiterID:     params.RecruiterID,
		Stage:           application.StageDraft,
		PrimaryResumeID: params.PrimaryResumeID,
		Notes:           params.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := u.apps.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicateLiveApplication) {
			return ApplicationView{}, ErrConflict
		}
		return ApplicationView{}, ErrInternal
	}

	u.bumpListVersion(ctx)

	row := repository.ApplicationListRow{Application: app}
	if got, err := u.apps.GetByID(ctx, app.ID); err == nil {
		row = got
	}
	return u.project(row, actor), nil
}

// Transition is the single write path for stage changes. Everything else in
// the system reads stage; nothing else sets it.
func (u *Applications) Transition(ctx context.Context, appID uuid.UUID, target application.Stage, actor Actor, reason string) (ApplicationView, error) {
	if !target.Valid() {
		return ApplicationView{}, ErrInvalidInput
	}

	release, err := u.lock(ctx, "application:"+appID.String())
	if err != nil {
		return ApplicationView{}, err
	}
	defer release()

	row, err := u.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return ApplicationView{}, ErrNotFound
		}
		return ApplicationView{}, ErrInternal
	}
	app := row.Application

	// Re-applying the current stage is a no-op success.
	if app.Stage == target {
		return u.project(row, actor), nil
	}
	if !application.CanTransition(app.Stage, target) {
		return ApplicationView{}, &TransitionError{Current: app.Stage, Target: target}
	}

	// Skipping ai_review straight to screen is only open to jobs that opted
	// out of review.
	if app.Stage == application.StageDraft && target == application.StageScreen {
		terms, err := u.jobs.GetTerms(ctx, app.JobID)
		if err != nil {
			return ApplicationView{}, ErrInternal
		}
		if terms.RequiresReview {
			return ApplicationView{}, &PreconditionError{Reason: "job requires ai review before screening"}
		}
	}

	now := u.now().UTC()
	ev := application.StageEvent{
		ID:            u.newID(),
		ApplicationID: app.ID,
		ActorID:       actor.ID,
		FromStage:     app.Stage,
		ToStage:       target,
		Reason:        reason,
		OccurredAt:    now,
	}

	switch target {
	case application.StageSubmitted:
		if err := u.checkSubmitPreconditions(ctx, app); err != nil {
			return ApplicationView{}, err
		}
		if err := u.apps.UpdateStage(ctx, app.ID, app.Stage, ev, now); err != nil {
			return ApplicationView{}, mapStageWriteError(err)
		}
	case application.StageHired:
		if err := u.commitHire(ctx, app, ev, now); err != nil {
			return ApplicationView{}, err
		}
	default:
		if err := u.apps.UpdateStage(ctx, app.ID, app.Stage, ev, now); err != nil {
			return ApplicationView{}, mapStageWriteError(err)
		}
	}

	u.bumpListVersion(ctx)
	u.events.Publish(Event{
		Type:       EventApplicationStageChanged,
		OccurredAt: now,
		Payload: StageChangedPayload{
			ApplicationID: app.ID,
			FromStage:     string(app.Stage),
			ToStage:       string(target),
			ActorID:       actor.ID,
		},
	})

	updated, err := u.apps.GetByID(ctx, appID)
	if err != nil {
		return ApplicationView{}, ErrInternal
	}
	return u.project(updated, actor), nil
}

func (u *Applications) checkSubmitPreconditions(ctx context.Context, app application.Application) error {
	if app.PrimaryResumeID == nil {
		return &PreconditionError{Reason: "primary resume not set"}
	}
	exists, err := u.docs.Exists(ctx, *app.PrimaryResumeID)
	if err != nil {
		return ErrInternal
	}
	if !exists {
		return &PreconditionError{Reason: "primary resume document not found"}
	}

	missing, err := u.apps.CountUnansweredRequired(ctx, app.ID, app.JobID)
	if err != nil {
		return ErrInternal
	}
	if missing > 0 {
		return &PreconditionError{Reason: "required pre-screen answers missing"}
	}
	return nil
}

// commitHire resolves the tier, computes the split, and hands the repository
// one atomic unit: stage write, placement insert, relationship expiry, audit.
func (u *Applications) commitHire(ctx context.Context, app application.Application, ev application.StageEvent, now time.Time) error {
	if app.RecruiterID == nil {
		return &PreconditionError{Reason: "application has no recruiter assigned"}
	}

	terms, err := u.jobs.GetTerms(ctx, app.JobID)
	if err != nil {
		return ErrInternal
	}

	tier, err := u.subs.CurrentTier(ctx, *app.RecruiterID)
	if err != nil {
		if errors.Is(err, repository.ErrNoCurrentSubscription) {
			return &PreconditionError{Reason: "recruiter has no current subscription"}
		}
		return ErrInternal
	}

	split, err := placement.ComputeSplit(terms.SalaryCents, terms.FeePercent, tier)
	if err != nil {
		return ErrInvalidInput
	}

	p := placement.Placement{
		ID:                    u.newID(),
		ApplicationID:         app.ID,
		RecruiterID:           *app.RecruiterID,
		SalaryCents:           terms.SalaryCents,
		FeePercent:            terms.FeePercent,
		FeeCents:              split.FeeCents,
		RecruiterSharePercent: split.SharePercent,
		RecruiterCents:        split.RecruiterCents,
		PlatformCents:         split.PlatformCents,
		HiredAt:               now,
	}

	commit := repository.HireCommit{
		ApplicationID: app.ID,
		FromStage:     app.Stage,
		Event:         ev,
		Placement:     p,
		HiredAt:       now,
	}

	// The governing relationship is the hiring recruiter's job-scoped grant,
	// or their general one. Grants held by others never expire on this hire.
	governing, err := u.rels.ActiveGoverning(ctx, app.CandidateID, app.JobID)
	if err != nil {
		return ErrInternal
	}
	for _, rel := range governing {
		if rel.RecruiterID == *app.RecruiterID {
			id := rel.ID
			commit.RelationshipID = &id
			break
		}
	}

	if err := u.apps.CommitHire(ctx, commit); err != nil {
		if errors.Is(err, repository.ErrPlacementExists) {
			return ErrConflict
		}
		return mapStageWriteError(err)
	}

	u.events.Publish(Event{
		Type:       EventPlacementCreated,
		OccurredAt: now,
		Payload: PlacementCreatedPayload{
			PlacementID:    p.ID,
			ApplicationID:  p.ApplicationID,
			RecruiterID:    p.RecruiterID,
			FeeCents:       p.FeeCents,
			RecruiterCents: p.RecruiterCents,
			PlatformCents:  p.PlatformCents,
		},
	})
	return nil
}

// BulkTransition applies the target stage item by item: one bad application
// never poisons the batch, and results come back in input order.
func (u *Applications) BulkTransition(ctx context.Context, ids []uuid.UUID, target application.Stage, actor Actor, reason string) []BulkTransitionResult {
	tasks := make([]workerpool.Task, len(ids))
	for i, id := range ids {
		appID := id
		tasks[i] = func(ctx context.Context) error {
			_, err := u.Transition(ctx, appID, target, actor, reason)
			return err
		}
	}

	errs := workerpool.New(u.bulkWorkers).Run(ctx, tasks)

	results := make([]BulkTransitionResult, len(ids))
	for i, id := range ids {
		results[i] = BulkTransitionResult{ApplicationID: id, OK: errs[i] == nil, Err: errs[i]}
		if errs[i] != nil {
			results[i].Error = errs[i].Error()
		}
	}
	return results
}

// Accept flips accepted_by_company. One way, idempotent, independent of stage.
func (u *Applications) Accept(ctx context.Context, appID uuid.UUID, actor Actor) (ApplicationView, error) {
	release, err := u.lock(ctx, "application:"+appID.String())
	if err != nil {
		return ApplicationView{}, err
	}
	defer release()

	if err := u.apps.Accept(ctx, appID, u.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return ApplicationView{}, ErrNotFound
		}
		return ApplicationView{}, ErrInternal
	}

	u.bumpListVersion(ctx)

	row, err := u.apps.GetByID(ctx, appID)
	if err != nil {
		return ApplicationView{}, ErrInternal
	}
	return u.project(row, actor), nil
}

func (u *Applications) Get(ctx context.Context, appID uuid.UUID, actor Actor) (ApplicationView, error) {
	row, err := u.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return ApplicationView{}, ErrNotFound
		}
		return ApplicationView{}, ErrInternal
	}
	return u.project(row, actor), nil
}

func (u *Applications) List(ctx context.Context, params ApplicationListParams, actor Actor) ([]ApplicationView, error) {
	var stageFilter *application.Stage
	if params.Stage != "" {
		st, ok := application.ParseStage(params.Stage)
		if !ok {
			return nil, ErrInvalidInput
		}
		stageFilter = &st
	}

	var key string
	if u.cache != nil {
		ver, err := u.cache.GetInt(ctx, applicationsListVersionKey)
		if err == nil {
			key = applicationsListCacheKey(ver, params, actor.Role)
			var cached []ApplicationView
			if ok, err := u.cache.GetJSON(ctx, key, &cached); err == nil && ok {
				return cached, nil
			}
		}
	}

	rows, err := u.apps.List(ctx, repository.ApplicationListFilter{
		JobID:       params.JobID,
		RecruiterID: params.RecruiterID,
		CandidateID: params.CandidateID,
		Stage:       stageFilter,
		Limit:       params.Limit,
		Offset:      params.Offset,
	})
	if err != nil {
		return nil, ErrInternal
	}

	views := make([]ApplicationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, u.project(row, actor))
	}

	if u.cache != nil && key != "" {
		_ = u.cache.SetJSON(ctx, key, views, u.cacheTTL)
	}
	return views, nil
}

func (u *Applications) History(ctx context.Context, appID uuid.UUID, actor Actor) ([]application.StageEvent, error) {
	if _, err := u.Get(ctx, appID, actor); err != nil {
		return nil, err
	}
	events, err := u.apps.Events(ctx, appID)
	if err != nil {
		return nil, ErrInternal
	}
	return events, nil
}

func (u *Applications) project(row repository.ApplicationListRow, actor Actor) ApplicationView {
	app := row.Application
	identity := candidate.Project(
		candidate.Candidate{ID: app.CandidateID, FullName: row.CandidateName, Email: row.CandidateEmail},
		actor.CompanyReader(),
		app.AcceptedByCompany,
	)

	view := ApplicationView{
		ID:                app.ID,
		CandidateID:       app.CandidateID,
		JobID:             app.JobID,
		RecruiterID:       app.RecruiterID,
		Stage:             string(app.Stage),
		AcceptedByCompany: app.AcceptedByCompany,
		CandidateName:     identity.Name,
		CandidateEmail:    identity.Email,
		CandidateMasked:   identity.Masked,
		Notes:             app.Notes,
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
		AcceptedAt:        app.AcceptedAt,
	}
	if actor.Role == RoleRecruiter || actor.Role == RoleAdmin {
		view.RecruiterNotes = app.RecruiterNotes
	}
	return view
}

func (u *Applications) lock(ctx context.Context, key string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, u.lockTimeout)
	defer cancel()
	release, err := u.locks.Acquire(lockCtx, key)
	if err != nil {
		return nil, ErrBusy
	}
	return release, nil
}

func (u *Applications) bumpListVersion(ctx context.Context) {
	if u.cache == nil {
		return
	}
	_, _ = u.cache.Incr(ctx, applicationsListVersionKey)
}

func mapStageWriteError(err error) error {
	if errors.Is(err, repository.ErrStageConflict) {
		return ErrConflict
	}
	return ErrInternal
}
