package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"talent-split/internal/domain/relationship"
	"talent-split/internal/pkg/keylock"
	"talent-split/internal/repository"

	"github.com/google/uuid"
)

func newRelFixture() (*Relationships, *memRelationshipRepo, *capturePublisher) {
	repo := newMemRelationshipRepo()
	events := &capturePublisher{}
	uc := NewRelationshipUsecase(repo, keylock.New(), events, time.Second)
	return uc, repo, events
}

func TestRelationships_Establish_SecondRecruiterConflicts(t *testing.T) {
	uc, _, _ := newRelFixture()
	candidateID := uuid.New()
	jobID := uuid.New()
	recruiterA := uuid.New()
	recruiterB := uuid.New()

	first, err := uc.Establish(context.Background(), EstablishParams{
		RecruiterID: recruiterA, CandidateID: candidateID, JobID: &jobID, ConsentSource: "invitation:a",
	})
	if err != nil {
		t.Fatalf("first establish: %v", err)
	}
	if first.Status != string(relationship.StatusActive) {
		t.Fatalf("unexpected status %s", first.Status)
	}

	_, err = uc.Establish(context.Background(), EstablishParams{
		RecruiterID: recruiterB, CandidateID: candidateID, JobID: &jobID, ConsentSource: "invitation:b",
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.RelationshipID != first.ID || conflict.RecruiterID != recruiterA {
		t.Fatalf("conflict should name the holder: %+v", conflict)
	}
}

func TestRelationships_Establish_SameRecruiterIdempotent(t *testing.T) {
	uc, _, _ := newRelFixture()
	candidateID := uuid.New()
	jobID := uuid.New()
	recruiterID := uuid.New()
	params := EstablishParams{
		RecruiterID: recruiterID, CandidateID: candidateID, JobID: &jobID, ConsentSource: "invitation:a",
	}

	first, err := uc.Establish(context.Background(), params)
	if err != nil {
		t.Fatalf("first establish: %v", err)
	}
	second, err := uc.Establish(context.Background(), params)
	if err != nil {
		t.Fatalf("repeat establish: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat establish created a new relationship: %s vs %s", second.ID, first.ID)
	}
}

func TestRelationships_Establish_GeneralBlocksJobScoped(t *testing.T) {
	uc, _, _ := newRelFixture()
	candidateID := uuid.New()
	jobID := uuid.New()
	holder := uuid.New()

	general, err := uc.Establish(context.Background(), EstablishParams{
		RecruiterID: holder, CandidateID: candidateID, ConsentSource: "invitation:g",
	})
	if err != nil {
		t.Fatalf("general establish: %v", err)
	}

	_, err = uc.Establish(context.Background(), EstablishParams{
		RecruiterID: uuid.New(), CandidateID: candidateID, JobID: &jobID, ConsentSource: "invitation:j",
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.RelationshipID != general.ID {
		t.Fatalf("general grant should block job-scoped establishment, got %v", err)
	}

	// The holder narrowing down to a job scope is allowed.
	scoped, err := uc.Establish(context.Background(), EstablishParams{
		RecruiterID: holder, CandidateID: candidateID, JobID: &jobID, ConsentSource: "invitation:j",
	})
	if err != nil {
		t.Fatalf("holder job-scoped establish: %v", err)
	}
	if scoped.ID != general.ID {
		t.Fatalf("holder should get the governing general grant back, got %s", scoped.ID)
	}
}

func TestRelationships_Establish_DifferentJobsCoexist(t *testing.T) {
	uc, _, _ := newRelFixture()
	candidateID := uuid.New()
	jobA := uuid.New()
	jobB := uuid.New()

	if _, err := uc.Establish(context.Background(), EstablishParams{
		RecruiterID: uuid.New(), CandidateID: candidateID, JobID: &jobA, ConsentSource: "invitation:a",
	}); err != nil {
		t.Fatalf("job A establish: %v", err)
	}
	if _, err := uc.Establish(context.Background(), EstablishParams{
		RecruiterID: uuid.New(), CandidateID: candidateID, JobID: &jobB, ConsentSource: "invitation:b",
	}); err != nil {
		t.Fatalf("job B establish should not conflict: %v", err)
	}
}

func TestRelationships_Establish_ExpiredGrantDoesNotBlock(t *testing.T) {
	uc, repo, _ := newRelFixture()
	candidateID := uuid.New()
	jobID := uuid.New()

	start := time.Now().UTC().AddDate(-2, 0, 0)
	stale := relationship.Relationship{
		ID:          uuid.New(),
		RecruiterID: uuid.New(),
		CandidateID: candidateID,
		JobID:       &jobID,
		Status:      relationship.StatusActive,
		StartDate:   start,
		EndDate:     relationship.EndDate(start),
	}
	repo.put(stale)

	fresh, err := uc.Establish(context.Background(), EstablishParams{
		RecruiterID: uuid.New(), CandidateID: candidateID, JobID: &jobID, ConsentSource: "invitation:n",
	})
	if err != nil {
		t.Fatalf("establish over lapsed grant: %v", err)
	}
	if fresh.ID == stale.ID {
		t.Fatalf("expected a new relationship")
	}

	got, _ := repo.GetByID(context.Background(), stale.ID)
	if got.Status != relationship.StatusExpired {
		t.Fatalf("lapsed grant should be expired on read, got %s", got.Status)
	}
}

func TestRelationships_Establish_ConcurrentWritersSingleWinner(t *testing.T) {
	uc, repo, _ := newRelFixture()
	candidateID := uuid.New()
	jobID := uuid.New()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Establish(context.Background(), EstablishParams{
				RecruiterID:   uuid.New(),
				CandidateID:   candidateID,
				JobID:         &jobID,
				ConsentSource: "invitation:race",
			})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}

	active, err := repo.ActiveGoverning(context.Background(), candidateID, jobID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected one active relationship, got %d", len(active))
	}
}

func TestRelationships_Terminate_IdempotentAndPublishesOnce(t *testing.T) {
	uc, _, events := newRelFixture()
	rel, err := uc.Establish(context.Background(), EstablishParams{
		RecruiterID: uuid.New(), CandidateID: uuid.New(), ConsentSource: "invitation:t",
	})
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	actor := Actor{ID: rel.RecruiterID, Role: RoleRecruiter}
	if err := uc.Terminate(context.Background(), rel.ID, actor); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := uc.Terminate(context.Background(), rel.ID, actor); err != nil {
		t.Fatalf("repeat terminate: %v", err)
	}

	if got := events.byType(EventRelationshipTerminated); len(got) != 1 {
		t.Fatalf("expected one terminated event, got %d", len(got))
	}

	view, err := uc.Get(context.Background(), rel.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Status != string(relationship.StatusTerminated) {
		t.Fatalf("unexpected status %s", view.Status)
	}
}

func TestRelationships_Terminate_NotFound(t *testing.T) {
	uc, _, _ := newRelFixture()
	err := uc.Terminate(context.Background(), uuid.New(), Actor{Role: RoleAdmin})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRelationships_SweepExpired(t *testing.T) {
	uc, repo, _ := newRelFixture()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		start := now.AddDate(-2, 0, 0)
		repo.put(relationship.Relationship{
			ID:          uuid.New(),
			RecruiterID: uuid.New(),
			CandidateID: uuid.New(),
			Status:      relationship.StatusActive,
			StartDate:   start,
			EndDate:     relationship.EndDate(start),
		})
	}
	repo.put(relationship.Relationship{
		ID:          uuid.New(),
		RecruiterID: uuid.New(),
		CandidateID: uuid.New(),
		Status:      relationship.StatusActive,
		StartDate:   now,
		EndDate:     relationship.EndDate(now),
	})

	n, err := uc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 expired, got %d", n)
	}

	status := relationship.StatusActive
	active, err := uc.List(context.Background(), repository.RelationshipListFilter{Status: &status})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 still active, got %d", len(active))
	}
}

func TestRelationships_Terminate_OnlyPartiesOrAdmin(t *testing.T) {
	uc, _, events := newRelFixture()
	rel, err := uc.Establish(context.Background(), EstablishParams{
		RecruiterID: uuid.New(), CandidateID: uuid.New(), ConsentSource: "invitation:p",
	})
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	rival := Actor{ID: uuid.New(), Role: RoleRecruiter}
	if err := uc.Terminate(context.Background(), rel.ID, rival); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for outsider, got %v", err)
	}

	view, err := uc.Get(context.Background(), rel.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Status != string(relationship.StatusActive) {
		t.Fatalf("grant must survive a foreign terminate, got %s", view.Status)
	}
	if got := events.byType(EventRelationshipTerminated); len(got) != 0 {
		t.Fatalf("no terminated event expected, got %d", len(got))
	}

	candidate := Actor{ID: rel.CandidateID, Role: RoleCandidate}
	if err := uc.Terminate(context.Background(), rel.ID, candidate); err != nil {
		t.Fatalf("candidate terminate: %v", err)
	}
}

func TestRelationships_Establish_GeneralAndScopedContendOnSameLock(t *testing.T) {
	uc, _, _ := newRelFixture()
	uc.lockTimeout = 10 * time.Millisecond
	candidateID := uuid.New()

	release, err := uc.locks.Acquire(context.Background(), relationshipLockKey(candidateID))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	jobID := uuid.New()
	_, err = uc.Establish(context.Background(), EstablishParams{
		RecruiterID: uuid.New(), CandidateID: candidateID, JobID: &jobID, ConsentSource: "invitation:s",
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for job-scoped establish, got %v", err)
	}

	_, err = uc.Establish(context.Background(), EstablishParams{
		RecruiterID: uuid.New(), CandidateID: candidateID, ConsentSource: "invitation:g",
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for general establish, got %v", err)
	}
}
