package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"talent-split/internal/domain/application"
	"talent-split/internal/domain/placement"
	"talent-split/internal/domain/relationship"
	"talent-split/internal/repository"

	"github.com/google/uuid"
)

// In-memory repository fakes shared by the usecase tests. Mutex-protected so
// the concurrency tests can hammer them from multiple goroutines.

type memApplicationRepo struct {
	mu         sync.Mutex
	apps       map[uuid.UUID]repository.ApplicationListRow
	events     map[uuid.UUID][]application.StageEvent
	placements map[uuid.UUID]placement.Placement
	missing    map[uuid.UUID]int

	// rels, when set, lets CommitHire expire the governing relationship the
	// way the real transaction does.
	rels        *memRelationshipRepo
	expiredRels []uuid.UUID
}

func newMemApplicationRepo() *memApplicationRepo {
	return &memApplicationRepo{
		apps:       make(map[uuid.UUID]repository.ApplicationListRow),
		events:     make(map[uuid.UUID][]application.StageEvent),
		placements: make(map[uuid.UUID]placement.Placement),
		missing:    make(map[uuid.UUID]int),
	}
}

func (m *memApplicationRepo) put(row repository.ApplicationListRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[row.Application.ID] = row
}

func (m *memApplicationRepo) Create(_ context.Context, app application.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.apps {
		existing := row.Application
		if existing.CandidateID == app.CandidateID && existing.JobID == app.JobID &&
			!existing.Stage.Terminal() {
			return repository.ErrDuplicateLiveApplication
		}
	}
	m.apps[app.ID] = repository.ApplicationListRow{Application: app}
	return nil
}

func (m *memApplicationRepo) GetByID(_ context.Context, id uuid.UUID) (repository.ApplicationListRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.apps[id]
	if !ok {
		return repository.ApplicationListRow{}, repository.ErrApplicationNotFound
	}
	return row, nil
}

func (m *memApplicationRepo) List(_ context.Context, filter repository.ApplicationListFilter) ([]repository.ApplicationListRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.ApplicationListRow, 0)
	for _, row := range m.apps {
		app := row.Application
		if filter.JobID != nil && app.JobID != *filter.JobID {
			continue
		}
		if filter.CandidateID != nil && app.CandidateID != *filter.CandidateID {
			continue
		}
		if filter.RecruiterID != nil && (app.RecruiterID == nil || *app.RecruiterID != *filter.RecruiterID) {
			continue
		}
		if filter.Stage != nil && app.Stage != *filter.Stage {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memApplicationRepo) UpdateStage(_ context.Context, id uuid.UUID, from application.Stage, ev application.StageEvent, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.apps[id]
	if !ok {
		return repository.ErrApplicationNotFound
	}
	if row.Application.Stage != from {
		return repository.ErrStageConflict
	}
	row.Application.Stage = ev.ToStage
	row.Application.UpdatedAt = updatedAt
	m.apps[id] = row
	m.events[id] = append(m.events[id], ev)
	return nil
}

func (m *memApplicationRepo) CommitHire(ctx context.Context, commit repository.HireCommit) error {
	m.mu.Lock()
	row, ok := m.apps[commit.ApplicationID]
	if !ok {
		m.mu.Unlock()
		return repository.ErrApplicationNotFound
	}
	if _, exists := m.placements[commit.ApplicationID]; exists {
		m.mu.Unlock()
		return repository.ErrPlacementExists
	}
	if row.Application.Stage != commit.FromStage {
		m.mu.Unlock()
		return repository.ErrStageConflict
	}
	row.Application.Stage = application.StageHired
	row.Application.UpdatedAt = commit.HiredAt
	m.apps[commit.ApplicationID] = row
	m.placements[commit.ApplicationID] = commit.Placement
	m.events[commit.ApplicationID] = append(m.events[commit.ApplicationID], commit.Event)
	if commit.RelationshipID != nil {
		m.expiredRels = append(m.expiredRels, *commit.RelationshipID)
	}
	m.mu.Unlock()

	if commit.RelationshipID != nil && m.rels != nil {
		_, _ = m.rels.Expire(ctx, *commit.RelationshipID, commit.HiredAt)
	}
	return nil
}

func (m *memApplicationRepo) Accept(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.apps[id]
	if !ok {
		return repository.ErrApplicationNotFound
	}
	if !row.Application.AcceptedByCompany {
		row.Application.AcceptedByCompany = true
		row.Application.AcceptedAt = &at
		m.apps[id] = row
	}
	return nil
}

func (m *memApplicationRepo) AssignRecruiter(_ context.Context, id, recruiterID uuid.UUID, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.apps[id]
	if !ok {
		return repository.ErrApplicationNotFound
	}
	if row.Application.RecruiterID != nil {
		return repository.ErrStageConflict
	}
	rid := recruiterID
	row.Application.RecruiterID = &rid
	row.Application.UpdatedAt = updatedAt
	m.apps[id] = row
	return nil
}

func (m *memApplicationRepo) CountUnansweredRequired(_ context.Context, applicationID, _ uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.missing[applicationID], nil
}

func (m *memApplicationRepo) Events(_ context.Context, applicationID uuid.UUID) ([]application.StageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]application.StageEvent(nil), m.events[applicationID]...), nil
}

type memRelationshipRepo struct {
	mu   sync.Mutex
	rels map[uuid.UUID]relationship.Relationship
}

func newMemRelationshipRepo() *memRelationshipRepo {
	return &memRelationshipRepo{rels: make(map[uuid.UUID]relationship.Relationship)}
}

func (m *memRelationshipRepo) put(rel relationship.Relationship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rels[rel.ID] = rel
}

func scopeEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Insert mirrors the partial unique index: at most one active relationship per
// (candidate, job scope).
func (m *memRelationshipRepo) Insert(_ context.Context, rel relationship.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rels {
		if existing.Status == relationship.StatusActive &&
			existing.CandidateID == rel.CandidateID &&
			scopeEqual(existing.JobID, rel.JobID) {
			return repository.ErrActiveRelationshipExists
		}
	}
	m.rels[rel.ID] = rel
	return nil
}

func (m *memRelationshipRepo) GetByID(_ context.Context, id uuid.UUID) (relationship.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel, ok := m.rels[id]
	if !ok {
		return relationship.Relationship{}, repository.ErrRelationshipNotFound
	}
	return rel, nil
}

func (m *memRelationshipRepo) ActiveGoverning(_ context.Context, candidateID, jobID uuid.UUID) ([]relationship.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var scoped, general []relationship.Relationship
	for _, rel := range m.rels {
		if rel.Status != relationship.StatusActive || rel.CandidateID != candidateID {
			continue
		}
		if rel.JobID == nil {
			general = append(general, rel)
		} else if *rel.JobID == jobID {
			scoped = append(scoped, rel)
		}
	}
	return append(scoped, general...), nil
}

func (m *memRelationshipRepo) ActiveGeneral(_ context.Context, candidateID uuid.UUID) (*relationship.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rel := range m.rels {
		if rel.Status == relationship.StatusActive && rel.CandidateID == candidateID && rel.JobID == nil {
			found := rel
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memRelationshipRepo) Terminate(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return m.flip(id, relationship.StatusTerminated, at)
}

func (m *memRelationshipRepo) Expire(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return m.flip(id, relationship.StatusExpired, at)
}

func (m *memRelationshipRepo) flip(id uuid.UUID, to relationship.Status, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel, ok := m.rels[id]
	if !ok || rel.Status != relationship.StatusActive {
		return false, nil
	}
	rel.Status = to
	rel.UpdatedAt = at
	m.rels[id] = rel
	return true, nil
}

func (m *memRelationshipRepo) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rel := range m.rels {
		if rel.Status == relationship.StatusActive && now.After(rel.EndDate) {
			rel.Status = relationship.StatusExpired
			rel.UpdatedAt = now
			m.rels[id] = rel
			n++
		}
	}
	return n, nil
}

func (m *memRelationshipRepo) List(_ context.Context, filter repository.RelationshipListFilter) ([]relationship.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]relationship.Relationship, 0)
	for _, rel := range m.rels {
		if filter.RecruiterID != nil && rel.RecruiterID != *filter.RecruiterID {
			continue
		}
		if filter.CandidateID != nil && rel.CandidateID != *filter.CandidateID {
			continue
		}
		if filter.Status != nil && rel.Status != *filter.Status {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

type mockJobRepo struct {
	terms map[uuid.UUID]repository.JobTerms
}

func (m mockJobRepo) GetTerms(_ context.Context, jobID uuid.UUID) (repository.JobTerms, error) {
	t, ok := m.terms[jobID]
	if !ok {
		return repository.JobTerms{}, repository.ErrJobNotFound
	}
	return t, nil
}

func (m mockJobRepo) ExistsByID(_ context.Context, jobID uuid.UUID) (bool, error) {
	_, ok := m.terms[jobID]
	return ok, nil
}

type mockDocumentRepo struct {
	existing map[uuid.UUID]bool
}

func (m mockDocumentRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.existing[id], nil
}

type mockSubscriptionRepo struct {
	tiers map[uuid.UUID]placement.Tier
}

func (m mockSubscriptionRepo) CurrentTier(_ context.Context, recruiterID uuid.UUID) (placement.Tier, error) {
	t, ok := m.tiers[recruiterID]
	if !ok {
		return "", repository.ErrNoCurrentSubscription
	}
	return t, nil
}

type mockRecruiterRepo struct {
	active   map[uuid.UUID]bool
	access   map[uuid.UUID]map[uuid.UUID]bool
	eligible map[uuid.UUID][]repository.RecruiterLoad
}

func (m mockRecruiterRepo) ExistsActive(_ context.Context, recruiterID uuid.UUID) (bool, error) {
	return m.active[recruiterID], nil
}

func (m mockRecruiterRepo) HasJobAccess(_ context.Context, recruiterID, jobID uuid.UUID) (bool, error) {
	return m.access[jobID][recruiterID], nil
}

func (m mockRecruiterRepo) EligibleForJob(_ context.Context, jobID uuid.UUID) ([]repository.RecruiterLoad, error) {
	return m.eligible[jobID], nil
}

type memInvitationRepo struct {
	mu   sync.Mutex
	invs map[uuid.UUID]repository.Invitation
}

func newMemInvitationRepo() *memInvitationRepo {
	return &memInvitationRepo{invs: make(map[uuid.UUID]repository.Invitation)}
}

func (m *memInvitationRepo) Create(_ context.Context, inv repository.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invs[inv.ID] = inv
	return nil
}

func (m *memInvitationRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invs[id]
	if !ok {
		return repository.Invitation{}, repository.ErrInvitationNotFound
	}
	return inv, nil
}

func (m *memInvitationRepo) MarkAccepted(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return m.flip(id, repository.InvitationAccepted, at)
}

func (m *memInvitationRepo) MarkRevoked(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return m.flip(id, repository.InvitationRevoked, at)
}

func (m *memInvitationRepo) flip(id uuid.UUID, to repository.InvitationStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invs[id]
	if !ok || inv.Status != repository.InvitationPending {
		return false, nil
	}
	inv.Status = to
	inv.UpdatedAt = at
	m.invs[id] = inv
	return true, nil
}

type memListCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	counters map[string]int64
}

func newMemListCache() *memListCache {
	return &memListCache{
		entries:  map[string][]byte{},
		counters: map[string]int64{},
	}
}

func (c *memListCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (c *memListCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memListCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *memListCache) GetInt(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[key], nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePublisher) Publish(evt Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *capturePublisher) byType(t string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
