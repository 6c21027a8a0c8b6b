package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"talent-split/internal/domain/placement"
	"talent-split/internal/repository"

	"github.com/google/uuid"
)

type mockPlacementRepo struct {
	byApp map[uuid.UUID]placement.Placement
}

func (m mockPlacementRepo) GetByApplicationID(_ context.Context, applicationID uuid.UUID) (placement.Placement, error) {
	p, ok := m.byApp[applicationID]
	if !ok {
		return placement.Placement{}, repository.ErrPlacementNotFound
	}
	return p, nil
}

func (m mockPlacementRepo) List(_ context.Context, filter repository.PlacementListFilter) ([]placement.Placement, error) {
	var out []placement.Placement
	for _, p := range m.byApp {
		if filter.RecruiterID != nil && p.RecruiterID != *filter.RecruiterID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func TestPlacements_GetByApplication_RecruiterScoping(t *testing.T) {
	owner := uuid.New()
	appID := uuid.New()
	repo := mockPlacementRepo{byApp: map[uuid.UUID]placement.Placement{
		appID: {ID: uuid.New(), ApplicationID: appID, RecruiterID: owner, FeeCents: 100, HiredAt: time.Now().UTC()},
	}}
	uc := NewPlacementUsecase(repo)

	if _, err := uc.GetByApplication(context.Background(), appID, Actor{ID: owner, Role: RoleRecruiter}); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := uc.GetByApplication(context.Background(), appID, Actor{ID: uuid.New(), Role: RoleRecruiter}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other recruiter, got %v", err)
	}
	if _, err := uc.GetByApplication(context.Background(), uuid.New(), Actor{Role: RoleAdmin}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlacements_List_RecruiterSeesOnlyOwn(t *testing.T) {
	mine := uuid.New()
	repo := mockPlacementRepo{byApp: map[uuid.UUID]placement.Placement{
		uuid.New(): {ID: uuid.New(), RecruiterID: mine},
		uuid.New(): {ID: uuid.New(), RecruiterID: uuid.New()},
	}}
	uc := NewPlacementUsecase(repo)

	views, err := uc.List(context.Background(), Actor{ID: mine, Role: RoleRecruiter}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(views) != 1 || views[0].RecruiterID != mine {
		t.Fatalf("recruiter list not scoped: %+v", views)
	}

	all, err := uc.List(context.Background(), Actor{Role: RoleAdmin}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin should see all, got %d", len(all))
	}
}
