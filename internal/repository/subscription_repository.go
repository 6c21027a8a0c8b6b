package repository

import (
	"context"
	"errors"

	"talent-split/internal/database"
	"talent-split/internal/domain/placement"

	"github.com/google/uuid"
)

var ErrNoCurrentSubscription = errors.New("no current subscription for recruiter")

// SubscriptionRepository resolves a recruiter's current tier. Consulted at
// hire time only; the share recorded on a placement never changes afterwards.
type SubscriptionRepository interface {
	CurrentTier(ctx context.Context, recruiterID uuid.UUID) (placement.Tier, error)
}

type PostgresSubscriptionRepository struct {
	db database.DB
}

func NewPostgresSubscriptionRepository(db database.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) CurrentTier(ctx context.Context, recruiterID uuid.UUID) (placement.Tier, error) {
	var tier string
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT tier FROM subscriptions WHERE recruiter_id = $1 AND current`,
			recruiterID,
		).Scan(&tier)
	})
	if err != nil {
		if noRows(err) {
			return "", ErrNoCurrentSubscription
		}
		return "", err
	}
	return placement.Tier(tier), nil
}
