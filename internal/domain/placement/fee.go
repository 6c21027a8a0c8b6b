package placement

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid fee input")

// Tier is a recruiter subscription level. It fixes the recruiter's share of the
// placement fee at hire time; later tier changes never touch existing placements.
type Tier string

const (
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
	TierPartner Tier = "partner"
)

// SharePercent is the recruiter share of the fee per tier, in percent.
func (t Tier) SharePercent() (float64, bool) {
	switch t {
	case TierStarter:
		return 65, true
	case TierPro:
		return 75, true
	case TierPartner:
		return 85, true
	default:
		return 0, false
	}
}

// Split is a fee division in minor currency units (cents).
// RecruiterCents + PlatformCents always equals FeeCents.
type Split struct {
	FeeCents       int64
	RecruiterCents int64
	PlatformCents  int64
	SharePercent   float64
}

// ComputeSplit derives the fee and its recruiter/platform division from a salary
// in cents, a fee percentage, and the recruiter tier. Rounding is half-up to the
// cent; the rounding remainder goes to the platform so the parts reconcile exactly.
func ComputeSplit(salaryCents int64, feePercent float64, tier Tier) (Split, error) {
	if salaryCents <= 0 {
		return Split{}, ErrInvalidInput
	}
	if feePercent <= 0 || feePercent > 100 {
		return Split{}, ErrInvalidInput
	}
	share, ok := tier.SharePercent()
	if !ok {
		return Split{}, ErrInvalidInput
	}

	fee := roundHalfUp(float64(salaryCents) * feePercent / 100)
	recruiter := roundHalfUp(float64(fee) * share / 100)
	return Split{
		FeeCents:       fee,
		RecruiterCents: recruiter,
		PlatformCents:  fee - recruiter,
		SharePercent:   share,
	}, nil
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// Placement is the financial record of a hire. Created exactly once per
// application; corrections are new compensating records, never updates.
type Placement struct {
	ID                        uuid.UUID
	ApplicationID             uuid.UUID
	RecruiterID               uuid.UUID
	SalaryCents               int64
	FeePercent                float64
	FeeCents                  int64
	RecruiterSharePercent     float64
	RecruiterCents            int64
	PlatformCents             int64
	HiredAt                   time.Time
	CompensatesForPlacementID *uuid.UUID
}
