package placement

import (
	"errors"
	"testing"
)

func TestComputeSplit_DocumentedExample(t *testing.T) {
	got, err := ComputeSplit(120000, 20, TierPro)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.FeeCents != 24000 {
		t.Fatalf("fee = %d, want 24000", got.FeeCents)
	}
	if got.RecruiterCents != 18000 {
		t.Fatalf("recruiter = %d, want 18000", got.RecruiterCents)
	}
	if got.PlatformCents != 6000 {
		t.Fatalf("platform = %d, want 6000", got.PlatformCents)
	}
}

func TestComputeSplit_TierShares(t *testing.T) {
	cases := []struct {
		tier      Tier
		recruiter int64
		platform  int64
	}{
		{TierStarter, 6500, 3500},
		{TierPro, 7500, 2500},
		{TierPartner, 8500, 1500},
	}
	for _, tc := range cases {
		got, err := ComputeSplit(100000, 10, tc.tier)
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", tc.tier, err)
		}
		if got.FeeCents != 10000 {
			t.Fatalf("%s: fee = %d, want 10000", tc.tier, got.FeeCents)
		}
		if got.RecruiterCents != tc.recruiter || got.PlatformCents != tc.platform {
			t.Fatalf("%s: split = (%d, %d), want (%d, %d)",
				tc.tier, got.RecruiterCents, got.PlatformCents, tc.recruiter, tc.platform)
		}
	}
}

func TestComputeSplit_RemainderGoesToPlatform(t *testing.T) {
	// fee = round(333 * 10%) = 33; recruiter = round(33 * 65%) = round(21.45) = 21.
	got, err := ComputeSplit(333, 10, TierStarter)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.FeeCents != 33 || got.RecruiterCents != 21 || got.PlatformCents != 12 {
		t.Fatalf("split = %+v", got)
	}
	if got.RecruiterCents+got.PlatformCents != got.FeeCents {
		t.Fatalf("split does not reconcile: %+v", got)
	}
}

func TestComputeSplit_RoundsHalfUp(t *testing.T) {
	// 101 * 2.5% = 2.525 -> 3 cents with half-up rounding.
	got, err := ComputeSplit(101, 2.5, TierPro)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.FeeCents != 3 {
		t.Fatalf("fee = %d, want 3", got.FeeCents)
	}
}

func TestComputeSplit_InvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		salary int64
		pct    float64
		tier   Tier
	}{
		{"zero salary", 0, 20, TierPro},
		{"negative salary", -1, 20, TierPro},
		{"zero fee", 100000, 0, TierPro},
		{"fee over 100", 100000, 100.01, TierPro},
		{"unknown tier", 100000, 20, Tier("platinum")},
	}
	for _, tc := range cases {
		if _, err := ComputeSplit(tc.salary, tc.pct, tc.tier); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestComputeSplit_Deterministic(t *testing.T) {
	a, err := ComputeSplit(987654, 17.5, TierPartner)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := ComputeSplit(987654, 17.5, TierPartner)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a != b {
		t.Fatalf("same input produced different splits: %+v vs %+v", a, b)
	}
	if a.RecruiterCents+a.PlatformCents != a.FeeCents {
		t.Fatalf("split does not reconcile: %+v", a)
	}
}
