package account

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
	"github.com/kailas-cloud/meterd/internal/domain/tier"
)

func ptr[T any](v T) *T { return &v }

func TestNew_Valid(t *testing.T) {
	e, err := New("acct-1", limit.Limited(5), limit.Unlimited(), tier.Pro, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.AccountID() != "acct-1" {
		t.Errorf("AccountID() = %q", e.AccountID())
	}
	if e.MaxAgents().Value() != 5 {
		t.Errorf("MaxAgents() = %v", e.MaxAgents())
	}
	if !e.MonthlyTokenQuota().IsUnlimited() {
		t.Error("MonthlyTokenQuota() should be unlimited")
	}
	if e.DailyCallLimit().Value() != tier.ProDailyCalls {
		t.Errorf("DailyCallLimit() = %v", e.DailyCallLimit())
	}
}

func TestNew_EmptyAccountID(t *testing.T) {
	_, err := New("", limit.Limited(1), limit.Limited(1), tier.Free, true)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNew_UnknownTier(t *testing.T) {
	_, err := New("acct-1", limit.Limited(1), limit.Limited(1), tier.Tier("gold"), true)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNew_TierCaseInsensitive(t *testing.T) {
	e, err := New("acct-1", limit.Limited(1), limit.Limited(1), tier.Tier(" Pro "), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Tier() != tier.Pro {
		t.Errorf("Tier() = %q, want pro", e.Tier())
	}
}

func TestReconstruct_UnknownTierFallsBack(t *testing.T) {
	e := Reconstruct("acct-1", limit.Limited(1), limit.Limited(1), tier.Tier("legacy"), true)
	if e.Tier() != tier.Free {
		t.Errorf("Tier() = %q, want free", e.Tier())
	}
}

func TestPatch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		patch   *Patch
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", &Patch{}, true},
		{"sentinel", &Patch{MaxAgents: ptr(int64(-1))}, false},
		{"zero", &Patch{MonthlyTokenQuota: ptr(int64(0))}, false},
		{"negative", &Patch{MaxAgents: ptr(int64(-2))}, true},
		{"negative quota", &Patch{MonthlyTokenQuota: ptr(int64(-50))}, true},
		{"tier", &Patch{SubscriptionTier: ptr("enterprise")}, false},
		{"bad tier", &Patch{SubscriptionTier: ptr("gold")}, true},
		{"mixed case tier", &Patch{SubscriptionTier: ptr("Pro")}, false},
		{"padded tier", &Patch{SubscriptionTier: ptr(" ENTERPRISE ")}, false},
		{"active only", &Patch{IsActive: ptr(false)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.patch.Validate()
			if tc.wantErr && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPatch_Apply(t *testing.T) {
	e := Reconstruct("acct-1", limit.Limited(5), limit.Limited(1000), tier.Free, true)
	p := &Patch{MaxAgents: ptr(int64(-1)), IsActive: ptr(false)}

	got := p.Apply(e)
	if !got.MaxAgents().IsUnlimited() {
		t.Error("MaxAgents should be unlimited")
	}
	if got.IsActive() {
		t.Error("IsActive should be false")
	}
	if got.MonthlyTokenQuota().Value() != 1000 {
		t.Error("MonthlyTokenQuota must be untouched")
	}
	if e.MaxAgents().Value() != 5 {
		t.Error("original entitlement must not change")
	}
}

func TestPatch_ApplyNormalizesTier(t *testing.T) {
	e := Reconstruct("acct-1", limit.Limited(1), limit.Limited(1), tier.Free, true)
	p := &Patch{SubscriptionTier: ptr("Pro")}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := p.Apply(e).Tier(); got != tier.Pro {
		t.Errorf("Tier() = %q, want pro", got)
	}
}
