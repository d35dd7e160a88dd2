package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
	"github.com/kailas-cloud/meterd/internal/domain/tier"
)

// --- Mock ---

type mockRepo struct {
	getFn    func(ctx context.Context, accountID string) (account.Entitlement, error)
	saveFn   func(ctx context.Context, e account.Entitlement) error
	updateFn func(ctx context.Context, accountID string, p *account.Patch) error
}

func (m *mockRepo) Get(ctx context.Context, accountID string) (account.Entitlement, error) {
	if m.getFn != nil {
		return m.getFn(ctx, accountID)
	}
	return account.Entitlement{}, domain.ErrNotFound
}

func (m *mockRepo) Save(ctx context.Context, e account.Entitlement) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, e)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, accountID string, p *account.Patch) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, accountID, p)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

// --- Tests ---

func TestGetUserLimits(t *testing.T) {
	repo := &mockRepo{getFn: func(_ context.Context, id string) (account.Entitlement, error) {
		return account.Reconstruct(id, limit.Limited(5), limit.Unlimited(), tier.Pro, true), nil
	}}

	l, err := New(repo, nil).GetUserLimits(context.Background(), "acct")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.MaxAgents.Sentinel() != 5 || l.MonthlyTokenQuota.Sentinel() != -1 || l.SubscriptionTier != tier.Pro {
		t.Errorf("unexpected limits: %+v", l)
	}
	if l.DailyCallLimit.Sentinel() != tier.ProDailyCalls {
		t.Errorf("DailyCallLimit = %s", l.DailyCallLimit)
	}
}

func TestGetUserLimits_Errors(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, nil)

	if _, err := svc.GetUserLimits(ctx, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.GetUserLimits(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserLimits_Validation(t *testing.T) {
	called := false
	repo := &mockRepo{updateFn: func(context.Context, string, *account.Patch) error {
		called = true
		return nil
	}}
	svc := New(repo, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		p    *account.Patch
	}{
		{"nil patch", nil},
		{"empty patch", &account.Patch{}},
		{"below sentinel", &account.Patch{MaxAgents: ptr(int64(-2))}},
		{"unknown tier", &account.Patch{SubscriptionTier: ptr("platinum")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.UpdateUserLimits(ctx, "acct", tc.p); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
	if called {
		t.Error("repository must not be touched for invalid patches")
	}
}

func TestUpdateUserLimits_PassesPatch(t *testing.T) {
	var got *account.Patch
	repo := &mockRepo{updateFn: func(_ context.Context, _ string, p *account.Patch) error {
		got = p
		return nil
	}}

	p := &account.Patch{MonthlyTokenQuota: ptr(int64(-1)), SubscriptionTier: ptr("enterprise")}
	if err := New(repo, nil).UpdateUserLimits(context.Background(), "acct", p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Error("patch not forwarded")
	}
}

func TestUpdateUserLimits_NotFound(t *testing.T) {
	repo := &mockRepo{updateFn: func(context.Context, string, *account.Patch) error {
		return domain.ErrNotFound
	}}
	err := New(repo, nil).UpdateUserLimits(context.Background(), "acct", &account.Patch{IsActive: ptr(true)})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAccount(t *testing.T) {
	var saved account.Entitlement
	repo := &mockRepo{saveFn: func(_ context.Context, e account.Entitlement) error {
		saved = e
		return nil
	}}
	e, _ := account.New("acct", limit.Limited(3), limit.Limited(100), tier.Free, true)

	if err := New(repo, nil).CreateAccount(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.AccountID() != "acct" {
		t.Errorf("saved %s", saved)
	}

	if err := New(repo, nil).CreateAccount(context.Background(), account.Entitlement{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("zero entitlement: expected ErrValidation, got %v", err)
	}
}
