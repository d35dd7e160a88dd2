package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockProviderChecker struct {
	err error
}

func (m *mockProviderChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	r := New(&mockStorePinger{}, &mockProviderChecker{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[ComponentStore] != CheckOK || r.Checks[ComponentLLM] != CheckOK {
		t.Errorf("unexpected checks: %v", r.Checks)
	}
}

func TestCheck_StoreError(t *testing.T) {
	r := New(&mockStorePinger{err: errors.New("conn refused")}, &mockProviderChecker{}).Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentStore] != CheckError {
		t.Errorf("expected store %q, got %q", CheckError, r.Checks[ComponentStore])
	}
}

func TestCheck_ProviderError(t *testing.T) {
	r := New(&mockStorePinger{}, &mockProviderChecker{err: errors.New("timeout")}).Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentLLM] != CheckError {
		t.Errorf("expected llm %q, got %q", CheckError, r.Checks[ComponentLLM])
	}
}

func TestCheck_NoProvider(t *testing.T) {
	r := New(&mockStorePinger{}, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[ComponentLLM]; ok {
		t.Error("llm check should be absent without a provider")
	}
}

func TestCheck_BothFailing(t *testing.T) {
	r := New(&mockStorePinger{err: errors.New("down")}, &mockProviderChecker{err: errors.New("down")}).Check(context.Background())
	if r.Status != Unhealthy {
		t.Errorf("store failure must dominate, got %q", r.Status)
	}
}
