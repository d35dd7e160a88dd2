package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/decision"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
	"github.com/kailas-cloud/meterd/internal/domain/tier"
	domusage "github.com/kailas-cloud/meterd/internal/domain/usage"
	adminuc "github.com/kailas-cloud/meterd/internal/usecase/admin"
	healthuc "github.com/kailas-cloud/meterd/internal/usecase/health"
	limitsuc "github.com/kailas-cloud/meterd/internal/usecase/limits"
	"github.com/kailas-cloud/meterd/internal/usecase/pricing"
)

// --- Mocks ---

type mockAdmin struct {
	getFn    func(ctx context.Context, id string) (adminuc.Limits, error)
	updateFn func(ctx context.Context, id string, p *account.Patch) error
	createFn func(ctx context.Context, e account.Entitlement) error
}

func (m *mockAdmin) GetUserLimits(ctx context.Context, id string) (adminuc.Limits, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return adminuc.Limits{}, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
}

func (m *mockAdmin) UpdateUserLimits(ctx context.Context, id string, p *account.Patch) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, p)
	}
	return nil
}

func (m *mockAdmin) CreateAccount(ctx context.Context, e account.Entitlement) error {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	return nil
}

type mockLimits struct {
	agentFn   func(ctx context.Context, id string) (decision.Agent, error)
	tokenFn   func(ctx context.Context, id string, requested int64) (decision.Token, error)
	callFn    func(ctx context.Context, id string) (decision.Call, error)
	enforceFn func(ctx context.Context, id string, opts *decision.Options) (decision.Combined, error)
}

func (m *mockLimits) CheckAgentLimit(ctx context.Context, id string) (decision.Agent, error) {
	return m.agentFn(ctx, id)
}

func (m *mockLimits) CheckTokenLimit(ctx context.Context, id string, requested int64) (decision.Token, error) {
	return m.tokenFn(ctx, id, requested)
}

func (m *mockLimits) CheckCallLimit(ctx context.Context, id string) (decision.Call, error) {
	return m.callFn(ctx, id)
}

func (m *mockLimits) EnforceUserLimits(
	ctx context.Context, id string, opts *decision.Options,
) (decision.Combined, error) {
	return m.enforceFn(ctx, id, opts)
}

type mockLedger struct {
	recordFn  func(ctx context.Context, id string, d domusage.Delta) error
	dailyFn   func(ctx context.Context, id string, date time.Time) (domusage.Record, error)
	monthlyFn func(ctx context.Context, id string, year, month int) (domusage.Monthly, error)
	statsFn   func(ctx context.Context, id string, start, end time.Time) (domusage.Stats, error)
}

func (m *mockLedger) RecordUsage(ctx context.Context, id string, d domusage.Delta) error {
	return m.recordFn(ctx, id, d)
}

func (m *mockLedger) GetDailyUsage(ctx context.Context, id string, date time.Time) (domusage.Record, error) {
	return m.dailyFn(ctx, id, date)
}

func (m *mockLedger) GetMonthlyUsage(ctx context.Context, id string, year, month int) (domusage.Monthly, error) {
	return m.monthlyFn(ctx, id, year, month)
}

func (m *mockLedger) GetUserUsageStats(ctx context.Context, id string, start, end time.Time) (domusage.Stats, error) {
	return m.statsFn(ctx, id, start, end)
}

type mockReports struct {
	reportFn func(ctx context.Context, id string) (domusage.Report, error)
}

func (m *mockReports) GetReport(ctx context.Context, id string) (domusage.Report, error) {
	return m.reportFn(ctx, id)
}

type mockAgents struct {
	provisionFn func(ctx context.Context, id, agentID string) (decision.Agent, error)
	retireFn    func(ctx context.Context, id, agentID string) (bool, error)
}

func (m *mockAgents) Provision(ctx context.Context, id, agentID string) (decision.Agent, error) {
	return m.provisionFn(ctx, id, agentID)
}

func (m *mockAgents) Retire(ctx context.Context, id, agentID string) (bool, error) {
	return m.retireFn(ctx, id, agentID)
}

type mockCompleter struct {
	completeFn func(ctx context.Context, id string, req domain.CompletionRequest) (domain.CompletionResult, error)
}

func (m *mockCompleter) Complete(
	ctx context.Context, id string, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	return m.completeFn(ctx, id, req)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func newTestServer(svc Services) http.Handler {
	if svc.Costs == nil {
		svc.Costs = pricing.New(pricing.DefaultPricing())
	}
	return NewServer(svc, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	resp := decodeJSON[ErrorResponse](t, rr)
	if resp.Code != code {
		t.Errorf("code = %q, want %q", resp.Code, code)
	}
}

// --- Tests ---

func TestCreateAccount(t *testing.T) {
	var saved account.Entitlement
	h := newTestServer(Services{Admin: &mockAdmin{createFn: func(_ context.Context, e account.Entitlement) error {
		saved = e
		return nil
	}}})

	rr := do(t, h, "PUT", "/accounts/acct-1",
		`{"maxAgents":3,"monthlyTokenQuota":-1,"subscriptionTier":"pro"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if saved.AccountID() != "acct-1" || !saved.IsActive() || !saved.MonthlyTokenQuota().IsUnlimited() {
		t.Errorf("unexpected entitlement: %s", saved)
	}

	resp := decodeJSON[map[string]any](t, rr)
	if resp["dailyCallLimit"] != float64(1000) || resp["monthlyTokenQuota"] != float64(-1) {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestCreateAccount_UnknownTier(t *testing.T) {
	h := newTestServer(Services{Admin: &mockAdmin{}})
	rr := do(t, h, "PUT", "/accounts/acct-1", `{"maxAgents":1,"monthlyTokenQuota":1,"subscriptionTier":"gold"}`)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)
}

func TestCreateAccount_MissingLimits(t *testing.T) {
	h := newTestServer(Services{Admin: &mockAdmin{createFn: func(context.Context, account.Entitlement) error {
		t.Fatal("create must not be called")
		return nil
	}}})
	for _, body := range []string{`{}`, `{"maxAgents":2}`, `{"monthlyTokenQuota":null,"maxAgents":2}`} {
		rr := do(t, h, "PUT", "/accounts/acct-1", body)
		expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)
	}
}

func TestCreateAccount_TierCaseInsensitive(t *testing.T) {
	var saved account.Entitlement
	h := newTestServer(Services{Admin: &mockAdmin{createFn: func(_ context.Context, e account.Entitlement) error {
		saved = e
		return nil
	}}})
	rr := do(t, h, "PUT", "/accounts/acct-1", `{"maxAgents":1,"monthlyTokenQuota":1,"subscriptionTier":" Pro "}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if saved.Tier() != tier.Pro {
		t.Errorf("tier = %q, want pro", saved.Tier())
	}
}

func TestCreateAccount_BadSentinel(t *testing.T) {
	h := newTestServer(Services{Admin: &mockAdmin{}})
	rr := do(t, h, "PUT", "/accounts/acct-1", `{"maxAgents":-5,"monthlyTokenQuota":1}`)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestGetLimits_NotFound(t *testing.T) {
	h := newTestServer(Services{Admin: &mockAdmin{}})
	rr := do(t, h, "GET", "/accounts/ghost/limits", "")
	expectError(t, rr, http.StatusNotFound, ErrorCodeNotFound)
}

func TestUpdateLimits_ReturnsStoredLimits(t *testing.T) {
	var gotPatch *account.Patch
	admin := &mockAdmin{
		updateFn: func(_ context.Context, _ string, p *account.Patch) error {
			gotPatch = p
			return nil
		},
		getFn: func(_ context.Context, id string) (adminuc.Limits, error) {
			return adminuc.FromEntitlement(
				account.Reconstruct(id, limit.Limited(9), limit.Limited(100), tier.Free, true)), nil
		},
	}
	h := newTestServer(Services{Admin: admin})

	rr := do(t, h, "PATCH", "/accounts/acct-1/limits", `{"maxAgents":9}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if gotPatch == nil || gotPatch.MaxAgents == nil || *gotPatch.MaxAgents != 9 {
		t.Fatalf("patch not forwarded: %+v", gotPatch)
	}
	if gotPatch.MonthlyTokenQuota != nil || gotPatch.SubscriptionTier != nil {
		t.Errorf("unsupplied fields must stay nil: %+v", gotPatch)
	}
	resp := decodeJSON[adminuc.Limits](t, rr)
	if resp.MaxAgents.Sentinel() != 9 {
		t.Errorf("maxAgents = %s", resp.MaxAgents)
	}
}

func TestUpdateLimits_Validation(t *testing.T) {
	admin := &mockAdmin{updateFn: func(context.Context, string, *account.Patch) error {
		return domain.Validationf("patch is empty")
	}}
	h := newTestServer(Services{Admin: admin})
	rr := do(t, h, "PATCH", "/accounts/acct-1/limits", `{}`)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)
}

func TestCheckTokens(t *testing.T) {
	var gotRequested int64
	limits := &mockLimits{tokenFn: func(_ context.Context, _ string, requested int64) (decision.Token, error) {
		gotRequested = requested
		return decision.Token{
			Allowed: false, CurrentUsage: 1000, Limit: limit.Limited(1000), WouldExceed: true,
		}, nil
	}}
	h := newTestServer(Services{Limits: limits})

	rr := do(t, h, "GET", "/accounts/acct-1/limits/tokens?requested=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if gotRequested != 1 {
		t.Errorf("requested = %d", gotRequested)
	}
	resp := decodeJSON[decision.Token](t, rr)
	if resp.Allowed || !resp.WouldExceed {
		t.Errorf("unexpected decision: %+v", resp)
	}
}

func TestCheckTokens_BadQuery(t *testing.T) {
	h := newTestServer(Services{Limits: &mockLimits{}})
	for _, path := range []string{
		"/accounts/acct-1/limits/tokens",
		"/accounts/acct-1/limits/tokens?requested=many",
	} {
		rr := do(t, h, "GET", path, "")
		expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
	}
}

func TestCheckAgentsAndCalls(t *testing.T) {
	limits := &mockLimits{
		agentFn: func(context.Context, string) (decision.Agent, error) {
			return decision.Agent{Allowed: true, CurrentCount: 2, Limit: limit.Unlimited(), Remaining: -1}, nil
		},
		callFn: func(context.Context, string) (decision.Call, error) {
			return decision.Call{Allowed: true, CurrentCalls: 4, DailyLimit: limit.Limited(100)}, nil
		},
	}
	h := newTestServer(Services{Limits: limits})

	rr := do(t, h, "GET", "/accounts/acct-1/limits/agents", "")
	agent := decodeJSON[map[string]any](t, rr)
	if agent["limit"] != float64(-1) || agent["remaining"] != float64(-1) {
		t.Errorf("unlimited agents must serialize as -1: %v", agent)
	}

	rr = do(t, h, "GET", "/accounts/acct-1/limits/calls", "")
	call := decodeJSON[decision.Call](t, rr)
	if call.DailyLimit.Sentinel() != 100 || call.CurrentCalls != 4 {
		t.Errorf("unexpected call decision: %+v", call)
	}
}

func TestEnforce(t *testing.T) {
	var gotOpts *decision.Options
	limits := &mockLimits{enforceFn: func(_ context.Context, _ string, opts *decision.Options) (decision.Combined, error) {
		gotOpts = opts
		return decision.Combined{
			Allowed:       false,
			LimitsChecked: []domain.Resource{domain.ResourceTokens},
			Violations:    []decision.Violation{{Type: domain.ResourceTokens, Exceeded: true, Detail: "over"}},
		}, nil
	}}
	h := newTestServer(Services{Limits: limits})

	rr := do(t, h, "POST", "/accounts/acct-1/limits/enforce", `{"checkTokens":50}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if gotOpts == nil || gotOpts.CheckTokens == nil || *gotOpts.CheckTokens != 50 || gotOpts.CheckAgents {
		t.Fatalf("unexpected options: %+v", gotOpts)
	}
	resp := decodeJSON[decision.Combined](t, rr)
	if resp.Allowed || len(resp.Violations) != 1 {
		t.Errorf("unexpected result: %+v", resp)
	}
}

func TestEnforce_NullBody(t *testing.T) {
	h := newTestServer(Services{Limits: limitsuc.New(nil, nil, nil, nil)})
	rr := do(t, h, "POST", "/accounts/acct-1/limits/enforce", `null`)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)
}

func TestRecordUsage_ExplicitCost(t *testing.T) {
	var got domusage.Delta
	ledger := &mockLedger{recordFn: func(_ context.Context, _ string, d domusage.Delta) error {
		got = d
		return nil
	}}
	h := newTestServer(Services{Ledger: ledger})

	rr := do(t, h, "POST", "/accounts/acct-1/usage", `{"tokens":500,"cost":"0.25"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if got.Tokens != 500 || !got.Cost.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("unexpected delta: %+v", got)
	}
}

func TestRecordUsage_EstimatedCost(t *testing.T) {
	var got domusage.Delta
	ledger := &mockLedger{recordFn: func(_ context.Context, _ string, d domusage.Delta) error {
		got = d
		return nil
	}}
	h := newTestServer(Services{Ledger: ledger})

	rr := do(t, h, "POST", "/accounts/acct-1/usage",
		`{"calls":1,"durationSeconds":61,"provider":"telephony"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	// ceil(61/60) * 0.013 + 1 * 0.005
	if !got.Cost.Equal(decimal.RequireFromString("0.031")) {
		t.Errorf("cost = %s, want 0.031", got.Cost)
	}
}

func TestRecordUsage_StoreFailure(t *testing.T) {
	ledger := &mockLedger{recordFn: func(context.Context, string, domusage.Delta) error {
		return fmt.Errorf("record usage: %w", domain.NewStoreError("EVALSHA", context.DeadlineExceeded))
	}}
	h := newTestServer(Services{Ledger: ledger})

	rr := do(t, h, "POST", "/accounts/acct-1/usage", `{"tokens":1}`)
	expectError(t, rr, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable)
	if strings.Contains(rr.Body.String(), "EVALSHA") {
		t.Error("store internals must not leak to the client")
	}
}

func TestRecordUsage_UnknownField(t *testing.T) {
	h := newTestServer(Services{Ledger: &mockLedger{}})
	rr := do(t, h, "POST", "/accounts/acct-1/usage", `{"tokenz":1}`)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestGetDailyUsage(t *testing.T) {
	var gotDate time.Time
	ledger := &mockLedger{dailyFn: func(_ context.Context, id string, date time.Time) (domusage.Record, error) {
		gotDate = date
		return domusage.Reconstruct(id, date, 1500, 3, 90, decimal.RequireFromString("0.5"),
			time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)), nil
	}}
	h := newTestServer(Services{Ledger: ledger})

	rr := do(t, h, "GET", "/accounts/acct-1/usage/daily?date=2024-03-15", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if !gotDate.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %s", gotDate)
	}
	resp := decodeJSON[DailyUsageResponse](t, rr)
	if resp.Date != "2024-03-15" || resp.TotalTokens != 1500 || resp.UpdatedAt == nil {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestGetDailyUsage_BadDate(t *testing.T) {
	h := newTestServer(Services{Ledger: &mockLedger{}})
	rr := do(t, h, "GET", "/accounts/acct-1/usage/daily?date=15-03-2024", "")
	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestGetMonthlyUsage(t *testing.T) {
	ledger := &mockLedger{monthlyFn: func(_ context.Context, _ string, year, month int) (domusage.Monthly, error) {
		if month > 12 {
			return domusage.Monthly{}, domain.Validationf("month must be 1-12, got %d", month)
		}
		return domusage.Monthly{Year: year, Month: month, TotalTokens: 42, TotalCost: decimal.Zero}, nil
	}}
	h := newTestServer(Services{Ledger: ledger})

	rr := do(t, h, "GET", "/accounts/acct-1/usage/monthly?year=2024&month=3", "")
	resp := decodeJSON[MonthlyUsageResponse](t, rr)
	if resp.Year != 2024 || resp.Month != 3 || resp.TotalTokens != 42 {
		t.Errorf("unexpected response: %+v", resp)
	}

	rr = do(t, h, "GET", "/accounts/acct-1/usage/monthly?year=2024&month=13", "")
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)
}

func TestGetUsageStats_EmptyBreakdownIsArray(t *testing.T) {
	ledger := &mockLedger{statsFn: func(_ context.Context, _ string, start, end time.Time) (domusage.Stats, error) {
		return domusage.Stats{Start: start, End: end, TotalCosts: decimal.Zero, DailyBreakdown: []domusage.Record{}}, nil
	}}
	h := newTestServer(Services{Ledger: ledger})

	rr := do(t, h, "GET", "/accounts/acct-1/usage/stats?start=2024-03-10&end=2024-03-01", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"dailyBreakdown":[]`) {
		t.Errorf("breakdown must serialize as []: %s", rr.Body.String())
	}
}

func TestGetUsageReport_InfinitePercentage(t *testing.T) {
	reports := &mockReports{reportFn: func(_ context.Context, id string) (domusage.Report, error) {
		return domusage.NewReport(id, "free", true, time.Now(),
			domusage.NewLine(domain.ResourceAgents, 2, limit.Limited(0)),
			domusage.NewLine(domain.ResourceTokens, 250, limit.Limited(1000)),
			domusage.NewLine(domain.ResourceCalls, 0, limit.Unlimited()),
		), nil
	}}
	h := newTestServer(Services{Reports: reports})

	rr := do(t, h, "GET", "/accounts/acct-1/usage/report", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeJSON[UsageReportResponse](t, rr)
	if resp.Agents.Percentage != nil || !resp.Agents.IsExhausted {
		t.Errorf("zero ceiling with usage: %+v", resp.Agents)
	}
	if resp.Tokens.Percentage == nil || *resp.Tokens.Percentage != 25 {
		t.Errorf("tokens: %+v", resp.Tokens)
	}
	if resp.Calls.Remaining != -1 {
		t.Errorf("calls: %+v", resp.Calls)
	}
}

func TestProvisionAgent(t *testing.T) {
	agents := &mockAgents{provisionFn: func(_ context.Context, _, agentID string) (decision.Agent, error) {
		if agentID == "over" {
			return decision.Agent{}, fmt.Errorf("%w: agent limit reached", domain.ErrQuotaExceeded)
		}
		return decision.Agent{Allowed: true, CurrentCount: 1, Limit: limit.Limited(2), Remaining: 1}, nil
	}}
	h := newTestServer(Services{Agents: agents})

	rr := do(t, h, "POST", "/accounts/acct-1/agents", `{"agentId":"bot-1"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/accounts/acct-1/agents/bot-1" {
		t.Errorf("Location = %q", loc)
	}

	rr = do(t, h, "POST", "/accounts/acct-1/agents", `{"agentId":"over"}`)
	expectError(t, rr, http.StatusPaymentRequired, ErrorCodeQuotaExceeded)
}

func TestRetireAgent(t *testing.T) {
	agents := &mockAgents{retireFn: func(_ context.Context, _, agentID string) (bool, error) {
		return agentID == "bot-1", nil
	}}
	h := newTestServer(Services{Agents: agents})

	if rr := do(t, h, "DELETE", "/accounts/acct-1/agents/bot-1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("status = %d", rr.Code)
	}
	rr := do(t, h, "DELETE", "/accounts/acct-1/agents/bot-2", "")
	expectError(t, rr, http.StatusNotFound, ErrorCodeNotFound)
}

func TestComplete_NotConfigured(t *testing.T) {
	h := newTestServer(Services{})
	rr := do(t, h, "POST", "/accounts/acct-1/completions", `{"messages":[{"role":"user","content":"hi"}],"maxTokens":5}`)
	expectError(t, rr, http.StatusNotImplemented, ErrorCodeNotImplemented)
}

func TestComplete(t *testing.T) {
	completer := &mockCompleter{completeFn: func(
		_ context.Context, _ string, req domain.CompletionRequest,
	) (domain.CompletionResult, error) {
		if req.MaxTokens == 0 {
			return domain.CompletionResult{}, errors.Join(domain.ErrProviderError, errors.New("upstream 500"))
		}
		return domain.CompletionResult{Content: "hello", Model: "gpt-test", PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}, nil
	}}
	h := newTestServer(Services{Completer: completer})

	rr := do(t, h, "POST", "/accounts/acct-1/completions",
		`{"messages":[{"role":"user","content":"hi"}],"maxTokens":5}`)
	resp := decodeJSON[CompletionResponse](t, rr)
	if resp.Content != "hello" || resp.Usage.TotalTokens != 5 {
		t.Errorf("unexpected response: %+v", resp)
	}

	rr = do(t, h, "POST", "/accounts/acct-1/completions", `{"messages":[{"role":"user","content":"hi"}]}`)
	expectError(t, rr, http.StatusBadGateway, ErrorCodeProviderError)
}

func TestEstimateCost(t *testing.T) {
	h := newTestServer(Services{})

	rr := do(t, h, "POST", "/costs/estimate", `{"provider":"llm-inference","tokens":1000}`)
	resp := decodeJSON[CostEstimateResponse](t, rr)
	if !resp.Cost.Equal(decimal.RequireFromString("0.0001")) {
		t.Errorf("cost = %s, want 0.0001", resp.Cost)
	}

	rr = do(t, h, "POST", "/costs/estimate", `{"tokens":1000}`)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		h := newTestServer(Services{Health: &mockHealth{report: healthuc.Report{Status: tc.status}}})
		if rr := do(t, h, "GET", "/health", ""); rr.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.status, rr.Code, tc.want)
		}
	}
}

func TestDataIntegrityError_Is500(t *testing.T) {
	admin := &mockAdmin{getFn: func(context.Context, string) (adminuc.Limits, error) {
		return adminuc.Limits{}, domain.NewDataIntegrityError("max_agents", "abc", errors.New("not a number"))
	}}
	h := newTestServer(Services{Admin: admin})

	rr := do(t, h, "GET", "/accounts/acct-1/limits", "")
	expectError(t, rr, http.StatusInternalServerError, ErrorCodeDataIntegrity)
	if strings.Contains(rr.Body.String(), "abc") {
		t.Error("stored value must not leak to the client")
	}
}

func TestUnknownError_IsInternal(t *testing.T) {
	admin := &mockAdmin{getFn: func(context.Context, string) (adminuc.Limits, error) {
		return adminuc.Limits{}, errors.New("boom")
	}}
	h := newTestServer(Services{Admin: admin})
	rr := do(t, h, "GET", "/accounts/acct-1/limits", "")
	expectError(t, rr, http.StatusInternalServerError, ErrorCodeInternalError)
}
