package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/decision"
	"github.com/kailas-cloud/meterd/internal/domain/tier"
	domusage "github.com/kailas-cloud/meterd/internal/domain/usage"
	adminuc "github.com/kailas-cloud/meterd/internal/usecase/admin"
	healthuc "github.com/kailas-cloud/meterd/internal/usecase/health"
	"github.com/kailas-cloud/meterd/internal/usecase/pricing"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Services groups the use cases served over HTTP. Completer may be nil when
// no LLM provider is configured.
type Services struct {
	Admin     LimitsAdmin
	Limits    LimitEvaluator
	Ledger    UsageLedger
	Reports   ReportBuilder
	Agents    AgentProvisioner
	Completer MeteredCompleter
	Costs     CostCalculator
	Health    HealthChecker
}

// Server is the meterd HTTP API.
type Server struct {
	Services
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Services:      svc,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/costs/estimate", s.EstimateCost)

	r.Route("/accounts/{id}", func(r chi.Router) {
		r.Put("/", s.CreateAccount)

		r.Get("/limits", s.GetLimits)
		r.Patch("/limits", s.UpdateLimits)
		r.Get("/limits/agents", s.CheckAgents)
		r.Get("/limits/tokens", s.CheckTokens)
		r.Get("/limits/calls", s.CheckCalls)
		r.Post("/limits/enforce", s.Enforce)

		r.Post("/usage", s.RecordUsage)
		r.Get("/usage/daily", s.GetDailyUsage)
		r.Get("/usage/monthly", s.GetMonthlyUsage)
		r.Get("/usage/stats", s.GetUsageStats)
		r.Get("/usage/report", s.GetUsageReport)

		r.Post("/agents", s.ProvisionAgent)
		r.Delete("/agents/{agentId}", s.RetireAgent)

		r.Post("/completions", s.Complete)
	})
}

// Handler returns a router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// CreateAccount handles PUT /accounts/{id}.
func (s *Server) CreateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var req CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MaxAgents == nil || req.MonthlyTokenQuota == nil {
		s.handleDomainError(w, r, domain.Validationf("maxAgents and monthlyTokenQuota are required"))
		return
	}

	t := tier.Free
	if req.SubscriptionTier != "" {
		t = tier.Normalize(req.SubscriptionTier)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	e, err := account.New(id, *req.MaxAgents, *req.MonthlyTokenQuota, t, active)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.Admin.CreateAccount(r.Context(), e); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, adminuc.FromEntitlement(e))
}

// GetLimits handles GET /accounts/{id}/limits.
func (s *Server) GetLimits(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	limits, err := s.Admin.GetUserLimits(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, limits)
}

// UpdateLimits handles PATCH /accounts/{id}/limits and returns the stored limits.
func (s *Server) UpdateLimits(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var p account.Patch
	if !decodeBody(w, r, &p) {
		return
	}

	if err := s.Admin.UpdateUserLimits(r.Context(), id, &p); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	limits, err := s.Admin.GetUserLimits(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, limits)
}

// CheckAgents handles GET /accounts/{id}/limits/agents.
func (s *Server) CheckAgents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	d, err := s.Limits.CheckAgentLimit(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CheckTokens handles GET /accounts/{id}/limits/tokens?requested=N.
func (s *Server) CheckTokens(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var requested int64
	if !bindQuery(w, r, "requested", true, &requested) {
		return
	}
	d, err := s.Limits.CheckTokenLimit(r.Context(), id, requested)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CheckCalls handles GET /accounts/{id}/limits/calls.
func (s *Server) CheckCalls(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	d, err := s.Limits.CheckCallLimit(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Enforce handles POST /accounts/{id}/limits/enforce.
func (s *Server) Enforce(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	// A JSON null body leaves opts nil; the evaluator rejects it.
	var opts *decision.Options
	if !decodeBody(w, r, &opts) {
		return
	}
	res, err := s.Limits.EnforceUserLimits(r.Context(), id, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RecordUsage handles POST /accounts/{id}/usage.
func (s *Server) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var req RecordUsageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d := domusage.Delta{
		Tokens:          req.Tokens,
		Calls:           req.Calls,
		DurationSeconds: req.DurationSeconds,
	}
	switch {
	case req.Cost != nil:
		d.Cost = *req.Cost
	case req.Provider != "" && s.Costs != nil:
		d.Cost = s.Costs.Calculate(pricing.Usage{
			Provider:        pricing.Provider(req.Provider),
			Tokens:          req.Tokens,
			DurationSeconds: req.DurationSeconds,
			Calls:           req.Calls,
		})
	}

	if err := s.Ledger.RecordUsage(r.Context(), id, d); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDailyUsage handles GET /accounts/{id}/usage/daily?date=YYYY-MM-DD.
func (s *Server) GetDailyUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var date types.Date
	if !bindQuery(w, r, "date", true, &date) {
		return
	}
	rec, err := s.Ledger.GetDailyUsage(r.Context(), id, date.Time)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyToResponse(rec))
}

// GetMonthlyUsage handles GET /accounts/{id}/usage/monthly?year=&month=.
func (s *Server) GetMonthlyUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var year, month int
	if !bindQuery(w, r, "year", true, &year) || !bindQuery(w, r, "month", true, &month) {
		return
	}
	m, err := s.Ledger.GetMonthlyUsage(r.Context(), id, year, month)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, monthlyToResponse(m))
}

// GetUsageStats handles GET /accounts/{id}/usage/stats?start=&end=.
func (s *Server) GetUsageStats(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var start, end types.Date
	if !bindQuery(w, r, "start", true, &start) || !bindQuery(w, r, "end", true, &end) {
		return
	}
	stats, err := s.Ledger.GetUserUsageStats(r.Context(), id, start.Time, end.Time)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(stats))
}

// GetUsageReport handles GET /accounts/{id}/usage/report.
func (s *Server) GetUsageReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	report, err := s.Reports.GetReport(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(&report))
}

// ProvisionAgent handles POST /accounts/{id}/agents.
func (s *Server) ProvisionAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var req ProvisionAgentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := s.Agents.Provision(r.Context(), id, req.AgentID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/accounts/%s/agents/%s", id, req.AgentID))
	writeJSON(w, http.StatusCreated, d)
}

// RetireAgent handles DELETE /accounts/{id}/agents/{agentId}.
func (s *Server) RetireAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var agentID string
	if !bindPath(w, r, "agentId", &agentID) {
		return
	}
	removed, err := s.Agents.Retire(r.Context(), id, agentID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "agent not registered")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete handles POST /accounts/{id}/completions.
func (s *Server) Complete(w http.ResponseWriter, r *http.Request) {
	if s.Completer == nil {
		writeError(w, http.StatusNotImplemented, ErrorCodeNotImplemented, "no llm provider configured")
		return
	}
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	var req CompletionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.Completer.Complete(r.Context(), id, domain.CompletionRequest{
		Model:     req.Model,
		Messages:  req.Messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completionToResponse(res))
}

// EstimateCost handles POST /costs/estimate.
func (s *Server) EstimateCost(w http.ResponseWriter, r *http.Request) {
	var u pricing.Usage
	if !decodeBody(w, r, &u) {
		return
	}
	if u.Provider == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "provider is required")
		return
	}
	writeJSON(w, http.StatusOK, CostEstimateResponse{
		Provider: string(u.Provider),
		Cost:     s.Costs.Calculate(u),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.Health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) accountID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	return id, bindPath(w, r, "id", &id)
}

func bindPath(w http.ResponseWriter, r *http.Request, name string, dest any) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
		return false
	}
	return true
}

func bindQuery(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
