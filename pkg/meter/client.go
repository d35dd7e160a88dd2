package meter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/meterd/internal/db/redis"
	"github.com/kailas-cloud/meterd/internal/db/sqlite"
	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/decision"
	domusage "github.com/kailas-cloud/meterd/internal/domain/usage"
	accountrepo "github.com/kailas-cloud/meterd/internal/repository/account"
	agentrepo "github.com/kailas-cloud/meterd/internal/repository/agent"
	ledgerrepo "github.com/kailas-cloud/meterd/internal/repository/ledger"
	"github.com/kailas-cloud/meterd/internal/repository/sqlstore"
	openaiTransport "github.com/kailas-cloud/meterd/internal/transport/openai"
	adminuc "github.com/kailas-cloud/meterd/internal/usecase/admin"
	agentsuc "github.com/kailas-cloud/meterd/internal/usecase/agents"
	healthuc "github.com/kailas-cloud/meterd/internal/usecase/health"
	ledgeruc "github.com/kailas-cloud/meterd/internal/usecase/ledger"
	limitsuc "github.com/kailas-cloud/meterd/internal/usecase/limits"
	llmuc "github.com/kailas-cloud/meterd/internal/usecase/llm"
	"github.com/kailas-cloud/meterd/internal/usecase/pricing"
	usageuc "github.com/kailas-cloud/meterd/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type adminUseCase interface {
	GetUserLimits(ctx context.Context, accountID string) (adminuc.Limits, error)
	UpdateUserLimits(ctx context.Context, accountID string, p *account.Patch) error
	CreateAccount(ctx context.Context, e account.Entitlement) error
}

type limitsUseCase interface {
	CheckAgentLimit(ctx context.Context, accountID string) (decision.Agent, error)
	CheckTokenLimit(ctx context.Context, accountID string, requested int64) (decision.Token, error)
	CheckCallLimit(ctx context.Context, accountID string) (decision.Call, error)
	EnforceUserLimits(ctx context.Context, accountID string, opts *decision.Options) (decision.Combined, error)
}

type ledgerUseCase interface {
	RecordUsage(ctx context.Context, accountID string, d domusage.Delta) error
	GetDailyUsage(ctx context.Context, accountID string, date time.Time) (domusage.Record, error)
	GetMonthlyUsage(ctx context.Context, accountID string, year, month int) (domusage.Monthly, error)
	GetUserUsageStats(ctx context.Context, accountID string, start, end time.Time) (domusage.Stats, error)
}

type reportUseCase interface {
	GetReport(ctx context.Context, accountID string) (domusage.Report, error)
}

type agentUseCase interface {
	Provision(ctx context.Context, accountID, agentID string) (decision.Agent, error)
	Retire(ctx context.Context, accountID, agentID string) (bool, error)
}

type completionUseCase interface {
	Complete(ctx context.Context, accountID string, req domain.CompletionRequest) (domain.CompletionResult, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the meterd in-process entry point. It is safe for concurrent use.
type Client struct {
	backend *backend
	admin   adminUseCase
	limits  limitsUseCase
	ledger  ledgerUseCase
	reports reportUseCase
	agents  agentUseCase
	llm     completionUseCase // nil when no provider is configured
	costs   *pricing.Calculator
	health  healthUseCase
	obs     *observer
}

// New creates a Client and connects to the usage store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("meter: usage store required (use WithRedis, WithValkey or WithSQLite)")
	}

	b, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	if err := b.store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		b.store.Close()
		return nil, fmt.Errorf("meter: usage store not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		b.store.Close()
		return nil, err
	}
	return wireClient(b, cfg, obs), nil
}

func wireClient(b *backend, cfg *clientConfig, obs *observer) *Client {
	logger := cfg.logger

	p := pricing.DefaultPricing()
	if cfg.pricing != nil {
		p = *cfg.pricing
	}
	costs := pricing.New(p)

	ledgerSvc := ledgeruc.New(b.ledger, logger)
	evaluator := limitsuc.New(b.accounts, b.agents, ledgerSvc, logger)

	c := &Client{
		backend: b,
		admin:   adminuc.New(b.accounts, logger),
		limits:  evaluator,
		ledger:  ledgerSvc,
		reports: usageuc.New(b.accounts, b.agents, ledgerSvc),
		agents:  agentsuc.New(evaluator, b.agents, logger),
		costs:   costs,
		obs:     obs,
	}

	comp := cfg.completer
	if cfg.openai != nil {
		comp = openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   cfg.openai.apiKey,
			BaseURL:  cfg.openai.baseURL,
			Model:    cfg.openai.model,
			Provider: cfg.provider,
			Logger:   logger,
		})
	}

	// Pass a nil interface, not a typed nil, when no provider is configured.
	var providerHealth healthuc.ProviderChecker
	if comp != nil {
		c.llm = llmuc.NewMeteredCompleter(comp, cfg.provider, evaluator, ledgerSvc, costs, logger)
		providerHealth = completerHealth{inner: comp}
	}
	c.health = healthuc.New(b.store, providerHealth)
	return c
}

// Close releases the usage store.
func (c *Client) Close() {
	if c.backend != nil && c.backend.store != nil {
		c.backend.store.Close()
	}
}

// Ping checks usage store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.backend.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// backend bundles one store driver with the repositories built on it.
type backend struct {
	store interface {
		Ping(ctx context.Context) error
		WaitForReady(ctx context.Context, timeout time.Duration) error
		Close()
	}
	accounts interface {
		adminuc.Repository
		limitsuc.AccountDirectory
	}
	agents interface {
		limitsuc.AgentCounter
		agentsuc.Registry
	}
	ledger ledgeruc.Repository
}

func openBackend(cfg *clientConfig) (*backend, error) {
	switch cfg.driver {
	case driverRedis, driverValkey:
		s, err := redis.NewStore(redis.Config{
			Addrs:     cfg.addrs,
			Username:  cfg.username,
			Password:  cfg.password,
			DB:        cfg.db,
			OpTimeout: cfg.opTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("meter: create %s store: %w", cfg.driver, err)
		}
		return &backend{
			store:    s,
			accounts: accountrepo.New(s),
			agents:   agentrepo.New(s),
			ledger:   ledgerrepo.New(s),
		}, nil
	case driverSQLite:
		s, err := sqlite.Open(sqlite.Config{Path: cfg.sqlitePath, OpTimeout: cfg.opTimeout})
		if err != nil {
			return nil, fmt.Errorf("meter: open sqlite store: %w", err)
		}
		return &backend{
			store:    s,
			accounts: sqlstore.NewAccounts(s),
			agents:   sqlstore.NewAgents(s),
			ledger:   sqlstore.NewLedger(s),
		}, nil
	default:
		return nil, fmt.Errorf("meter: unknown driver %q", cfg.driver)
	}
}

// completerHealth adapts a Completer to the health checker contract.
// Providers without a health check are reported healthy.
type completerHealth struct {
	inner Completer
}

func (h completerHealth) HealthCheck(ctx context.Context) error {
	if hc, ok := h.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("llm health check: %w", err)
		}
	}
	return nil
}
