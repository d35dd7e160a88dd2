package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/meterd/internal/config"
	"github.com/kailas-cloud/meterd/internal/db/redis"
	"github.com/kailas-cloud/meterd/internal/db/sqlite"
	"github.com/kailas-cloud/meterd/internal/domain"
	accountrepo "github.com/kailas-cloud/meterd/internal/repository/account"
	agentrepo "github.com/kailas-cloud/meterd/internal/repository/agent"
	ledgerrepo "github.com/kailas-cloud/meterd/internal/repository/ledger"
	"github.com/kailas-cloud/meterd/internal/repository/sqlstore"
	chiTransport "github.com/kailas-cloud/meterd/internal/transport/chi"
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

type usageStore interface {
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// backend bundles the configured store driver with its repositories.
type backend struct {
	store    usageStore
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

func openBackend(cfg config.DatabaseConfig) (*backend, error) {
	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		s, err := redis.NewStore(redis.Config{
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			DB:        cfg.DB,
			OpTimeout: cfg.OpTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		return &backend{
			store:    s,
			accounts: accountrepo.New(s),
			agents:   agentrepo.New(s),
			ledger:   ledgerrepo.New(s),
		}, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(sqlite.Config{Path: cfg.SQLitePath, OpTimeout: cfg.OpTimeout()})
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &backend{
			store:    s,
			accounts: sqlstore.NewAccounts(s),
			agents:   sqlstore.NewAgents(s),
			ledger:   sqlstore.NewLedger(s),
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildServices is the composition root for the HTTP API.
func buildServices(cfg *config.Config, b *backend, logger *zap.Logger) (chiTransport.Services, error) {
	prices, err := pricing.Parse(cfg.Pricing.PerToken, cfg.Pricing.PerSecond, cfg.Pricing.PerMinute, cfg.Pricing.PerCall)
	if err != nil {
		return chiTransport.Services{}, fmt.Errorf("pricing: %w", err)
	}
	costs := pricing.New(prices)

	ledgerSvc := ledgeruc.New(b.ledger, logger)
	evaluator := limitsuc.New(b.accounts, b.agents, ledgerSvc, logger)

	svc := chiTransport.Services{
		Admin:   adminuc.New(b.accounts, logger),
		Limits:  evaluator,
		Ledger:  ledgerSvc,
		Reports: usageuc.New(b.accounts, b.agents, ledgerSvc),
		Agents:  agentsuc.New(evaluator, b.agents, logger),
		Costs:   costs,
	}

	// Nil interfaces, not typed nils, when no provider is configured.
	var providerHealth healthuc.ProviderChecker
	if cfg.LLM.Enabled() {
		comp := openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Model:    cfg.LLM.Model,
			Provider: cfg.LLM.Provider,
			Logger:   logger,
		})
		svc.Completer = llmuc.NewMeteredCompleter(comp, cfg.LLM.Provider, evaluator, ledgerSvc, costs, logger)
		providerHealth = completerHealth{inner: comp}
		logger.Info("LLM provider configured",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model),
		)
	}
	svc.Health = healthuc.New(b.store, providerHealth)
	return svc, nil
}

// completerHealth adapts a completer to the health checker contract.
type completerHealth struct {
	inner domain.Completer
}

func (h completerHealth) HealthCheck(ctx context.Context) error {
	if hc, ok := h.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("llm health check: %w", err)
		}
	}
	return nil
}
