package admin

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
	"github.com/kailas-cloud/meterd/internal/domain/tier"
)

// Limits is the administrative view of an entitlement.
type Limits struct {
	AccountID         string      `json:"accountId"`
	MaxAgents         limit.Limit `json:"maxAgents"`
	MonthlyTokenQuota limit.Limit `json:"monthlyTokenQuota"`
	SubscriptionTier  tier.Tier   `json:"subscriptionTier"`
	IsActive          bool        `json:"isActive"`
	DailyCallLimit    limit.Limit `json:"dailyCallLimit"`
}

// FromEntitlement builds the administrative view.
func FromEntitlement(e account.Entitlement) Limits {
	return Limits{
		AccountID:         e.AccountID(),
		MaxAgents:         e.MaxAgents(),
		MonthlyTokenQuota: e.MonthlyTokenQuota(),
		SubscriptionTier:  e.Tier(),
		IsActive:          e.IsActive(),
		DailyCallLimit:    e.DailyCallLimit(),
	}
}

// Service handles out-of-band entitlement administration.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates an admin service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// GetUserLimits returns the account's entitlement and derived daily call ceiling.
func (s *Service) GetUserLimits(ctx context.Context, accountID string) (Limits, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return Limits{}, err
	}
	e, err := s.repo.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrDataIntegrity) {
			s.logger.Error("Malformed entitlement", zap.String("account_id", accountID), zap.Error(err))
		}
		return Limits{}, fmt.Errorf("get limits: %w", err)
	}
	return FromEntitlement(e), nil
}

// UpdateUserLimits persists the supplied patch fields.
func (s *Service) UpdateUserLimits(ctx context.Context, accountID string, p *account.Patch) error {
	if err := domain.RequireAccountID(accountID); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, accountID, p); err != nil {
		return fmt.Errorf("update limits: %w", err)
	}

	s.logger.Info("Limits updated", zap.String("account_id", accountID), zap.Any("patch", p))
	return nil
}

// CreateAccount writes a full entitlement, replacing any existing one.
func (s *Service) CreateAccount(ctx context.Context, e account.Entitlement) error {
	if err := domain.RequireAccountID(e.AccountID()); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, e); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("Account saved", zap.Stringer("entitlement", e))
	return nil
}
