package agent

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/meterd/internal/domain"
)

// store is the consumer interface for agent membership (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SRem(ctx context.Context, key string, members ...string) (int64, error)
	SCard(ctx context.Context, key string) (int64, error)
}

// Repo is the Redis-backed agent directory: one set of agent ids per account.
type Repo struct {
	store store
}

// New creates an agent repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// CountActiveAgents returns how many agents the account currently owns.
func (r *Repo) CountActiveAgents(ctx context.Context, accountID string) (int64, error) {
	n, err := r.store.SCard(ctx, key(accountID))
	if err != nil {
		return 0, domain.NewStoreError("scard agents", err)
	}
	return n, nil
}

// Register adds an agent. Returns false when it was already registered.
func (r *Repo) Register(ctx context.Context, accountID, agentID string) (bool, error) {
	n, err := r.store.SAdd(ctx, key(accountID), agentID)
	if err != nil {
		return false, domain.NewStoreError("sadd agents", err)
	}
	return n > 0, nil
}

// Deregister removes an agent. Returns false when it was not registered.
func (r *Repo) Deregister(ctx context.Context, accountID, agentID string) (bool, error) {
	n, err := r.store.SRem(ctx, key(accountID), agentID)
	if err != nil {
		return false, domain.NewStoreError("srem agents", err)
	}
	return n > 0, nil
}

// Key pattern: meterd:agents:{accountID}

func key(accountID string) string {
	return fmt.Sprintf("%sagents:%s", domain.KeyPrefix, accountID)
}
