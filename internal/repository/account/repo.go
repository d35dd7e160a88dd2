package account

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/meterd/internal/domain"
	domacc "github.com/kailas-cloud/meterd/internal/domain/account"
)

// store is the consumer interface for entitlements (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error)
}

// Repo is the Redis-backed account directory.
type Repo struct {
	store store
}

// New creates an account repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get loads an entitlement. A missing hash yields domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, accountID string) (domacc.Entitlement, error) {
	m, err := r.store.HGetAll(ctx, key(accountID))
	if err != nil {
		return domacc.Entitlement{}, domain.NewStoreError("hgetall account", err)
	}
	if len(m) == 0 {
		return domacc.Entitlement{}, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	return FromFields(accountID, m)
}

// Save writes every entitlement field, creating the account when missing.
func (r *Repo) Save(ctx context.Context, e domacc.Entitlement) error {
	if err := r.store.HSet(ctx, key(e.AccountID()), ToFields(e)); err != nil {
		return domain.NewStoreError("hset account", err)
	}
	return nil
}

// Update persists only the fields the patch supplies. The existence check and
// the write are one atomic step, so a patch never creates a partial account.
func (r *Repo) Update(ctx context.Context, accountID string, p *domacc.Patch) error {
	written, err := r.store.HSetIfExists(ctx, key(accountID), PatchToFields(p))
	if err != nil {
		return domain.NewStoreError("hset account", err)
	}
	if !written {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	return nil
}

// Key pattern: meterd:account:{id}

func key(accountID string) string {
	return fmt.Sprintf("%saccount:%s", domain.KeyPrefix, accountID)
}
