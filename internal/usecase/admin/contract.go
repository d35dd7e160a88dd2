package admin

import (
	"context"

	"github.com/kailas-cloud/meterd/internal/domain/account"
)

// Repository reads and writes entitlements in the account directory.
type Repository interface {
	Get(ctx context.Context, accountID string) (account.Entitlement, error)
	Save(ctx context.Context, e account.Entitlement) error
	Update(ctx context.Context, accountID string, p *account.Patch) error
}
