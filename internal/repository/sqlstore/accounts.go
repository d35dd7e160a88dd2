package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/meterd/internal/db"
	"github.com/kailas-cloud/meterd/internal/domain"
	domacc "github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/repository/account"
)

const upsertAccount = `
INSERT INTO accounts (account_id, max_agents, monthly_token_quota, subscription_tier, is_active)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(account_id) DO UPDATE SET
	max_agents = excluded.max_agents,
	monthly_token_quota = excluded.monthly_token_quota,
	subscription_tier = excluded.subscription_tier,
	is_active = excluded.is_active`

// Accounts is the SQLite-backed account directory. Entitlement columns are
// stored as text so malformed values surface as data integrity errors.
type Accounts struct {
	db database
}

// NewAccounts creates a SQLite account directory.
func NewAccounts(d database) *Accounts {
	return &Accounts{db: d}
}

// Get loads an entitlement. A missing row yields domain.ErrNotFound.
func (a *Accounts) Get(ctx context.Context, accountID string) (domacc.Entitlement, error) {
	var cols [4]sql.NullString
	err := a.db.QueryRow(ctx,
		`SELECT max_agents, monthly_token_quota, subscription_tier, is_active FROM accounts WHERE account_id = ?`,
		[]any{accountID}, &cols[0], &cols[1], &cols[2], &cols[3])
	if errors.Is(err, db.ErrKeyNotFound) {
		return domacc.Entitlement{}, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	if err != nil {
		return domacc.Entitlement{}, domain.NewStoreError("select account", err)
	}

	fields := make(map[string]string, 4)
	names := []string{account.FieldMaxAgents, account.FieldMonthlyTokenQuota, account.FieldSubscriptionTier, account.FieldIsActive}
	for i, c := range cols {
		if c.Valid {
			fields[names[i]] = c.String
		}
	}
	return account.FromFields(accountID, fields)
}

// Save writes every entitlement column, creating the account when missing.
func (a *Accounts) Save(ctx context.Context, e domacc.Entitlement) error {
	f := account.ToFields(e)
	_, err := a.db.Exec(ctx, upsertAccount, e.AccountID(),
		f[account.FieldMaxAgents], f[account.FieldMonthlyTokenQuota],
		f[account.FieldSubscriptionTier], f[account.FieldIsActive])
	if err != nil {
		return domain.NewStoreError("upsert account", err)
	}
	return nil
}

// Update persists only the columns the patch supplies.
func (a *Accounts) Update(ctx context.Context, accountID string, p *domacc.Patch) error {
	fields := account.PatchToFields(p)
	if len(fields) == 0 {
		return domain.Validationf("patch supplies no fields")
	}

	cols := make([]string, 0, len(fields))
	for c := range fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = c + " = ?"
		args = append(args, fields[c])
	}
	args = append(args, accountID)

	n, err := a.db.Exec(ctx, "UPDATE accounts SET "+strings.Join(sets, ", ")+" WHERE account_id = ?", args...)
	if err != nil {
		return domain.NewStoreError("update account", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	return nil
}
