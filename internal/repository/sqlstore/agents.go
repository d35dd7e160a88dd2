package sqlstore

import (
	"context"

	"github.com/kailas-cloud/meterd/internal/domain"
)

// Agents is the SQLite-backed agent directory.
type Agents struct {
	db database
}

// NewAgents creates a SQLite agent directory.
func NewAgents(d database) *Agents {
	return &Agents{db: d}
}

// CountActiveAgents returns how many agents the account currently owns.
func (a *Agents) CountActiveAgents(ctx context.Context, accountID string) (int64, error) {
	var n int64
	if err := a.db.QueryRow(ctx, `SELECT COUNT(*) FROM agents WHERE account_id = ?`, []any{accountID}, &n); err != nil {
		return 0, domain.NewStoreError("count agents", err)
	}
	return n, nil
}

// Register adds an agent. Returns false when it was already registered.
func (a *Agents) Register(ctx context.Context, accountID, agentID string) (bool, error) {
	n, err := a.db.Exec(ctx, `INSERT INTO agents (account_id, agent_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, accountID, agentID)
	if err != nil {
		return false, domain.NewStoreError("insert agent", err)
	}
	return n > 0, nil
}

// Deregister removes an agent. Returns false when it was not registered.
func (a *Agents) Deregister(ctx context.Context, accountID, agentID string) (bool, error) {
	n, err := a.db.Exec(ctx, `DELETE FROM agents WHERE account_id = ? AND agent_id = ?`, accountID, agentID)
	if err != nil {
		return false, domain.NewStoreError("delete agent", err)
	}
	return n > 0, nil
}
