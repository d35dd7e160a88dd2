// Package meter is an in-process client for meterd: usage metering and
// limit enforcement for conversational-agent accounts, backed by Redis,
// Valkey or SQLite.
//
// # Typical caller flow
//
//	client, _ := meter.New(ctx, meter.WithSQLite("meterd.db"))
//	defer client.Close()
//
//	_ = client.CreateAccount(ctx, meter.Account{
//	    ID: "acct-1", MaxAgents: meter.Limited(3),
//	    MonthlyTokenQuota: meter.Limited(100_000), Tier: meter.TierPro, Active: true,
//	})
//
//	d, _ := client.CheckTokenLimit(ctx, "acct-1", 1200)
//	if d.Allowed {
//	    // ... run the turn ...
//	    _ = client.RecordUsage(ctx, "acct-1", meter.Delta{Tokens: 1187, Calls: 1})
//	}
//
// Limits are soft: a check followed by a record is not transactional, so
// concurrent callers may overshoot a ceiling by the size of in-flight work.
package meter
