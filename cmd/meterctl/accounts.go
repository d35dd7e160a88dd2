package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meterd/pkg/meter"
)

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage account limits",
	}
	cmd.AddCommand(
		newAccountsCreateCmd(opts),
		newAccountsGetCmd(opts),
		newAccountsSetCmd(opts),
	)
	return cmd
}

func newAccountsCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		maxAgents  int64
		tokenQuota int64
		tierName   string
		inactive   bool
	)
	cmd := &cobra.Command{
		Use:   "create ACCOUNT_ID",
		Short: "Create or replace an account's limits (-1 means unlimited)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := meter.LimitFromSentinel(maxAgents)
			if err != nil {
				return fmt.Errorf("--max-agents: %w", err)
			}
			tokens, err := meter.LimitFromSentinel(tokenQuota)
			if err != nil {
				return fmt.Errorf("--token-quota: %w", err)
			}
			acct := meter.Account{
				ID:                args[0],
				MaxAgents:         agents,
				MonthlyTokenQuota: tokens,
				Tier:              meter.Tier(tierName),
				Active:            !inactive,
			}
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				if err := c.CreateAccount(ctx, acct); err != nil {
					return err
				}
				return showLimits(ctx, cmd, opts, c, acct.ID)
			})
		},
	}
	cmd.Flags().Int64Var(&maxAgents, "max-agents", 1, "Maximum registered agents")
	cmd.Flags().Int64Var(&tokenQuota, "token-quota", 10000, "Monthly token quota")
	cmd.Flags().StringVar(&tierName, "tier", string(meter.TierFree), "Subscription tier: free, pro, enterprise")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the account deactivated")
	return cmd
}

func newAccountsGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ACCOUNT_ID",
		Short: "Show an account's limits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				return showLimits(ctx, cmd, opts, c, args[0])
			})
		},
	}
}

func newAccountsSetCmd(opts *rootOptions) *cobra.Command {
	var (
		maxAgents  int64
		tokenQuota int64
		tierName   string
		active     bool
	)
	cmd := &cobra.Command{
		Use:   "set ACCOUNT_ID",
		Short: "Update only the given limit fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := &meter.LimitsPatch{}
			flags := cmd.Flags()
			if flags.Changed("max-agents") {
				patch.MaxAgents = &maxAgents
			}
			if flags.Changed("token-quota") {
				patch.MonthlyTokenQuota = &tokenQuota
			}
			if flags.Changed("tier") {
				patch.SubscriptionTier = &tierName
			}
			if flags.Changed("active") {
				patch.IsActive = &active
			}
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				if err := c.UpdateUserLimits(ctx, args[0], patch); err != nil {
					return err
				}
				return showLimits(ctx, cmd, opts, c, args[0])
			})
		},
	}
	cmd.Flags().Int64Var(&maxAgents, "max-agents", 0, "Maximum registered agents (-1 means unlimited)")
	cmd.Flags().Int64Var(&tokenQuota, "token-quota", 0, "Monthly token quota (-1 means unlimited)")
	cmd.Flags().StringVar(&tierName, "tier", "", "Subscription tier: free, pro, enterprise")
	cmd.Flags().BoolVar(&active, "active", true, "Whether the account is active")
	return cmd
}

func showLimits(ctx context.Context, cmd *cobra.Command, opts *rootOptions, c *meter.Client, accountID string) error {
	l, err := c.GetUserLimits(ctx, accountID)
	if err != nil {
		return err
	}
	return opts.render(cmd, l, func(w io.Writer) {
		row(w, "account", l.AccountID)
		row(w, "tier", l.SubscriptionTier)
		row(w, "active", l.IsActive)
		row(w, "max agents", l.MaxAgents)
		row(w, "monthly tokens", l.MonthlyTokenQuota)
		row(w, "daily calls", l.DailyCallLimit)
	})
}
