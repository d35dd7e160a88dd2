package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meterd/pkg/meter"
)

// Checks exit with errDenied (status 2) when the action is not allowed.
func newCheckCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Ask whether an account may act",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "agents ACCOUNT_ID",
			Short: "May the account register one more agent",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
					d, err := c.CheckAgentLimit(ctx, args[0])
					if err != nil {
						return err
					}
					if err := opts.render(cmd, d, func(w io.Writer) {
						row(w, "allowed", d.Allowed)
						row(w, "agents", d.CurrentCount)
						row(w, "limit", d.Limit)
						row(w, "remaining", formatRemaining(d.Remaining))
					}); err != nil {
						return err
					}
					if !d.Allowed {
						return deniedError(d.Reason)
					}
					return nil
				})
			},
		},
		newCheckTokensCmd(opts),
		&cobra.Command{
			Use:   "calls ACCOUNT_ID",
			Short: "May the account place one more call today",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
					d, err := c.CheckCallLimit(ctx, args[0])
					if err != nil {
						return err
					}
					if err := opts.render(cmd, d, func(w io.Writer) {
						row(w, "allowed", d.Allowed)
						row(w, "calls today", d.CurrentCalls)
						row(w, "daily limit", d.DailyLimit)
					}); err != nil {
						return err
					}
					if !d.Allowed {
						return deniedError(d.Reason)
					}
					return nil
				})
			},
		},
		newCheckAllCmd(opts),
	)
	return cmd
}

func newCheckTokensCmd(opts *rootOptions) *cobra.Command {
	var requested int64
	cmd := &cobra.Command{
		Use:   "tokens ACCOUNT_ID",
		Short: "May the account spend --requested more tokens this month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				d, err := c.CheckTokenLimit(ctx, args[0], requested)
				if err != nil {
					return err
				}
				if err := opts.render(cmd, d, func(w io.Writer) {
					row(w, "allowed", d.Allowed)
					row(w, "tokens this month", d.CurrentUsage)
					row(w, "limit", d.Limit)
					row(w, "remaining", formatRemaining(d.Remaining))
					row(w, "would exceed", d.WouldExceed)
				}); err != nil {
					return err
				}
				if !d.Allowed {
					return deniedError(d.Reason)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&requested, "requested", 0, "Tokens the next action needs")
	return cmd
}

func newCheckAllCmd(opts *rootOptions) *cobra.Command {
	var (
		agents bool
		tokens int64
		calls  bool
	)
	cmd := &cobra.Command{
		Use:   "all ACCOUNT_ID",
		Short: "Run the selected checks in order agents, tokens, calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eo := &meter.EnforceOptions{CheckAgents: agents, CheckCalls: calls}
			if cmd.Flags().Changed("tokens") {
				eo.CheckTokens = &tokens
			}
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				res, err := c.EnforceUserLimits(ctx, args[0], eo)
				if err != nil {
					return err
				}
				if err := opts.render(cmd, res, func(w io.Writer) {
					row(w, "allowed", res.Allowed)
					row(w, "checked", fmt.Sprint(res.LimitsChecked))
					for _, v := range res.Violations {
						row(w, "violation "+string(v.Type), v.Detail)
					}
				}); err != nil {
					return err
				}
				if !res.Allowed {
					return errDenied
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&agents, "agents", false, "Check the agent limit")
	cmd.Flags().Int64Var(&tokens, "tokens", 0, "Check that this many more tokens fit the monthly quota")
	cmd.Flags().BoolVar(&calls, "calls", false, "Check the daily call limit")
	return cmd
}
