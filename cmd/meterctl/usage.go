package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meterd/pkg/meter"
)

func newUsageCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Record and inspect usage",
	}
	cmd.AddCommand(
		newUsageRecordCmd(opts),
		newUsageDailyCmd(opts),
		newUsageMonthlyCmd(opts),
		newUsageStatsCmd(opts),
		newUsageReportCmd(opts),
	)
	return cmd
}

func newUsageRecordCmd(opts *rootOptions) *cobra.Command {
	var (
		delta    meter.Delta
		cost     string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "record ACCOUNT_ID",
		Short: "Add a usage delta to today's record",
		Long:  "Add a usage delta to today's record. With --provider the cost is priced from the configured table instead of --cost.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cost != "" && provider != "" {
				return fmt.Errorf("--cost and --provider are mutually exclusive")
			}
			if cost != "" {
				d, err := decimal.NewFromString(cost)
				if err != nil {
					return fmt.Errorf("invalid --cost %q: %w", cost, err)
				}
				delta.Cost = d
			}
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				if provider != "" {
					delta.Cost = c.EstimateCost(meter.CostUsage{
						Provider:        meter.Provider(provider),
						Tokens:          delta.Tokens,
						DurationSeconds: delta.DurationSeconds,
						Calls:           delta.Calls,
					})
				}
				if err := c.RecordUsage(ctx, args[0], delta); err != nil {
					return err
				}
				return showDaily(ctx, cmd, opts, c, args[0], time.Now().UTC())
			})
		},
	}
	f := cmd.Flags()
	f.Int64Var(&delta.Tokens, "tokens", 0, "Tokens consumed")
	f.Int64Var(&delta.Calls, "calls", 0, "Calls placed")
	f.Int64Var(&delta.DurationSeconds, "duration", 0, "Billable seconds")
	f.StringVar(&cost, "cost", "", "Explicit cost as a decimal")
	f.StringVar(&provider, "provider", "", "Price the delta as llm-inference, speech or telephony")
	return cmd
}

func newUsageDailyCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "daily ACCOUNT_ID",
		Short: "Show one day's usage (default: today, UTC)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if date != "" {
				var err error
				if day, err = parseDate(date); err != nil {
					return err
				}
			}
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				return showDaily(ctx, cmd, opts, c, args[0], day)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD")
	return cmd
}

func newUsageMonthlyCmd(opts *rootOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "monthly ACCOUNT_ID",
		Short: "Show a calendar month's totals (default: current month, UTC)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if month != "" {
				var err error
				if at, err = time.Parse(monthLayout, month); err != nil {
					return fmt.Errorf("invalid month %q, want YYYY-MM", month)
				}
			}
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				m, err := c.GetMonthlyUsage(ctx, args[0], at.Year(), int(at.Month()))
				if err != nil {
					return err
				}
				return opts.render(cmd, m, func(w io.Writer) {
					row(w, "month", fmt.Sprintf("%04d-%02d", m.Year, m.Month))
					row(w, "tokens", m.TotalTokens)
					row(w, "calls", m.TotalCalls)
					row(w, "cost", m.TotalCost.String())
				})
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM")
	return cmd
}

func newUsageStatsCmd(opts *rootOptions) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "stats ACCOUNT_ID",
		Short: "Sum an inclusive date range with a per-day breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(from)
			if err != nil {
				return err
			}
			end, err := parseDate(to)
			if err != nil {
				return err
			}
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				s, err := c.GetUserUsageStats(ctx, args[0], start, end)
				if err != nil {
					return err
				}
				return opts.render(cmd, s, func(w io.Writer) {
					_, _ = fmt.Fprintln(w, "DATE\tTOKENS\tCALLS\tSECONDS\tCOST")
					for _, d := range s.DailyBreakdown {
						_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
							d.Date.Format(dateLayout), d.TotalTokens, d.TotalCalls, d.TotalDurationSeconds, d.APICost)
					}
					_, _ = fmt.Fprintf(w, "TOTAL\t%d\t%d\t\t%s\n", s.TotalTokens, s.TotalCalls, s.TotalCosts)
				})
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day as YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last day as YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newUsageReportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report ACCOUNT_ID",
		Short: "Show usage against every limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				r, err := c.GetReport(ctx, args[0])
				if err != nil {
					return err
				}
				return opts.render(cmd, r, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "account %s\ttier %s\tactive %t\n\n", r.AccountID, r.Tier, r.IsActive)
					_, _ = fmt.Fprintln(w, "RESOURCE\tUSED\tLIMIT\tREMAINING\tUSED%\tEXHAUSTED")
					writeLine(w, "agents", r.Agents)
					writeLine(w, "tokens", r.Tokens)
					writeLine(w, "calls", r.Calls)
				})
			})
		},
	}
}

func showDaily(ctx context.Context, cmd *cobra.Command, opts *rootOptions, c *meter.Client, accountID string, day time.Time) error {
	d, err := c.GetDailyUsage(ctx, accountID, day)
	if err != nil {
		return err
	}
	return opts.render(cmd, d, func(w io.Writer) {
		row(w, "account", d.AccountID)
		row(w, "date", d.Date.Format(dateLayout))
		row(w, "tokens", d.TotalTokens)
		row(w, "calls", d.TotalCalls)
		row(w, "seconds", d.TotalDurationSeconds)
		row(w, "cost", d.APICost.String())
	})
}
