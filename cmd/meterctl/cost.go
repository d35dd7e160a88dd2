package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meterd/pkg/meter"
)

type costEstimate struct {
	Usage meter.CostUsage `json:"usage"`
	Cost  string          `json:"cost"`
}

func newCostCmd(opts *rootOptions) *cobra.Command {
	var u meter.CostUsage
	var provider string
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Price raw usage with the configured table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u.Provider = meter.Provider(provider)
			return opts.withClient(cmd, func(_ context.Context, c *meter.Client) error {
				est := costEstimate{Usage: u, Cost: c.EstimateCost(u).String()}
				return opts.render(cmd, est, func(w io.Writer) {
					row(w, "provider", provider)
					row(w, "cost", est.Cost)
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&provider, "provider", string(meter.ProviderLLM), "llm-inference, speech or telephony")
	f.Int64Var(&u.Tokens, "tokens", 0, "Tokens consumed")
	f.Int64Var(&u.DurationSeconds, "duration", 0, "Billable seconds")
	f.Int64Var(&u.Calls, "calls", 0, "Calls placed")
	return cmd
}
