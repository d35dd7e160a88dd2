package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meterd/pkg/meter"
)

func newAgentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Register and retire agents against the agent quota",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add ACCOUNT_ID AGENT_ID",
			Short: "Register an agent if the quota allows",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
					d, err := c.ProvisionAgent(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					if err := opts.render(cmd, d, func(w io.Writer) {
						row(w, "allowed", d.Allowed)
						row(w, "agents", d.CurrentCount)
						row(w, "limit", d.Limit)
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
		&cobra.Command{
			Use:   "remove ACCOUNT_ID AGENT_ID",
			Short: "Retire an agent",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
					removed, err := c.RetireAgent(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("agent %s is not registered to %s: %w", args[1], args[0], meter.ErrNotFound)
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "retired %s\n", args[1])
					return err
				})
			},
		},
	)
	return cmd
}
