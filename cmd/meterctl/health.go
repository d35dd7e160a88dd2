package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meterd/pkg/meter"
)

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the usage store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withClient(cmd, func(ctx context.Context, c *meter.Client) error {
				h := c.Health(ctx)
				if err := opts.render(cmd, h, func(w io.Writer) {
					row(w, "status", h.Status)
					for name, status := range h.Checks {
						row(w, name, status)
					}
				}); err != nil {
					return err
				}
				if !h.Serving() {
					return errors.New("usage store is unhealthy")
				}
				return nil
			})
		},
	}
}
