package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/meterd/internal/config"
	logpkg "github.com/kailas-cloud/meterd/internal/logger"
	"github.com/kailas-cloud/meterd/pkg/meter"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	sqlitePath string
	logLevel   string
	asJSON     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "meterctl",
		Short:         "Administer meterd accounts and inspect usage",
		Long:          "meterctl talks to the meterd usage store directly: it seeds account limits, records usage, answers limit checks and prints usage reports.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default: config/<ENV>.yaml)")
	pf.StringVar(&opts.sqlitePath, "sqlite", "", "Use this SQLite file instead of the configured store")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: warn)")
	pf.BoolVar(&opts.asJSON, "json", false, "Render JSON output")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountsCmd(opts),
		newUsageCmd(opts),
		newCheckCmd(opts),
		newAgentsCmd(opts),
		newCostCmd(opts),
		newHealthCmd(opts),
	)
	return rootCmd
}

// withClient opens a client for the duration of fn.
func (o *rootOptions) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *meter.Client) error) error {
	logger, err := logpkg.NewLogger("cli", o.logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	clientOpts, err := o.clientOptions()
	if err != nil {
		return err
	}
	clientOpts = append(clientOpts, meter.WithLogger(logger))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := meter.New(ctx, clientOpts...)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Debug("meterctl command", zap.String("command", cmd.CommandPath()))
	return fn(ctx, c)
}

func (o *rootOptions) clientOptions() ([]meter.Option, error) {
	if o.sqlitePath != "" {
		return []meter.Option{meter.WithSQLite(o.sqlitePath)}, nil
	}

	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(config.GetEnv())
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return optionsFromConfig(&cfg)
}

// optionsFromConfig maps the service config onto client options so the CLI
// and the daemon share one store and one price table.
func optionsFromConfig(cfg *config.Config) ([]meter.Option, error) {
	db := cfg.Database
	var opts []meter.Option
	switch db.Driver {
	case config.DriverRedis, config.DriverValkey:
		if len(db.Addrs) == 0 {
			return nil, fmt.Errorf("database.addrs is required for %s", db.Driver)
		}
		if db.Driver == config.DriverValkey {
			opts = append(opts, meter.WithValkey(db.Addrs[0], db.Password))
		} else {
			opts = append(opts, meter.WithRedis(db.Addrs[0], db.Password))
		}
		opts = append(opts, meter.WithSeedAddrs(db.Addrs...), meter.WithRedisACL(db.Username, db.DB))
	case config.DriverSQLite:
		opts = append(opts, meter.WithSQLite(db.SQLitePath))
	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}

	prices, err := meter.ParsePricing(cfg.Pricing.PerToken, cfg.Pricing.PerSecond, cfg.Pricing.PerMinute, cfg.Pricing.PerCall)
	if err != nil {
		return nil, fmt.Errorf("pricing: %w", err)
	}
	opts = append(opts, meter.WithPricing(prices), meter.WithStoreTimeout(db.OpTimeout()))
	if db.ReadinessTimeout > 0 {
		opts = append(opts, meter.WithReadinessTimeout(time.Duration(db.ReadinessTimeout)*time.Second))
	}
	return opts, nil
}
