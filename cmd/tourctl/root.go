package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/app"
	"github.com/spec-kit/tour-booking/internal/config"
	"github.com/spec-kit/tour-booking/internal/observability"
)

type cli struct {
	apiURL   string
	driver   string
	dbPath   string
	logLevel string

	logger *zap.Logger
	state  *app.State
}

// execute runs one command line and always releases the local store,
// including when the command fails.
func execute(ctx context.Context, args []string, out io.Writer) error {
	c := &cli{}
	cmd := c.rootCmd()
	cmd.SetArgs(args)
	if out != nil {
		cmd.SetOut(out)
	}
	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, c.close(ctx))
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tourctl",
		Short:         "Tour booking client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.open(cmd.Context())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.apiURL, "api", "", "backend base URL (defaults to API_URL)")
	flags.StringVar(&c.driver, "store", "", "local store driver: memory, sqlite or redis (defaults to STORE_DRIVER)")
	flags.StringVar(&c.dbPath, "db", "", "sqlite file (defaults to STORE_SQLITE_PATH)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")

	cmd.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.passwdCmd(),
		c.profileCmd(),
		c.cartCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "tourctl %s\n", version)
			},
		},
	)
	return cmd
}

func (c *cli) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.apiURL != "" {
		cfg.Gateway.BaseURL = c.apiURL
	}
	if c.driver != "" {
		cfg.Store.Driver = c.driver
	}
	if c.dbPath != "" {
		cfg.Store.SQLitePath = c.dbPath
	}
	if c.logLevel != "" {
		cfg.Logger.Level = c.logLevel
	} else if cfg.Logger.Level == "info" {
		cfg.Logger.Level = "warn"
	}

	c.logger, err = observability.NewLogger(cfg.Logger, "stderr")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	c.state, err = app.New(ctx, cfg, app.Options{Logger: c.logger})
	if err != nil {
		return err
	}
	if err := c.state.Start(ctx); err != nil {
		c.logger.Warn("startup restore incomplete", zap.Error(err))
	}
	return nil
}

func (c *cli) close(ctx context.Context) error {
	if c.state == nil {
		return nil
	}
	err := c.state.Close(ctx)
	c.state = nil
	_ = c.logger.Sync()
	return err
}
