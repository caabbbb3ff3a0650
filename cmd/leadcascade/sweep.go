package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/leadcascade/internal/adapter/fsm"
	riveradapter "github.com/neomorfeo/leadcascade/internal/adapter/river"
	"github.com/neomorfeo/leadcascade/internal/adapter/sqlite"
	"github.com/neomorfeo/leadcascade/internal/app"
	"github.com/neomorfeo/leadcascade/internal/config"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one expiration sweep and print the summary",
		Long: `Escalates every assignment whose window has ended, exactly as one
scheduler tick would. Events are queued for the next serve process to consume.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger := cfg.Logger(os.Stderr)

			ctx := cmd.Context()

			db, err := sqlite.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			var engine *app.Engine
			client, err := riveradapter.Setup(ctx, db, riveradapter.SchedulerConfig{
				Interval: cfg.SweepInterval,
				Sweeper: riveradapter.SweeperFunc(func(ctx context.Context, now time.Time) (app.SweepResult, error) {
					return engine.SweepExpired(ctx, now)
				}),
				Logger: logger,
			})
			if err != nil {
				return fmt.Errorf("river: %w", err)
			}

			engine = app.NewEngine(
				sqlite.NewLedger(db),
				sqlite.NewDirectory(db),
				riveradapter.NewPublisher(client),
				fsm.New(),
				app.WithSLA(cfg.SLA),
				app.WithLogger(logger),
			)

			res, err := engine.SweepExpired(ctx, time.Now().UTC())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "escalated=%d exhausted=%d skipped=%d failed=%d\n",
				res.Escalated, res.Exhausted, res.Skipped, res.Failed)
			return nil
		},
	}
}
