package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/neomorfeo/leadcascade/internal/adapter/fsm"
	"github.com/neomorfeo/leadcascade/internal/adapter/metrics"
	oteladapter "github.com/neomorfeo/leadcascade/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/leadcascade/internal/adapter/river"
	"github.com/neomorfeo/leadcascade/internal/adapter/sqlite"
	"github.com/neomorfeo/leadcascade/internal/app"
	"github.com/neomorfeo/leadcascade/internal/config"

	handler "github.com/neomorfeo/leadcascade/internal/adapter/http"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the sweep scheduler",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run()
		},
	}
}

// run serves until SIGINT or SIGTERM, then drains the HTTP server and the
// River client.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := oteladapter.Setup(ctx, oteladapter.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	ledger := sqlite.NewLedger(db)
	directory := sqlite.NewDirectory(db)
	health := app.NewHealth(ledger)
	m := metrics.New()

	// The scheduler needs the engine and the engine publishes through the
	// scheduler's client; the first sweep only runs after Start below.
	var engine *app.Engine
	client, err := riveradapter.Setup(ctx, db, riveradapter.SchedulerConfig{
		Interval: cfg.SweepInterval,
		Sweeper: riveradapter.SweeperFunc(func(ctx context.Context, now time.Time) (app.SweepResult, error) {
			return engine.SweepExpired(ctx, now)
		}),
		Observers: []riveradapter.SweepObserver{health, m},
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	publisher := oteladapter.NewTracingPublisher(m.Publisher(riveradapter.NewPublisher(client)))

	// --- Application ---
	engine = app.NewEngine(
		oteladapter.NewTracingLedger(ledger),
		directory,
		publisher,
		fsm.New(),
		app.WithSLA(cfg.SLA),
		app.WithLogger(logger),
	)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware("leadcascade", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("leadcascade", version))
	handler.Register(api, engine, health)
	router.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// River stops through Stop below, not through cancellation of its start context.
	if err := client.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("leadcascade listening",
			"port", cfg.Port,
			"sla", cfg.SLA,
			"sweep_interval", cfg.SweepInterval,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := client.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("river shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("stopped")
	return nil
}
