package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"lofin_collector/internal/config"
	"lofin_collector/internal/domain"
	"lofin_collector/internal/export"
	"lofin_collector/internal/service"
	"lofin_collector/internal/source/lofin"
	"lofin_collector/internal/storage/postgres"
)

// app holds the wired dependencies shared by the CLI commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sqlx.DB
	lease     *postgres.RunLease
	exporter  service.Exporter
	ledger    *postgres.LedgerStore
	collector *service.Collector
}

// newApp loads config and wires the collector. withLease guards commands
// that write against concurrent runs; read-only commands skip it.
func newApp(ctx context.Context, withLease bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg.LogLevel)

	if cfg.API.Key == "" {
		return nil, fmt.Errorf("api key not configured; set api.key or the referenced environment variable")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := postgres.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	if withLease {
		lease, err := postgres.AcquireRunLease(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.lease = lease
	}

	if cfg.Export.Enabled {
		exporter, err := export.NewRabbitMQ(export.Config{
			URL:        cfg.Export.URL,
			Exchange:   cfg.Export.Exchange,
			RoutingKey: cfg.Export.RoutingKey,
			QueueName:  cfg.Export.QueueName,
		}, logger)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.exporter = exporter
	}

	client, err := lofin.NewClient(cfg.API, logger)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	retryer := lofin.NewRetryer(cfg.API.Retry, logger)
	pager := lofin.NewPager(client, retryer, cfg.API.PageDelay, logger)

	a.ledger = postgres.NewLedgerStore(db)
	datasets := postgres.NewDatasetStore(db)
	txManager := postgres.NewTransactionManager(db)

	a.collector = service.NewCollector(
		pager,
		a.ledger,
		datasets,
		txManager,
		a.exporter,
		logger,
		cfg.Collection,
	)

	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.exporter != nil {
		_ = a.exporter.Close()
	}
	if a.lease != nil {
		if err := a.lease.Release(ctx); err != nil {
			a.logger.Warn("failed to release run lease", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// signalContext cancels on SIGINT/SIGTERM so the collector stops planning
// further dates while the in-flight date finishes.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// printSummary writes the end-of-run report the way the original collection
// log did, one line per counter.
func printSummary(summary *domain.RunSummary) {
	fmt.Printf("planned:       %d\n", summary.Planned)
	fmt.Printf("complete:      %d\n", summary.Completed)
	fmt.Printf("incomplete:    %d\n", summary.Incomplete)
	fmt.Printf("failed:        %d\n", summary.Failed)
	fmt.Printf("skipped:       %d\n", summary.Skipped)
	fmt.Printf("total records: %d\n", summary.TotalRecords)
	fmt.Printf("duration:      %s\n", summary.Duration.Round(time.Millisecond))
}
