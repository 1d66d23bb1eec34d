// Command analytics starts the query analytics service.
//
// It consumes query events from the searcher and article-ingested events
// from ingestion, aggregates them in memory, snapshots the totals to
// PostgreSQL on an interval and serves them at GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/analytics/aggregator"
	pgstore "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/resilience"
)

const analyticsGroup = "newsarchive-analytics"

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		metrics.Serve(ctx, cfg.Metrics.Port)
	}

	db, err := postgres.Connect(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Second})
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.Ingest.AutoMigrate {
		if err := pgstore.New(db).Migrate(ctx); err != nil {
			slog.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	agg := analytics.NewAggregator()
	snapshots := aggregator.NewStore(db)
	if err := snapshots.Restore(ctx, agg); err != nil {
		slog.Warn("could not restore analytics snapshot", "error", err)
	}

	checker := health.NewChecker()
	checker.Register("postgres", health.PingCheck(db, true))

	mux := http.NewServeMux()
	analytics.NewHandler(agg, snapshots).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Kafka.Enabled {
		for _, topic := range []string{cfg.Kafka.Topics.QueryEvents, cfg.Kafka.Topics.ArticleIngested} {
			consumer := kafka.NewConsumer(cfg.Kafka, topic, analyticsGroup, agg.HandleMessage)
			g.Go(func() error {
				return consumer.Start(gctx)
			})
		}
	} else {
		slog.Warn("kafka disabled, analytics will only serve restored totals")
	}
	g.Go(func() error {
		return snapshots.RunPeriodicSave(gctx, agg, cfg.Analytics.SnapshotInterval)
	})
	g.Go(func() error {
		slog.Info("analytics service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("analytics service error", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics service stopped")
}
