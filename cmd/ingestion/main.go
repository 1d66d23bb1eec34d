// Command ingestion starts the article ingestion HTTP service.
//
// The service accepts articles via POST /api/v1/articles, splits them into
// the word grid, stores the article and its grid in PostgreSQL in one
// transaction and announces each stored article on Kafka.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/publisher"
	pgstore "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ingestion service", "port", cfg.Server.Port)

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
	slog.Info("connected to postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)

	st := pgstore.New(db)
	if cfg.Ingest.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			slog.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	var (
		events   publisher.EventPublisher
		producer *kafka.Producer
	)
	if cfg.Kafka.Enabled && cfg.Ingest.PublishEvents {
		producer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ArticleIngested)
		defer producer.Close()
		events = producer
		slog.Info("article events enabled", "topic", cfg.Kafka.Topics.ArticleIngested)
	} else {
		slog.Warn("article events disabled, searcher caches will only expire by TTL")
	}

	pub := publisher.New(st, events, m, publisher.OptionsFromConfig(cfg))
	h := handler.New(pub, cfg.Ingest.MaxArticleBytes)

	checker := health.NewChecker()
	checker.Register("postgres", health.PingCheck(db, true))
	if producer != nil {
		checker.Register("kafka", health.PingCheck(producer, false))
	}

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var limiter *ratelimit.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimit, time.Minute)
		go limiter.Run(ctx)
	}

	var chain http.Handler = mux
	chain = middleware.RateLimit(limiter, http.MethodPost)(chain)
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

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("ingestion service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("ingestion service stopped")
}
