// Command searcher starts the read API: article listings and lookups, word
// positions and contexts, statistics, word groups and phrases.
//
// Results are cached in Redis when it is reachable. The service consumes
// article-ingested events to drop corpus-wide cache entries, and publishes
// one query event per request for the analytics service.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
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
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/phrase"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/stats"
	pgstore "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/wordgroup"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/resilience"
)

const searcherGroup = "newsarchive-searcher"

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

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
	st := pgstore.New(db)

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var tracker searcher.Tracker
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize, 100, 2*time.Second)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
	}

	s := searcher.New(st, queryCache, tracker, m, searcher.Options{
		ContextRadius: cfg.Reader.ContextRadius,
		MaxResults:    cfg.Reader.MaxResults,
	})
	h := handler.New(
		s,
		stats.NewCalculator(st),
		wordgroup.New(st),
		phrase.New(st, st, s),
		queryCache,
		cfg.Ingest.DateLayouts,
	)

	checker := health.NewChecker()
	checker.Register("postgres", health.PingCheck(db, true))
	if redisClient != nil {
		checker.Register("redis", health.PingCheck(redisClient, false))
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

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if cfg.Kafka.Enabled && queryCache != nil {
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ArticleIngested, searcherGroup, queryCache.HandleArticleIngested)
		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("search service error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
