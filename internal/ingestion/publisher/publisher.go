// Package publisher runs the ingestion pipeline: parse, tokenize, index, and
// store one article in a single transaction, then announce it on Kafka.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/tracing"
)

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
	Topic() string
}

// Options tune a Publisher. Zero values fall back to config defaults.
type Options struct {
	DateLayouts     []string
	MaxArticleBytes int
	StoreTimeout    time.Duration
	Tracing         bool
}

// OptionsFromConfig builds Options from the ingest and tracing sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DateLayouts:     cfg.Ingest.DateLayouts,
		MaxArticleBytes: cfg.Ingest.MaxArticleBytes,
		StoreTimeout:    cfg.Ingest.StoreTimeout,
		Tracing:         cfg.Tracing.Enabled,
	}
}

// Publisher ingests articles.
type Publisher struct {
	store   store.Store
	events  EventPublisher
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	opts    Options
	logger  *slog.Logger
}

// New creates a Publisher. events and m may be nil; without events nothing
// is announced after commit.
func New(st store.Store, events EventPublisher, m *metrics.Metrics, opts Options) *Publisher {
	if len(opts.DateLayouts) == 0 {
		opts.DateLayouts = config.DefaultDateLayouts
	}
	return &Publisher{
		store:   st,
		events:  events,
		metrics: m,
		opts:    opts,
		logger:  slog.Default().With("component", "publisher"),
		breaker: resilience.NewCircuitBreaker("article-events", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			OnStateChange: func(name string, state resilience.State) {
				m.SetBreakerState(name, int(state))
			},
		}),
	}
}

// Ingest parses raw, stores the article and its word grid atomically and
// returns what was written. Nothing is stored when any step fails.
func (p *Publisher) Ingest(ctx context.Context, raw string) (resp *ingestion.IngestResponse, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "ingest", logger.RequestID(ctx))
	var tokens, positions int
	defer func() {
		span.End(err)
		if p.opts.Tracing {
			span.Log(p.logger)
		}
		outcome := "ok"
		if err != nil {
			outcome = apperrors.Kind(err)
		}
		p.metrics.ObserveIngest(outcome, time.Since(start).Seconds(), tokens, positions)
	}()

	if p.opts.MaxArticleBytes > 0 && len(raw) > p.opts.MaxArticleBytes {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusRequestEntityTooLarge,
			"article is %d bytes, limit is %d", len(raw), p.opts.MaxArticleBytes)
	}

	_, parseSpan := tracing.StartChildSpan(ctx, "parse")
	sub, err := validator.ParseArticle(raw, p.opts.DateLayouts)
	parseSpan.End(err)
	if err != nil {
		return nil, err
	}
	span.SetAttr("title", sub.Title)

	_, indexSpan := tracing.StartChildSpan(ctx, "index")
	words := tokenizer.Tokenize(sub.Body)
	idx := index.Build(words)
	indexSpan.SetAttr("words", idx.WordCount())
	indexSpan.SetAttr("tokens", idx.Len())
	indexSpan.End(nil)

	storeCtx, storeSpan := tracing.StartChildSpan(ctx, "store")
	var articleID int64
	err = resilience.WithTimeout(storeCtx, p.opts.StoreTimeout, "storing article", func(ctx context.Context) error {
		return p.store.InTx(ctx, func(tx store.Tx) error {
			id, err := write(ctx, tx, sub, idx)
			articleID = id
			return err
		})
	})
	storeSpan.End(err)
	if err != nil {
		return nil, err
	}
	tokens, positions = idx.Len(), idx.WordCount()

	resp = &ingestion.IngestResponse{
		ArticleID:   articleID,
		Title:       sub.Title,
		PublishedOn: sub.PublishedOn.Format(time.DateOnly),
		Newspaper:   sub.Newspaper,
		Reporter:    store.Reporter{FirstName: sub.Reporter.First, LastName: sub.Reporter.Last}.FullName(),
		Paragraphs:  paragraphCount(words),
		Words:       positions,
		Tokens:      tokens,
		Status:      "stored",
	}

	p.publish(ctx, ingestion.ArticleIngestedEvent{
		Type:        ingestion.EventArticleIngested,
		ArticleID:   articleID,
		Title:       resp.Title,
		Newspaper:   resp.Newspaper,
		Reporter:    resp.Reporter,
		PublishedOn: resp.PublishedOn,
		Words:       resp.Words,
		Tokens:      resp.Tokens,
		LatencyMs:   time.Since(start).Milliseconds(),
		IngestedAt:  time.Now().UTC(),
		RequestID:   logger.RequestID(ctx),
	})

	logger.FromContext(ctx).Info("article ingested",
		"article_id", articleID,
		"title", sub.Title,
		"words", positions,
		"tokens", tokens,
	)
	return resp, nil
}

// write finds or creates the reporter and newspaper, then the article and
// its occurrences.
func write(ctx context.Context, tx store.Tx, sub *validator.Submission, idx *index.ArticleIndex) (int64, error) {
	reporterID, ok, err := tx.FindReporterID(ctx, sub.Reporter.First, sub.Reporter.Last)
	if err != nil {
		return 0, err
	}
	if !ok {
		if reporterID, err = tx.CreateReporter(ctx, sub.Reporter.First, sub.Reporter.Last); err != nil {
			return 0, err
		}
	}

	newspaperID, ok, err := tx.FindNewspaperID(ctx, sub.Newspaper)
	if err != nil {
		return 0, err
	}
	if !ok {
		if newspaperID, err = tx.CreateNewspaper(ctx, sub.Newspaper); err != nil {
			return 0, err
		}
	}

	articleID, err := tx.CreateArticle(ctx, store.NewArticle{
		Title:       sub.Title,
		Authors:     sub.Authors,
		PublishedOn: sub.PublishedOn,
		ReporterID:  reporterID,
		NewspaperID: newspaperID,
	})
	if err != nil {
		return 0, err
	}

	for _, token := range idx.Tokens() {
		if err := tx.UpsertTokenOccurrences(ctx, token, articleID, idx.Positions(token)); err != nil {
			return 0, fmt.Errorf("storing token %q: %w", token, err)
		}
	}
	return articleID, nil
}

// publish announces a committed article. Failures are logged and counted
// but never fail the ingestion.
func (p *Publisher) publish(ctx context.Context, event ingestion.ArticleIngestedEvent) {
	if p.events == nil {
		return
	}
	_, span := tracing.StartChildSpan(ctx, "publish")
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.events.Publish(ctx, kafka.Event{
			Key:   strconv.FormatInt(event.ArticleID, 10),
			Type:  event.Type,
			Value: event,
		})
	})
	span.End(err)
	p.metrics.ObserveEvent(p.events.Topic(), err)
	if err != nil {
		p.logger.Warn("article stored but event not published",
			"article_id", event.ArticleID,
			"breaker", p.breaker.State().String(),
			"error", err,
		)
	}
}

func paragraphCount(words []tokenizer.Word) int {
	if len(words) == 0 {
		return 0
	}
	return words[len(words)-1].Paragraph
}
