// Package cache is a read-through cache for archive queries. Entries are
// JSON values keyed by a hashed query description and grouped into scopes
// so that one ingestion only drops what it can have changed.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "news:"

// ErrMiss may be returned by a Backend for an absent key.
var ErrMiss = errors.New("cache miss")

// Scope groups keys by what invalidates them.
type Scope string

const (
	// ScopeArticle holds data derived from one stored article. Articles are
	// immutable, so these entries only expire.
	ScopeArticle Scope = "article"
	// ScopeCorpus holds data that changes whenever an article is added.
	ScopeCorpus Scope = "corpus"
)

// Backend is satisfied by *redis.Client.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// GetOrCompute returns the cached value for (scope, key) or computes,
// stores and returns it. Concurrent callers for the same key share one
// computation. A nil cache always computes. Backend failures degrade to a
// miss and are only logged.
func GetOrCompute[T any](ctx context.Context, c *QueryCache, scope Scope, key string, compute func(ctx context.Context) (T, error)) (T, bool, error) {
	if c == nil {
		v, err := compute(ctx)
		return v, false, err
	}
	fullKey := c.buildKey(scope, key)

	var cached T
	if c.get(ctx, fullKey, &cached) {
		return cached, true, nil
	}

	val, err, _ := c.group.Do(fullKey, func() (any, error) {
		var again T
		if c.get(ctx, fullKey, &again) {
			return again, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}
		c.set(ctx, fullKey, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return val.(T), false, nil
}

func (c *QueryCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) && !pkgredis.IsMiss(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return false
	}
	c.hits.Add(1)
	c.metrics.ObserveCache(true)
	return true
}

func (c *QueryCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	c.metrics.ObserveCache(false)
}

// InvalidateScope drops every entry in scope.
func (c *QueryCache) InvalidateScope(ctx context.Context, scope Scope) (int64, error) {
	deleted, err := c.backend.DeletePrefix(ctx, keyPrefix+string(scope)+":")
	if err != nil {
		return deleted, fmt.Errorf("invalidating %s cache: %w", scope, err)
	}
	c.logger.Info("cache invalidated", "scope", scope, "keys_deleted", deleted)
	return deleted, nil
}

// Invalidate drops every entry.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.backend.DeletePrefix(ctx, keyPrefix)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "scope", "all", "keys_deleted", deleted)
	return deleted, nil
}

// HandleArticleIngested is a kafka.MessageHandler for the article-ingested
// topic. Every stored article drops the corpus scope. Messages that do not
// decode are skipped; a failed invalidation is returned so the message is
// not committed.
func (c *QueryCache) HandleArticleIngested(ctx context.Context, _ []byte, value []byte) error {
	event, err := kafka.DecodeJSON[ingestion.ArticleIngestedEvent](value)
	if err != nil {
		c.logger.Error("skipping undecodable article event", "error", err)
		return nil
	}
	if event.Type != ingestion.EventArticleIngested {
		return nil
	}
	if _, err := c.InvalidateScope(ctx, ScopeCorpus); err != nil {
		return err
	}
	c.logger.Debug("corpus cache dropped after ingestion", "article_id", event.ArticleID)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(scope Scope, key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s%s:%x", keyPrefix, scope, hash[:16])
}
