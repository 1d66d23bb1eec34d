package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalQueries     int64            `json:"total_queries"`
	QueriesByKind    map[string]int64 `json:"queries_by_kind"`
	FailedQueries    int64            `json:"failed_queries"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	EmptyResultCount int64            `json:"empty_result_count"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
	P50LatencyMs     int64            `json:"p50_latency_ms"`
	P95LatencyMs     int64            `json:"p95_latency_ms"`
	P99LatencyMs     int64            `json:"p99_latency_ms"`
	TopTerms         []TermCount      `json:"top_terms"`
	EmptyResultTerms []TermCount      `json:"empty_result_terms"`
	QueriesPerMinute float64          `json:"queries_per_minute"`
	ArticlesIngested int64            `json:"articles_ingested"`
	WordsIngested    int64            `json:"words_ingested"`
	TokensIngested   int64            `json:"tokens_ingested"`
	NewspaperCounts  []TermCount      `json:"newspaper_counts"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Aggregator folds query and article events into running totals.
type Aggregator struct {
	mu               sync.RWMutex
	totalQueries     int64
	failedQueries    int64
	cacheHits        int64
	cacheMisses      int64
	emptyResults     int64
	articles         int64
	words            int64
	tokens           int64
	latencies        []int64
	kindCounts       map[string]int64
	termCounts       map[string]int64
	emptyResultTerms map[string]int64
	newspaperCounts  map[string]int64
	startTime        time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:        make([]int64, 0, 1024),
		kindCounts:       make(map[string]int64),
		termCounts:       make(map[string]int64),
		emptyResultTerms: make(map[string]int64),
		newspaperCounts:  make(map[string]int64),
		startTime:        time.Now(),
		logger:           slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleMessage is a kafka.MessageHandler. Undecodable messages are logged
// and skipped so that one bad event cannot stall the partition.
func (a *Aggregator) HandleMessage(_ context.Context, _ []byte, value []byte) error {
	event, err := Decode(value)
	if err != nil {
		a.logger.Error("failed to decode analytics event", "error", err)
		return nil
	}
	a.Record(event)
	return nil
}

// Record folds one decoded event into the totals.
func (a *Aggregator) Record(event any) {
	switch e := event.(type) {
	case QueryEvent:
		a.recordQuery(e)
	case ArticleEvent:
		a.recordArticle(e)
	default:
		a.logger.Warn("ignoring unknown analytics event", "type", fmt.Sprintf("%T", event))
	}
}

func (a *Aggregator) recordQuery(e QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalQueries++
	a.kindCounts[e.Kind]++
	if e.Failed {
		a.failedQueries++
		return
	}
	if e.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if len(a.latencies) == maxLatencySamples {
		copy(a.latencies, a.latencies[1:])
		a.latencies = a.latencies[:maxLatencySamples-1]
	}
	a.latencies = append(a.latencies, e.LatencyMs)
	if e.Term != "" {
		a.termCounts[e.Term]++
	}
	if e.Hits == 0 {
		a.emptyResults++
		if e.Term != "" {
			a.emptyResultTerms[e.Term]++
		}
	}
}

func (a *Aggregator) recordArticle(e ArticleEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.articles++
	a.words += int64(e.Words)
	a.tokens += int64(e.Tokens)
	if e.Newspaper != "" {
		a.newspaperCounts[e.Newspaper]++
	}
}

// Restore seeds the totals from a snapshot taken by an earlier run.
// Latency samples are not part of a snapshot and start empty.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalQueries = s.TotalQueries
	a.failedQueries = s.FailedQueries
	a.cacheHits = s.CacheHits
	a.cacheMisses = s.CacheMisses
	a.emptyResults = s.EmptyResultCount
	a.articles = s.ArticlesIngested
	a.words = s.WordsIngested
	a.tokens = s.TokensIngested
	for kind, n := range s.QueriesByKind {
		a.kindCounts[kind] = n
	}
	for _, tc := range s.TopTerms {
		a.termCounts[tc.Term] = tc.Count
	}
	for _, tc := range s.EmptyResultTerms {
		a.emptyResultTerms[tc.Term] = tc.Count
	}
	for _, tc := range s.NewspaperCounts {
		a.newspaperCounts[tc.Term] = tc.Count
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:     a.totalQueries,
		QueriesByKind:    make(map[string]int64, len(a.kindCounts)),
		FailedQueries:    a.failedQueries,
		CacheHits:        a.cacheHits,
		CacheMisses:      a.cacheMisses,
		EmptyResultCount: a.emptyResults,
		ArticlesIngested: a.articles,
		WordsIngested:    a.words,
		TokensIngested:   a.tokens,
	}
	for kind, n := range a.kindCounts {
		stats.QueriesByKind[kind] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopTerms = topN(a.termCounts, 10)
	stats.EmptyResultTerms = topN(a.emptyResultTerms, 10)
	stats.NewspaperCounts = topN(a.newspaperCounts, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n largest counts; ties are broken by term.
func topN(counts map[string]int64, n int) []TermCount {
	result := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		result = append(result, TermCount{Term: term, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Term < result[j].Term
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
