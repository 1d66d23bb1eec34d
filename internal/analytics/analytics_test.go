package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDecode(t *testing.T) {
	q, err := Decode(mustJSON(t, QueryEvent{Type: EventQuery, Kind: "by_word", Term: "Jordan", Hits: 1}))
	require.NoError(t, err)
	assert.Equal(t, "Jordan", q.(QueryEvent).Term)

	a, err := Decode([]byte(`{"type":"article_ingested","article_id":4,"words":12,"extra":"ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(4), a.(ArticleEvent).ArticleID)

	_, err = Decode([]byte(`{"type":"mystery"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	ctx := context.Background()

	events := []any{
		QueryEvent{Type: EventQuery, Kind: "by_word", Term: "Jordan", Hits: 1, LatencyMs: 10},
		QueryEvent{Type: EventQuery, Kind: "by_word", Term: "Jordan", Hits: 1, LatencyMs: 20, CacheHit: true},
		QueryEvent{Type: EventQuery, Kind: "by_word", Term: "zebra", Hits: 0, LatencyMs: 30},
		QueryEvent{Type: EventQuery, Kind: "by_date", Failed: true},
		ArticleEvent{Type: EventArticleIngested, ArticleID: 1, Newspaper: "Gazette", Words: 100, Tokens: 60},
	}
	for _, e := range events {
		require.NoError(t, agg.HandleMessage(ctx, nil, mustJSON(t, e)))
	}
	require.NoError(t, agg.HandleMessage(ctx, nil, []byte("garbage")))

	s := agg.Stats()
	assert.Equal(t, int64(4), s.TotalQueries)
	assert.Equal(t, int64(3), s.QueriesByKind["by_word"])
	assert.Equal(t, int64(1), s.FailedQueries)
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, int64(2), s.CacheMisses)
	assert.Equal(t, int64(1), s.EmptyResultCount)
	assert.InDelta(t, 20.0, s.AvgLatencyMs, 0.001)
	assert.Equal(t, int64(20), s.P50LatencyMs)
	assert.Equal(t, []TermCount{{Term: "Jordan", Count: 2}, {Term: "zebra", Count: 1}}, s.TopTerms)
	assert.Equal(t, []TermCount{{Term: "zebra", Count: 1}}, s.EmptyResultTerms)
	assert.Equal(t, int64(1), s.ArticlesIngested)
	assert.Equal(t, int64(100), s.WordsIngested)
	assert.Equal(t, []TermCount{{Term: "Gazette", Count: 1}}, s.NewspaperCounts)
}

func TestAggregatorRestore(t *testing.T) {
	agg := NewAggregator()
	agg.Restore(AggregatedStats{
		TotalQueries:     5,
		QueriesByKind:    map[string]int64{"by_word": 5},
		TopTerms:         []TermCount{{Term: "a", Count: 5}},
		ArticlesIngested: 2,
	})
	agg.Record(QueryEvent{Type: EventQuery, Kind: "by_word", Term: "a", Hits: 1})

	s := agg.Stats()
	assert.Equal(t, int64(6), s.TotalQueries)
	assert.Equal(t, int64(6), s.QueriesByKind["by_word"])
	assert.Equal(t, []TermCount{{Term: "a", Count: 6}}, s.TopTerms)
	assert.Equal(t, int64(2), s.ArticlesIngested)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestCollectorFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 16, 2, time.Hour)
	c.Start(context.Background())

	for i := 0; i < 3; i++ {
		c.Track(QueryEvent{Type: EventQuery, Kind: "by_word"})
	}
	c.Close()
	assert.Equal(t, 3, pub.count())
	assert.Equal(t, "query", pub.events[0].Type)

	c.Track(QueryEvent{Type: EventQuery})
	assert.Equal(t, 3, pub.count())
}

func TestCollectorFlushesOnCancel(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 16, 100, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	c.Track(QueryEvent{Type: EventQuery})
	c.Start(ctx)
	cancel()
	c.Close()
	assert.Equal(t, 1, pub.count())
}

func TestCollectorDropsWhenFull(t *testing.T) {
	c := NewCollector(&recordingPublisher{err: errors.New("down")}, 1, 10, time.Hour)
	c.Track(QueryEvent{})
	c.Track(QueryEvent{})
	assert.Equal(t, int64(1), c.Dropped())
	c.Close()
}

type fakeSnapshots struct {
	snaps []AggregatedStats
}

func (f fakeSnapshots) ListSnapshots(_ context.Context, limit int) ([]AggregatedStats, error) {
	if limit < len(f.snaps) {
		return f.snaps[:limit], nil
	}
	return f.snaps, nil
}

func TestHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Record(QueryEvent{Type: EventQuery, Kind: "by_word", Term: "x", Hits: 1})
	h := NewHandler(agg, fakeSnapshots{snaps: []AggregatedStats{{TotalQueries: 1}, {TotalQueries: 0}}})
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.TotalQueries)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snaps []AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snaps))
	assert.Len(t, snaps, 1)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
