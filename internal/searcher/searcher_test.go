package searcher

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/archivetest"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.QueryEvent
}

func (r *recordingTracker) Track(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.(analytics.QueryEvent))
}

func (r *recordingTracker) last() analytics.QueryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type mapBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (b *mapBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (b *mapBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func (b *mapBackend) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			delete(b.data, k)
			n++
		}
	}
	return n, nil
}

func newSearcher(t *testing.T, qc *cache.QueryCache, tracker Tracker) (*Searcher, *archivetest.Corpus) {
	t.Helper()
	corpus := archivetest.NewCorpus(t)
	return New(corpus.Store, qc, tracker, nil, Options{ContextRadius: 1, MaxResults: 10}), corpus
}

func titles(articles []store.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}

func TestArticlesAndCount(t *testing.T) {
	s, _ := newSearcher(t, nil, nil)
	ctx := context.Background()

	rows, err := s.Articles(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Row)
	assert.Equal(t, archivetest.JordanTitle, rows[0].Title)
	assert.Equal(t, archivetest.MarketTitle, rows[1].Title)
	assert.Equal(t, 3, rows[2].Row)
	assert.Equal(t, "Daily Gazette", rows[2].Newspaper)

	n, err := s.ArticleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMetadataSearches(t *testing.T) {
	s, _ := newSearcher(t, nil, nil)
	ctx := context.Background()

	got, err := s.ByReporter(ctx, "john roe")
	require.NoError(t, err)
	assert.Equal(t, []string{archivetest.MarketTitle}, titles(got))

	got, err = s.ByNewspaper(ctx, "Daily Gazette")
	require.NoError(t, err)
	assert.Equal(t, []string{archivetest.JordanTitle, archivetest.WeatherTitle}, titles(got))

	got, err = s.ByDate(ctx, time.Date(2021, 3, 3, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{archivetest.JordanTitle, archivetest.MarketTitle}, titles(got))

	got, err = s.ByNewspaper(ctx, "Nowhere Times")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestByWord(t *testing.T) {
	s, _ := newSearcher(t, nil, nil)
	ctx := context.Background()

	got, err := s.ByWord(ctx, "Jordan")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, archivetest.JordanTitle, got[0].Title)
	assert.Equal(t, "Daily Gazette", got[0].Newspaper)
	assert.Equal(t, "2021-03-03", got[0].PublishedOn.Format(time.DateOnly))

	got, err = s.ByWord(ctx, "today")
	require.NoError(t, err)
	assert.Equal(t, []string{archivetest.MarketTitle, archivetest.WeatherTitle}, titles(got))

	got, err = s.ByWord(ctx, "jordan")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestArticleLookups(t *testing.T) {
	s, corpus := newSearcher(t, nil, nil)
	ctx := context.Background()

	detail, err := s.ArticleByTitle(ctx, archivetest.JordanTitle)
	require.NoError(t, err)
	assert.Equal(t, archivetest.JordanBody, detail.Text)
	assert.Equal(t, "Jane Doe", detail.Reporter.FullName())

	_, err = s.ArticleByTitle(ctx, "Missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	detail, err = s.Article(ctx, corpus.IDs[archivetest.MarketTitle])
	require.NoError(t, err)
	assert.Equal(t, "Markets rose today.\nTraders were calm.\n\nAnalysts expect gains.", detail.Text)

	_, err = s.Article(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = s.Text(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWordAt(t *testing.T) {
	s, corpus := newSearcher(t, nil, nil)
	ctx := context.Background()
	id := corpus.IDs[archivetest.JordanTitle]

	occ, err := s.WordAt(ctx, id, index.Slot{Paragraph: 2, Line: 1, Position: 2})
	require.NoError(t, err)
	assert.Equal(t, "agree", occ.Token)
	assert.Equal(t, `,"`, occ.Trailing)

	occ, err = s.WordAt(ctx, id, index.Slot{Paragraph: 2, Line: 1, Position: 1})
	require.NoError(t, err)
	assert.Equal(t, `"`, occ.Leading)

	_, err = s.WordAt(ctx, id, index.Slot{Paragraph: 9, Line: 1, Position: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWordIndexAndWords(t *testing.T) {
	s, corpus := newSearcher(t, nil, nil)
	ctx := context.Background()
	id := corpus.IDs[archivetest.MarketTitle]

	entries, err := s.WordIndex(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 9)
	assert.Equal(t, "Analysts", entries[0].Word)
	assert.Equal(t, []index.Slot{{Paragraph: 2, Line: 1, Position: 1}}, entries[0].Locations)
	assert.Equal(t, "were", entries[8].Word)

	words, err := s.ArticleWords(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Analysts", "Markets", "Traders", "calm", "expect", "gains", "rose", "today", "were"}, words)

	all, err := s.Words(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, "Jordan")
	assert.Contains(t, all, "tomorrow")
	assert.IsIncreasing(t, all)

	_, err = s.WordIndex(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestContexts(t *testing.T) {
	s, corpus := newSearcher(t, nil, nil)
	ctx := context.Background()
	id := corpus.IDs[archivetest.JordanTitle]

	matches, err := s.Contexts(ctx, id, "Talks", -1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, index.Slot{Paragraph: 1, Line: 2, Position: 1}, matches[0].Slot)
	assert.Equal(t, "Leaders met near the Jordan river.\nTalks lasted hours.", matches[0].Text)

	matches, err = s.Contexts(ctx, id, "Talks", 0)
	require.NoError(t, err)
	assert.Equal(t, "Talks lasted hours.", matches[0].Text)

	matches, err = s.Contexts(ctx, id, "today", 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestContextsCappedByMaxResults(t *testing.T) {
	corpus := archivetest.NewCorpus(t)
	ctx := context.Background()
	resp, err := publisher.New(corpus.Store, nil, nil, publisher.Options{}).
		Ingest(ctx, "Echo\nAnn Lee\nEcho Daily\n2021-03-05\n\necho echo\necho")
	require.NoError(t, err)

	s := New(corpus.Store, nil, nil, nil, Options{MaxResults: 2})
	matches, err := s.Contexts(ctx, resp.ArticleID, "echo", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "echo echo", matches[0].Text)

	locs, err := s.WordLocations(ctx, "echo", resp.ArticleID)
	require.NoError(t, err)
	assert.Len(t, locs, 3)
}

func TestWordLocations(t *testing.T) {
	s, corpus := newSearcher(t, nil, nil)
	ctx := context.Background()

	locs, err := s.WordLocations(ctx, "today", corpus.IDs[archivetest.WeatherTitle])
	require.NoError(t, err)
	assert.Equal(t, []store.Location{{ArticleID: corpus.IDs[archivetest.WeatherTitle], Paragraph: 1, Line: 1, Position: 3}}, locs)

	locs, err = s.WordLocations(ctx, "absent", 0)
	require.NoError(t, err)
	assert.NotNil(t, locs)
	assert.Empty(t, locs)
}

func TestCachedQueriesAreTracked(t *testing.T) {
	tracker := &recordingTracker{}
	qc := cache.New(&mapBackend{data: make(map[string][]byte)}, time.Minute, nil)
	s, _ := newSearcher(t, qc, tracker)
	ctx := context.Background()

	_, err := s.ByWord(ctx, "Jordan")
	require.NoError(t, err)
	first := tracker.last()
	assert.Equal(t, KindByWord, first.Kind)
	assert.Equal(t, "Jordan", first.Term)
	assert.Equal(t, 1, first.Hits)
	assert.False(t, first.CacheHit)

	got, err := s.ByWord(ctx, "Jordan")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, tracker.last().CacheHit)

	_, err = qc.InvalidateScope(ctx, cache.ScopeCorpus)
	require.NoError(t, err)
	_, err = s.ByWord(ctx, "Jordan")
	require.NoError(t, err)
	assert.False(t, tracker.last().CacheHit)

	_, err = s.Article(ctx, 77)
	require.Error(t, err)
	assert.True(t, tracker.last().Failed)
}

func TestCorpusCacheSeesIngestionWithoutEvent(t *testing.T) {
	qc := cache.New(&mapBackend{data: make(map[string][]byte)}, time.Minute, nil)
	s, corpus := newSearcher(t, qc, nil)
	ctx := context.Background()

	got, err := s.ByWord(ctx, "Zebra")
	require.NoError(t, err)
	assert.Empty(t, got)
	words, err := s.Words(ctx)
	require.NoError(t, err)
	assert.NotContains(t, words, "Zebra")

	_, err = publisher.New(corpus.Store, nil, nil, publisher.Options{}).
		Ingest(ctx, "Zoo Notes\nAna Diaz\nCity Post\nMay 5, 2021\n\nA Zebra seen.")
	require.NoError(t, err)

	got, err = s.ByWord(ctx, "Zebra")
	require.NoError(t, err)
	assert.Equal(t, []string{"Zoo Notes"}, titles(got))
	words, err = s.Words(ctx)
	require.NoError(t, err)
	assert.Contains(t, words, "Zebra")
}

func TestCachedWordLookupIsExact(t *testing.T) {
	qc := cache.New(&mapBackend{data: make(map[string][]byte)}, time.Minute, nil)
	s, _ := newSearcher(t, qc, nil)
	ctx := context.Background()

	got, err := s.ByWord(ctx, "Jordan")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.ByWord(ctx, "Jordan ")
	require.NoError(t, err)
	assert.Empty(t, got)
}
