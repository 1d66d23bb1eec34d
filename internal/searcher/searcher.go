// Package searcher answers read queries against the archive: article
// listings and lookups, word positions, word indexes and the lines around
// a word. Results derived from a single article are cached per article;
// corpus-wide results are cached per article count.
package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/reconstruct"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/metrics"
)

// Query kinds reported to metrics and analytics.
const (
	KindArticles    = "articles"
	KindByReporter  = "by_reporter"
	KindByNewspaper = "by_newspaper"
	KindByDate      = "by_date"
	KindByWord      = "by_word"
	KindByTitle     = "by_title"
	KindArticle     = "article"
	KindWordAt      = "word_at"
	KindWordIndex   = "word_index"
	KindWords       = "words"
	KindContexts    = "contexts"
	KindLocations   = "locations"
)

// Reader is the read side of the store the searcher needs.
type Reader interface {
	store.ArticleStore
	store.TokenStore
}

// Tracker is satisfied by *analytics.Collector.
type Tracker interface {
	Track(event any)
}

type Options struct {
	// ContextRadius is the number of lines shown either side of a word when
	// the caller does not ask for a radius.
	ContextRadius int
	// MaxResults caps the number of contexts returned for one word.
	MaxResults int
}

// Listing is one row of the article list.
type Listing struct {
	Row int `json:"row"`
	store.Article
}

// ArticleDetail is an article with its reconstructed text.
type ArticleDetail struct {
	store.Article
	Text string `json:"text"`
}

// WordEntry is one distinct word of an article and where it occurs.
type WordEntry struct {
	Word      string       `json:"word"`
	Locations []index.Slot `json:"locations"`
}

// ContextMatch is one occurrence of a word with the lines around it.
type ContextMatch struct {
	index.Slot
	Text string `json:"text"`
}

type Searcher struct {
	reader     Reader
	text       *reconstruct.Reconstructor
	cache      *cache.QueryCache
	tracker    Tracker
	metrics    *metrics.Metrics
	radius     int
	maxResults int
	logger     *slog.Logger
}

// New creates a Searcher. queryCache, tracker and m may be nil.
func New(reader Reader, queryCache *cache.QueryCache, tracker Tracker, m *metrics.Metrics, opts Options) *Searcher {
	if opts.ContextRadius < 0 {
		opts.ContextRadius = 0
	}
	return &Searcher{
		reader:     reader,
		text:       reconstruct.New(reader),
		cache:      queryCache,
		tracker:    tracker,
		metrics:    m,
		radius:     opts.ContextRadius,
		maxResults: opts.MaxResults,
		logger:     slog.Default().With("component", "searcher"),
	}
}

// Radius is the default context radius.
func (s *Searcher) Radius() int {
	return s.radius
}

// Articles lists every article, numbered from 1 in date then title order.
func (s *Searcher) Articles(ctx context.Context) ([]Listing, error) {
	start := time.Now()
	articles, err := s.reader.Articles(ctx)
	s.observe(ctx, KindArticles, "", start, len(articles), false, err)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	rows := make([]Listing, len(articles))
	for i, a := range articles {
		rows[i] = Listing{Row: i + 1, Article: a}
	}
	return rows, nil
}

func (s *Searcher) ArticleCount(ctx context.Context) (int, error) {
	n, err := s.reader.CountArticles(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}

// corpusCached caches a corpus-wide result under the current article count.
// Any committed ingestion moves the count, so entries written before it are
// never read again, whether or not an invalidation event arrived. When the
// count cannot be read the result is computed uncached.
func corpusCached[T any](ctx context.Context, s *Searcher, key string, compute func(ctx context.Context) (T, error)) (T, bool, error) {
	if s.cache == nil {
		v, err := compute(ctx)
		return v, false, err
	}
	n, err := s.reader.CountArticles(ctx)
	if err != nil {
		s.logger.Warn("corpus version unavailable, bypassing cache", "error", err)
		v, err := compute(ctx)
		return v, false, err
	}
	return cache.GetOrCompute(ctx, s.cache, cache.ScopeCorpus, fmt.Sprintf("v%d:%s", n, key), compute)
}

// ByReporter matches the reporter's full name the same way ingestion
// splits it, ignoring case.
func (s *Searcher) ByReporter(ctx context.Context, fullName string) ([]store.Article, error) {
	start := time.Now()
	name := validator.ParseName(fullName)
	articles, err := s.reader.ArticlesByReporter(ctx, name.First, name.Last)
	s.observe(ctx, KindByReporter, fullName, start, len(articles), false, err)
	if err != nil {
		return nil, fmt.Errorf("searching by reporter: %w", err)
	}
	return nonNil(articles), nil
}

func (s *Searcher) ByNewspaper(ctx context.Context, name string) ([]store.Article, error) {
	start := time.Now()
	articles, err := s.reader.ArticlesByNewspaper(ctx, name)
	s.observe(ctx, KindByNewspaper, name, start, len(articles), false, err)
	if err != nil {
		return nil, fmt.Errorf("searching by newspaper: %w", err)
	}
	return nonNil(articles), nil
}

// ByDate returns the articles published on the calendar day of day.
func (s *Searcher) ByDate(ctx context.Context, day time.Time) ([]store.Article, error) {
	start := time.Now()
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	articles, err := s.reader.ArticlesByDate(ctx, day)
	s.observe(ctx, KindByDate, day.Format(time.DateOnly), start, len(articles), false, err)
	if err != nil {
		return nil, fmt.Errorf("searching by date: %w", err)
	}
	return nonNil(articles), nil
}

// ByWord returns the articles containing word as a core token. The match
// is exact and case-sensitive.
func (s *Searcher) ByWord(ctx context.Context, word string) ([]store.Article, error) {
	start := time.Now()
	articles, hit, err := corpusCached(ctx, s, "by_word:"+word,
		func(ctx context.Context) ([]store.Article, error) {
			articles, err := s.reader.ArticlesByToken(ctx, word)
			return nonNil(articles), err
		})
	s.observe(ctx, KindByWord, word, start, len(articles), hit, err)
	if err != nil {
		return nil, fmt.Errorf("searching by word: %w", err)
	}
	return articles, nil
}

// ArticleByTitle returns the article with exactly this title, with its text.
func (s *Searcher) ArticleByTitle(ctx context.Context, title string) (*ArticleDetail, error) {
	start := time.Now()
	id, ok, err := s.reader.FindArticleIDByTitle(ctx, title)
	if err == nil && !ok {
		err = apperrors.NotFound("no article titled %q", title)
	}
	if err != nil {
		s.observe(ctx, KindByTitle, title, start, 0, false, err)
		return nil, err
	}
	detail, err := s.article(ctx, id)
	s.observe(ctx, KindByTitle, title, start, 1, false, err)
	return detail, err
}

// Article returns one article with its text.
func (s *Searcher) Article(ctx context.Context, id int64) (*ArticleDetail, error) {
	start := time.Now()
	detail, err := s.article(ctx, id)
	hits := 0
	if err == nil {
		hits = 1
	}
	s.observe(ctx, KindArticle, "", start, hits, false, err)
	return detail, err
}

func (s *Searcher) article(ctx context.Context, id int64) (*ArticleDetail, error) {
	a, err := s.requireArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	text, err := s.Text(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ArticleDetail{Article: a, Text: text}, nil
}

// Text returns the reconstructed text of an article.
func (s *Searcher) Text(ctx context.Context, id int64) (string, error) {
	text, _, err := cache.GetOrCompute(ctx, s.cache, cache.ScopeArticle, fmt.Sprintf("text:%d", id),
		func(ctx context.Context) (string, error) {
			if _, err := s.requireArticle(ctx, id); err != nil {
				return "", err
			}
			return s.text.Text(ctx, id)
		})
	return text, err
}

// WordAt returns the word stored at one grid slot of an article.
func (s *Searcher) WordAt(ctx context.Context, id int64, slot index.Slot) (store.Occurrence, error) {
	start := time.Now()
	occ, ok, err := s.reader.WordAt(ctx, id, slot)
	if err == nil && !ok {
		err = apperrors.NotFound("no word at paragraph %d, line %d, position %d of article %d",
			slot.Paragraph, slot.Line, slot.Position, id)
	}
	hits := 0
	if err == nil {
		hits = 1
	}
	s.observe(ctx, KindWordAt, "", start, hits, false, err)
	if err != nil {
		return store.Occurrence{}, err
	}
	return occ, nil
}

// WordIndex lists every distinct word of an article with its slots, words
// in byte order and slots in reading order.
func (s *Searcher) WordIndex(ctx context.Context, id int64) ([]WordEntry, error) {
	start := time.Now()
	entries, hit, err := cache.GetOrCompute(ctx, s.cache, cache.ScopeArticle, fmt.Sprintf("word_index:%d", id),
		func(ctx context.Context) ([]WordEntry, error) {
			if _, err := s.requireArticle(ctx, id); err != nil {
				return nil, err
			}
			occ, err := s.reader.ArticleOccurrences(ctx, id, store.Window{})
			if err != nil {
				return nil, err
			}
			return buildWordIndex(occ), nil
		})
	s.observe(ctx, KindWordIndex, "", start, len(entries), hit, err)
	if err != nil {
		return nil, fmt.Errorf("building word index: %w", err)
	}
	return entries, nil
}

func buildWordIndex(occ []store.Occurrence) []WordEntry {
	sorted := make([]store.Occurrence, len(occ))
	copy(sorted, occ)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PositionRecord.Less(sorted[j].PositionRecord)
	})
	byWord := make(map[string][]index.Slot)
	for _, o := range sorted {
		byWord[o.Token] = append(byWord[o.Token], o.Slot())
	}
	entries := make([]WordEntry, 0, len(byWord))
	for word, slots := range byWord {
		entries = append(entries, WordEntry{Word: word, Locations: slots})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Word < entries[j].Word })
	return entries
}

// Words lists the distinct words of the corpus.
func (s *Searcher) Words(ctx context.Context) ([]string, error) {
	start := time.Now()
	words, hit, err := corpusCached(ctx, s, "words",
		func(ctx context.Context) ([]string, error) {
			words, err := s.reader.Tokens(ctx, 0)
			return nonNil(words), err
		})
	s.observe(ctx, KindWords, "", start, len(words), hit, err)
	if err != nil {
		return nil, fmt.Errorf("listing words: %w", err)
	}
	return words, nil
}

// ArticleWords lists the distinct words of one article.
func (s *Searcher) ArticleWords(ctx context.Context, id int64) ([]string, error) {
	start := time.Now()
	words, hit, err := cache.GetOrCompute(ctx, s.cache, cache.ScopeArticle, fmt.Sprintf("words:%d", id),
		func(ctx context.Context) ([]string, error) {
			if _, err := s.requireArticle(ctx, id); err != nil {
				return nil, err
			}
			words, err := s.reader.Tokens(ctx, id)
			return nonNil(words), err
		})
	s.observe(ctx, KindWords, "", start, len(words), hit, err)
	if err != nil {
		return nil, fmt.Errorf("listing article words: %w", err)
	}
	return words, nil
}

// Contexts returns, for each occurrence of word in the article, the lines
// within radius of it. A negative radius selects the default.
func (s *Searcher) Contexts(ctx context.Context, id int64, word string, radius int) ([]ContextMatch, error) {
	start := time.Now()
	if radius < 0 {
		radius = s.radius
	}
	matches, err := s.contexts(ctx, id, word, radius)
	s.observe(ctx, KindContexts, word, start, len(matches), false, err)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *Searcher) contexts(ctx context.Context, id int64, word string, radius int) ([]ContextMatch, error) {
	if _, err := s.requireArticle(ctx, id); err != nil {
		return nil, err
	}
	locations, err := s.reader.TokenLocations(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("locating %q: %w", word, err)
	}
	matches := make([]ContextMatch, 0)
	for _, loc := range locations {
		if loc.ArticleID != id {
			continue
		}
		if s.maxResults > 0 && len(matches) >= s.maxResults {
			s.logger.Debug("context results truncated", "article_id", id, "word", word, "max", s.maxResults)
			break
		}
		text, err := s.text.Context(ctx, id, loc.Paragraph, loc.Line, radius)
		if err != nil {
			return nil, err
		}
		matches = append(matches, ContextMatch{
			Slot: index.Slot{Paragraph: loc.Paragraph, Line: loc.Line, Position: loc.Position},
			Text: text,
		})
	}
	return matches, nil
}

// WordLocations returns every location of word, restricted to one article
// when articleID is not zero.
func (s *Searcher) WordLocations(ctx context.Context, word string, articleID int64) ([]store.Location, error) {
	start := time.Now()
	locations, err := s.reader.TokenLocations(ctx, word)
	if err == nil && articleID != 0 {
		filtered := locations[:0:0]
		for _, loc := range locations {
			if loc.ArticleID == articleID {
				filtered = append(filtered, loc)
			}
		}
		locations = filtered
	}
	s.observe(ctx, KindLocations, word, start, len(locations), false, err)
	if err != nil {
		return nil, fmt.Errorf("locating %q: %w", word, err)
	}
	return nonNil(locations), nil
}

func (s *Searcher) requireArticle(ctx context.Context, id int64) (store.Article, error) {
	a, ok, err := s.reader.Article(ctx, id)
	if err != nil {
		return store.Article{}, fmt.Errorf("loading article %d: %w", id, err)
	}
	if !ok {
		return store.Article{}, apperrors.NotFound("article %d does not exist", id)
	}
	return a, nil
}

func (s *Searcher) observe(ctx context.Context, kind, term string, start time.Time, hits int, cacheHit bool, err error) {
	elapsed := time.Since(start)
	s.metrics.ObserveQuery(kind, elapsed.Seconds(), hits, err)
	logger.FromContext(ctx).Debug("query served",
		"kind", kind,
		"term", term,
		"hits", hits,
		"cache_hit", cacheHit,
		"latency_ms", elapsed.Milliseconds(),
	)
	if s.tracker == nil {
		return
	}
	s.tracker.Track(analytics.QueryEvent{
		Type:      analytics.EventQuery,
		Kind:      kind,
		Term:      term,
		Hits:      hits,
		LatencyMs: elapsed.Milliseconds(),
		CacheHit:  cacheHit,
		Failed:    err != nil,
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
