package publisher

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/reconstruct"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store/memory"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleArticle = "Title\nAuthor A\nPaper X\nJan 1, 2020\n\nHello world.\n\nBye now."

type fakeEvents struct {
	mu     sync.Mutex
	events []kafka.Event
	err    error
}

func (f *fakeEvents) Publish(_ context.Context, events ...kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEvents) Topic() string { return "article-ingested" }

// failingStore fails the write of one token so the rollback path runs.
type failingStore struct {
	*memory.Store
	failToken string
}

func (s *failingStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.InTx(ctx, func(tx store.Tx) error {
		return fn(&failingTx{Tx: tx, failToken: s.failToken})
	})
}

type failingTx struct {
	store.Tx
	failToken string
}

func (t *failingTx) UpsertTokenOccurrences(ctx context.Context, token string, articleID int64, positions []index.PositionRecord) error {
	if token == t.failToken {
		return errors.New("disk full")
	}
	return t.Tx.UpsertTokenOccurrences(ctx, token, articleID, positions)
}

func TestIngestRoundTrip(t *testing.T) {
	st := memory.New()
	events := &fakeEvents{}
	p := New(st, events, nil, Options{})
	ctx := context.Background()

	resp, err := p.Ingest(ctx, sampleArticle)
	require.NoError(t, err)
	assert.Equal(t, "Title", resp.Title)
	assert.Equal(t, "2020-01-01", resp.PublishedOn)
	assert.Equal(t, "Author A", resp.Reporter)
	assert.Equal(t, 2, resp.Paragraphs)
	assert.Equal(t, 4, resp.Words)
	assert.Equal(t, "stored", resp.Status)

	text, err := reconstruct.New(st).Text(ctx, resp.ArticleID)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.\n\nBye now.", text)

	world, ok, err := st.WordAt(ctx, resp.ArticleID, index.Slot{Paragraph: 1, Line: 1, Position: 2})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ".\n\n", world.Trailing)

	require.Len(t, events.events, 1)
	event, ok := events.events[0].Value.(ingestion.ArticleIngestedEvent)
	require.True(t, ok)
	assert.Equal(t, ingestion.EventArticleIngested, event.Type)
	assert.Equal(t, resp.ArticleID, event.ArticleID)
	assert.Equal(t, "1", events.events[0].Key)
}

func TestIngestRejectsDuplicateTitleAndDate(t *testing.T) {
	st := memory.New()
	p := New(st, nil, nil, Options{})
	ctx := context.Background()

	_, err := p.Ingest(ctx, sampleArticle)
	require.NoError(t, err)

	_, err = p.Ingest(ctx, sampleArticle)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.Equal(t, http.StatusConflict, apperrors.HTTPStatusCode(err))

	_, err = p.Ingest(ctx, "Title\nAuthor A\nPaper X\nJan 2, 2020\n\nAnother day.")
	require.NoError(t, err)

	articles, err := st.Articles(ctx)
	require.NoError(t, err)
	assert.Len(t, articles, 2)
}

func TestIngestReusesReporterAndNewspaper(t *testing.T) {
	st := memory.New()
	p := New(st, nil, nil, Options{})
	ctx := context.Background()

	_, err := p.Ingest(ctx, "One\nJane Doe, Sam Roe\nDaily\n2020-01-01\nJordan wins.")
	require.NoError(t, err)
	_, err = p.Ingest(ctx, "Two\njane DOE\nDaily\n2020-01-02\nJordan loses.")
	require.NoError(t, err)

	articles, err := st.ArticlesByReporter(ctx, "Jane", "Doe")
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, articles[0].Reporter.ID, articles[1].Reporter.ID)

	locs, err := st.TokenLocations(ctx, "Jordan")
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.NotEqual(t, locs[0].ArticleID, locs[1].ArticleID)
}

func TestIngestRollsBackOnStoreFailure(t *testing.T) {
	st := &failingStore{Store: memory.New(), failToken: "now"}
	p := New(st, nil, nil, Options{})
	ctx := context.Background()

	_, err := p.Ingest(ctx, sampleArticle)
	require.Error(t, err)
	assert.Equal(t, "internal", apperrors.Kind(err))

	articles, err := st.Articles(ctx)
	require.NoError(t, err)
	assert.Empty(t, articles)
	id, err := st.FindTokenID(ctx, "Hello")
	require.NoError(t, err)
	assert.Equal(t, store.NoToken, id)
}

func TestIngestFormatErrorWritesNothing(t *testing.T) {
	st := memory.New()
	events := &fakeEvents{}
	p := New(st, events, nil, Options{})

	_, err := p.Ingest(context.Background(), "Title\nAuthor\nPaper\nnot a date\nbody")
	assert.ErrorIs(t, err, apperrors.ErrFormat)
	assert.Empty(t, events.events)

	tokens, err := st.Tokens(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestIngestRejectsOversizedArticle(t *testing.T) {
	p := New(memory.New(), nil, nil, Options{MaxArticleBytes: 10})
	_, err := p.Ingest(context.Background(), sampleArticle)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperrors.HTTPStatusCode(err))
}

func TestIngestSurvivesPublishFailure(t *testing.T) {
	st := memory.New()
	p := New(st, &fakeEvents{err: errors.New("broker down")}, nil, Options{})

	resp, err := p.Ingest(context.Background(), sampleArticle)
	require.NoError(t, err)
	assert.Positive(t, resp.ArticleID)
}

// stalledStore blocks every transaction until its context ends and then
// fails the way the postgres driver reports a cancelled statement.
type stalledStore struct {
	*memory.Store
}

func (s *stalledStore) InTx(ctx context.Context, _ func(tx store.Tx) error) error {
	<-ctx.Done()
	return errors.New("pq: canceling statement due to user request")
}

func TestIngestStoreTimeout(t *testing.T) {
	st := &stalledStore{Store: memory.New()}
	p := New(st, nil, nil, Options{StoreTimeout: 10 * time.Millisecond})

	_, err := p.Ingest(context.Background(), sampleArticle)
	require.Error(t, err)
	assert.Equal(t, "timeout", apperrors.Kind(err))
	assert.Equal(t, http.StatusGatewayTimeout, apperrors.HTTPStatusCode(err))
	assert.Equal(t, "storing article took longer than 10ms", apperrors.Message(err))

	articles, err := st.Articles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, articles)
}
