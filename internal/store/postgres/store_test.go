package postgres

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	pgclient "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(&pq.Error{Code: "23505"}, "x"), apperrors.ErrDuplicate)
	assert.ErrorIs(t, translate(&pq.Error{Code: "23514", Constraint: "phrases_phrase_check"}, "x"), apperrors.ErrValidation)
	assert.ErrorIs(t, translate(&pq.Error{Code: "23503"}, "x"), apperrors.ErrNotFound)

	plain := errors.New("connection reset")
	err := translate(plain, "loading")
	assert.ErrorIs(t, err, plain)
	assert.Contains(t, err.Error(), "loading")
}

// openStore skips the test when PostgreSQL is unavailable.
func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := pgclient.New(config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "newsarchive_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "newsarchive"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func ingest(t *testing.T, s *Store, title, text string, published time.Time) (int64, error) {
	t.Helper()
	ctx := context.Background()
	var articleID int64
	err := s.InTx(ctx, func(tx store.Tx) error {
		reporterID, err := tx.CreateReporter(ctx, "Test", "Reporter")
		if err != nil {
			return err
		}
		paperID, err := tx.CreateNewspaper(ctx, "Integration Times")
		if err != nil {
			return err
		}
		articleID, err = tx.CreateArticle(ctx, store.NewArticle{
			Title: title, Authors: "Test Reporter", PublishedOn: published,
			ReporterID: reporterID, NewspaperID: paperID,
		})
		if err != nil {
			return err
		}
		idx := index.Build(tokenizer.Tokenize(text))
		for _, token := range idx.Tokens() {
			if err := tx.UpsertTokenOccurrences(ctx, token, articleID, idx.Positions(token)); err != nil {
				return err
			}
		}
		return nil
	})
	return articleID, err
}

func TestStoreRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	title := "Integration " + uuid.NewString()
	published := time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC)

	id, err := ingest(t, s, title, "Harbour reopened today.\nShips queued\n\nCrowds cheered", published)
	require.NoError(t, err)

	a, ok, err := s.Article(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, title, a.Title)
	assert.Equal(t, "Integration Times", a.Newspaper)
	assert.True(t, a.PublishedOn.Equal(published))

	occ, err := s.ArticleOccurrences(ctx, id, store.Window{})
	require.NoError(t, err)
	assert.Len(t, occ, 7)

	w, ok, err := s.WordAt(ctx, id, index.Slot{Paragraph: 1, Line: 1, Position: 3})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "today", w.Token)

	counts, err := s.TokenCounts(ctx, id)
	require.NoError(t, err)
	assert.Len(t, counts, 7)

	_, err = ingest(t, s, title, "again", published)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	found, ok, err := s.FindArticleIDByTitle(ctx, title)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, found)
}

func TestGroupsAndPhrasesRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	suffix := uuid.NewString()
	_, err := ingest(t, s, "Groups "+suffix, "alpha beta", time.Now().UTC())
	require.NoError(t, err)

	groupID, err := s.CreateWordGroup(ctx, "group "+suffix)
	require.NoError(t, err)
	alpha, err := s.FindTokenID(ctx, "alpha")
	require.NoError(t, err)
	require.NoError(t, s.AddGroupToken(ctx, groupID, alpha))
	assert.ErrorIs(t, s.AddGroupToken(ctx, groupID, alpha), apperrors.ErrDuplicate)

	words, err := s.GroupTokens(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, words)

	_, err = s.CreatePhrase(ctx, "phrase "+suffix[:8])
	require.NoError(t, err)
	ok, err := s.PhraseExists(ctx, "phrase "+suffix[:8])
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.CreatePhrase(ctx, "café "+suffix[:8])
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
