package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func seed(t *testing.T, s *Store, title, date, text string) int64 {
	t.Helper()
	var articleID int64
	err := s.InTx(context.Background(), func(tx store.Tx) error {
		ctx := context.Background()
		reporterID, ok, err := tx.FindReporterID(ctx, "Ada", "Lovelace")
		if err != nil {
			return err
		}
		if !ok {
			if reporterID, err = tx.CreateReporter(ctx, "Ada", "Lovelace"); err != nil {
				return err
			}
		}
		paperID, ok, err := tx.FindNewspaperID(ctx, "Gazette")
		if err != nil {
			return err
		}
		if !ok {
			if paperID, err = tx.CreateNewspaper(ctx, "Gazette"); err != nil {
				return err
			}
		}
		articleID, err = tx.CreateArticle(ctx, store.NewArticle{
			Title: title, Authors: "Ada Lovelace", PublishedOn: day(date),
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
	require.NoError(t, err)
	return articleID
}

func TestInTxCommitsAndReads(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seed(t, s, "Budget", "2024-03-02", "The budget passed.\nThe end")

	a, ok, err := s.Article(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Gazette", a.Newspaper)
	assert.Equal(t, "Ada Lovelace", a.Reporter.FullName())

	tokenID, err := s.FindTokenID(ctx, "budget")
	require.NoError(t, err)
	assert.Positive(t, tokenID)
	missing, err := s.FindTokenID(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, store.NoToken, missing)

	occ, err := s.ArticleOccurrences(ctx, id, store.Window{})
	require.NoError(t, err)
	assert.Len(t, occ, 5)

	line2, err := s.ArticleOccurrences(ctx, id, store.Window{Paragraph: 1, FromLine: 2, ToLine: 2})
	require.NoError(t, err)
	assert.Len(t, line2, 2)

	w, ok, err := s.WordAt(ctx, id, index.Slot{Paragraph: 1, Line: 1, Position: 3})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "passed", w.Token)
	assert.Equal(t, ".\n", w.Trailing)

	counts, err := s.TokenCounts(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []store.TokenCount{
		{Token: "The", Count: 2}, {Token: "budget", Count: 1}, {Token: "end", Count: 1}, {Token: "passed", Count: 1},
	}, counts)
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, "Budget", "2024-03-02", "one two")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.CreateNewspaper(ctx, "Herald"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	articles, err := s.ArticlesByNewspaper(ctx, "Herald")
	require.NoError(t, err)
	assert.Empty(t, articles)
	tokens, err := s.Tokens(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, tokens)
	n, err := s.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDuplicateArticleRejected(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, "Budget", "2024-03-02", "one")

	err := s.InTx(ctx, func(tx store.Tx) error {
		_, err := tx.CreateArticle(ctx, store.NewArticle{
			Title: "Budget", PublishedOn: day("2024-03-02"), ReporterID: 1, NewspaperID: 1,
		})
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	seed(t, s, "Budget", "2024-03-03", "two")
	all, err := s.Articles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDuplicateSlotRejected(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seed(t, s, "A", "2024-01-01", "x")

	err := s.InTx(ctx, func(tx store.Tx) error {
		return tx.UpsertTokenOccurrences(ctx, "y", id, []index.PositionRecord{{Paragraph: 1, Line: 1, Position: 1}})
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestArticleQueries(t *testing.T) {
	s := New()
	ctx := context.Background()
	late := seed(t, s, "Zoo opens", "2024-05-01", "Lions arrive")
	early := seed(t, s, "Budget", "2024-01-01", "Lions roar")

	byReporter, err := s.ArticlesByReporter(ctx, "ada", "LOVELACE")
	require.NoError(t, err)
	require.Len(t, byReporter, 2)
	assert.Equal(t, early, byReporter[0].ID)
	assert.Equal(t, late, byReporter[1].ID)

	byDate, err := s.ArticlesByDate(ctx, day("2024-05-01"))
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "Zoo opens", byDate[0].Title)

	byToken, err := s.ArticlesByToken(ctx, "Lions")
	require.NoError(t, err)
	assert.Len(t, byToken, 2)

	locs, err := s.TokenLocations(ctx, "Lions")
	require.NoError(t, err)
	assert.Equal(t, []store.Location{
		{ArticleID: late, Paragraph: 1, Line: 1, Position: 1},
		{ArticleID: early, Paragraph: 1, Line: 1, Position: 1},
	}, locs)

	id, ok, err := s.FindArticleIDByTitle(ctx, "Budget")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, early, id)

	titles, err := s.ListArticleTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Budget", "Zoo opens"}, titles)
}

func TestGroupsAndPhrases(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, "A", "2024-01-01", "red green blue")

	groupID, err := s.CreateWordGroup(ctx, "colours")
	require.NoError(t, err)
	_, err = s.CreateWordGroup(ctx, "colours")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	red, _ := s.FindTokenID(ctx, "red")
	blue, _ := s.FindTokenID(ctx, "blue")
	require.NoError(t, s.AddGroupToken(ctx, groupID, red))
	require.NoError(t, s.AddGroupToken(ctx, groupID, blue))
	assert.ErrorIs(t, s.AddGroupToken(ctx, groupID, red), apperrors.ErrDuplicate)
	assert.ErrorIs(t, s.AddGroupToken(ctx, 99, red), apperrors.ErrNotFound)

	words, err := s.GroupTokens(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, []string{"blue", "red"}, words)

	groups, err := s.WordGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "colours", groups[0].Description)

	_, err = s.CreatePhrase(ctx, "red green")
	require.NoError(t, err)
	_, err = s.CreatePhrase(ctx, "red green")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	ok, err := s.PhraseExists(ctx, "red green")
	require.NoError(t, err)
	assert.True(t, ok)
}
