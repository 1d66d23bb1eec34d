package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
)

const selectArticles = `
SELECT a.article_id, a.title, a.authors, a.published_on, n.name,
       r.reporter_id, r.first_name, r.last_name
FROM articles a
JOIN newspapers n ON n.newspaper_id = a.newspaper_id
JOIN reporters r ON r.reporter_id = a.reporter_id`

const orderArticles = ` ORDER BY a.published_on, a.title COLLATE "C", a.article_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (store.Article, error) {
	var a store.Article
	err := row.Scan(&a.ID, &a.Title, &a.Authors, &a.PublishedOn, &a.Newspaper,
		&a.Reporter.ID, &a.Reporter.FirstName, &a.Reporter.LastName)
	return a, err
}

func (s *Store) queryArticles(ctx context.Context, where string, args ...any) ([]store.Article, error) {
	rows, err := s.db.DB.QueryContext(ctx, selectArticles+where+orderArticles, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var out []store.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) FindArticleIDByTitle(ctx context.Context, title string) (int64, bool, error) {
	var id int64
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT article_id FROM articles WHERE title = $1 ORDER BY article_id LIMIT 1`, title,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up article by title: %w", err)
	}
	return id, true, nil
}

func (s *Store) ListArticleTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT title FROM articles ORDER BY published_on, title COLLATE "C", article_id`)
	if err != nil {
		return nil, fmt.Errorf("listing titles: %w", err)
	}
	return scanStrings(rows)
}

func (s *Store) Article(ctx context.Context, id int64) (store.Article, bool, error) {
	a, err := scanArticle(s.db.DB.QueryRowContext(ctx, selectArticles+` WHERE a.article_id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Article{}, false, nil
	}
	if err != nil {
		return store.Article{}, false, fmt.Errorf("loading article %d: %w", id, err)
	}
	return a, true, nil
}

func (s *Store) Articles(ctx context.Context) ([]store.Article, error) {
	return s.queryArticles(ctx, "")
}

func (s *Store) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}

func (s *Store) ArticlesByReporter(ctx context.Context, first, last string) ([]store.Article, error) {
	return s.queryArticles(ctx,
		` WHERE LOWER(r.first_name) = LOWER($1) AND LOWER(r.last_name) = LOWER($2)`, first, last)
}

func (s *Store) ArticlesByNewspaper(ctx context.Context, name string) ([]store.Article, error) {
	return s.queryArticles(ctx, ` WHERE n.name = $1`, name)
}

func (s *Store) ArticlesByDate(ctx context.Context, day time.Time) ([]store.Article, error) {
	return s.queryArticles(ctx, ` WHERE a.published_on = $1::date`, day.Format(time.DateOnly))
}

func (s *Store) ArticlesByToken(ctx context.Context, token string) ([]store.Article, error) {
	return s.queryArticles(ctx, ` WHERE a.article_id IN (
		SELECT wp.article_id FROM word_positions wp
		JOIN words w ON w.word_id = wp.word_id
		WHERE w.word = $1)`, token)
}

func (s *Store) FindTokenID(ctx context.Context, token string) (int64, error) {
	var id int64
	err := s.db.DB.QueryRowContext(ctx, `SELECT word_id FROM words WHERE word = $1`, token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.NoToken, nil
	}
	if err != nil {
		return store.NoToken, fmt.Errorf("looking up word %q: %w", token, err)
	}
	return id, nil
}

const selectOccurrences = `
SELECT w.word, wp.paragraph, wp.line, wp.position, wp.leading_text, wp.trailing_text
FROM word_positions wp
JOIN words w ON w.word_id = wp.word_id
WHERE wp.article_id = $1`

func (s *Store) ArticleOccurrences(ctx context.Context, articleID int64, win store.Window) ([]store.Occurrence, error) {
	query, args := selectOccurrences, []any{articleID}
	if !win.Whole() {
		query += ` AND wp.paragraph = $2 AND wp.line BETWEEN $3 AND $4`
		args = append(args, win.Paragraph, win.FromLine, win.ToLine)
	}
	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading occurrences of article %d: %w", articleID, err)
	}
	defer rows.Close()

	var out []store.Occurrence
	for rows.Next() {
		var o store.Occurrence
		if err := rows.Scan(&o.Token, &o.Paragraph, &o.Line, &o.Position, &o.Leading, &o.Trailing); err != nil {
			return nil, fmt.Errorf("scanning occurrence: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) TokenLocations(ctx context.Context, token string) ([]store.Location, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT wp.article_id, wp.paragraph, wp.line, wp.position
		 FROM word_positions wp
		 JOIN words w ON w.word_id = wp.word_id
		 WHERE w.word = $1
		 ORDER BY wp.article_id, wp.paragraph, wp.line, wp.position`, token)
	if err != nil {
		return nil, fmt.Errorf("locating %q: %w", token, err)
	}
	defer rows.Close()

	var out []store.Location
	for rows.Next() {
		var l store.Location
		if err := rows.Scan(&l.ArticleID, &l.Paragraph, &l.Line, &l.Position); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) WordAt(ctx context.Context, articleID int64, slot index.Slot) (store.Occurrence, bool, error) {
	var o store.Occurrence
	err := s.db.DB.QueryRowContext(ctx,
		selectOccurrences+` AND wp.paragraph = $2 AND wp.line = $3 AND wp.position = $4`,
		articleID, slot.Paragraph, slot.Line, slot.Position,
	).Scan(&o.Token, &o.Paragraph, &o.Line, &o.Position, &o.Leading, &o.Trailing)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Occurrence{}, false, nil
	}
	if err != nil {
		return store.Occurrence{}, false, fmt.Errorf("loading word at %+v: %w", slot, err)
	}
	return o, true, nil
}

func (s *Store) Tokens(ctx context.Context, articleID int64) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if articleID == 0 {
		rows, err = s.db.DB.QueryContext(ctx, `SELECT word FROM words ORDER BY word COLLATE "C"`)
	} else {
		rows, err = s.db.DB.QueryContext(ctx,
			`SELECT DISTINCT w.word COLLATE "C" AS word
			 FROM word_positions wp JOIN words w ON w.word_id = wp.word_id
			 WHERE wp.article_id = $1 ORDER BY 1`, articleID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing words: %w", err)
	}
	return scanStrings(rows)
}

func (s *Store) TokenCounts(ctx context.Context, articleID int64) ([]store.TokenCount, error) {
	query := `SELECT w.word, COUNT(*) FROM word_positions wp
		JOIN words w ON w.word_id = wp.word_id`
	var args []any
	if articleID != 0 {
		query += ` WHERE wp.article_id = $1`
		args = append(args, articleID)
	}
	query += ` GROUP BY w.word ORDER BY w.word COLLATE "C"`

	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting words: %w", err)
	}
	defer rows.Close()

	var out []store.TokenCount
	for rows.Next() {
		var tc store.TokenCount
		if err := rows.Scan(&tc.Token, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning word count: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
