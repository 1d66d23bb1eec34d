package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	"github.com/lib/pq"
)

type tx struct {
	tx *sql.Tx
}

func (t *tx) FindReporterID(ctx context.Context, first, last string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT reporter_id FROM reporters
		 WHERE LOWER(first_name) = LOWER($1) AND LOWER(last_name) = LOWER($2)`,
		first, last,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up reporter: %w", err)
	}
	return id, true, nil
}

func (t *tx) CreateReporter(ctx context.Context, first, last string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO reporters (first_name, last_name) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING RETURNING reporter_id`,
		first, last,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id, _, err = t.FindReporterID(ctx, first, last)
		return id, err
	}
	if err != nil {
		return 0, translate(err, "creating reporter")
	}
	return id, nil
}

func (t *tx) FindNewspaperID(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT newspaper_id FROM newspapers WHERE name = $1`, name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up newspaper: %w", err)
	}
	return id, true, nil
}

func (t *tx) CreateNewspaper(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO newspapers (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING newspaper_id`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, translate(err, "creating newspaper")
	}
	return id, nil
}

func (t *tx) CreateArticle(ctx context.Context, a store.NewArticle) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO articles (title, authors, published_on, reporter_id, newspaper_id)
		 VALUES ($1, $2, $3::date, $4, $5) RETURNING article_id`,
		a.Title, a.Authors, a.PublishedOn.Format(time.DateOnly), a.ReporterID, a.NewspaperID,
	).Scan(&id)
	if err != nil {
		return 0, translate(err, fmt.Sprintf("article %q dated %s", a.Title, a.PublishedOn.Format(time.DateOnly)))
	}
	return id, nil
}

// UpsertTokenOccurrences finds or creates the word row, then streams the
// positions through COPY.
func (t *tx) UpsertTokenOccurrences(ctx context.Context, token string, articleID int64, positions []index.PositionRecord) error {
	var wordID int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO words (word) VALUES ($1)
		 ON CONFLICT (word) DO UPDATE SET word = EXCLUDED.word
		 RETURNING word_id`,
		token,
	).Scan(&wordID)
	if err != nil {
		return translate(err, fmt.Sprintf("storing word %q", token))
	}

	stmt, err := t.tx.PrepareContext(ctx, pq.CopyIn("word_positions",
		"article_id", "word_id", "paragraph", "line", "position", "leading_text", "trailing_text"))
	if err != nil {
		return fmt.Errorf("preparing position copy: %w", err)
	}
	defer stmt.Close()

	for _, rec := range positions {
		if _, err := stmt.ExecContext(ctx,
			articleID, wordID, rec.Paragraph, rec.Line, rec.Position, rec.Leading, rec.Trailing,
		); err != nil {
			return translate(err, fmt.Sprintf("copying positions of %q", token))
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return translate(err, fmt.Sprintf("positions of %q in article %d", token, articleID))
	}
	return nil
}
