// Package postgres implements store.Store on PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS reporters (
    reporter_id BIGSERIAL PRIMARY KEY,
    first_name  TEXT NOT NULL,
    last_name   TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS reporters_name_key
    ON reporters (LOWER(first_name), LOWER(last_name));

CREATE TABLE IF NOT EXISTS newspapers (
    newspaper_id BIGSERIAL PRIMARY KEY,
    name         TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS articles (
    article_id   BIGSERIAL PRIMARY KEY,
    title        TEXT NOT NULL,
    authors      TEXT NOT NULL,
    published_on DATE NOT NULL,
    reporter_id  BIGINT NOT NULL REFERENCES reporters (reporter_id),
    newspaper_id BIGINT NOT NULL REFERENCES newspapers (newspaper_id),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT articles_title_published_on_key UNIQUE (title, published_on)
);

CREATE TABLE IF NOT EXISTS words (
    word_id BIGSERIAL PRIMARY KEY,
    word    TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS word_positions (
    article_id    BIGINT NOT NULL REFERENCES articles (article_id) ON DELETE CASCADE,
    word_id       BIGINT NOT NULL REFERENCES words (word_id),
    paragraph     INT NOT NULL CHECK (paragraph >= 1),
    line          INT NOT NULL CHECK (line >= 1),
    position      INT NOT NULL CHECK (position >= 1),
    leading_text  TEXT NOT NULL DEFAULT '',
    trailing_text TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (article_id, paragraph, line, position)
);
CREATE INDEX IF NOT EXISTS word_positions_word_idx ON word_positions (word_id);

CREATE TABLE IF NOT EXISTS word_groups (
    group_id    BIGSERIAL PRIMARY KEY,
    description TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS word_group_members (
    group_id BIGINT NOT NULL REFERENCES word_groups (group_id) ON DELETE CASCADE,
    word_id  BIGINT NOT NULL REFERENCES words (word_id),
    PRIMARY KEY (group_id, word_id)
);

CREATE TABLE IF NOT EXISTS phrases (
    phrase_id BIGSERIAL PRIMARY KEY,
    phrase    TEXT NOT NULL UNIQUE,
    CONSTRAINT phrases_phrase_check
        CHECK (char_length(phrase) BETWEEN 1 AND 100 AND phrase ~ '^[ -~]+$')
);

CREATE TABLE IF NOT EXISTS analytics_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	s.logger.Info("schema applied")
	return nil
}
