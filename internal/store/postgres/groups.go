package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/lib/pq"
)

func (s *Store) CreateWordGroup(ctx context.Context, description string) (int64, error) {
	var id int64
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO word_groups (description) VALUES ($1) RETURNING group_id`, description,
	).Scan(&id)
	if err != nil {
		return 0, translate(err, fmt.Sprintf("word group %q", description))
	}
	return id, nil
}

func (s *Store) WordGroupID(ctx context.Context, description string) (int64, bool, error) {
	var id int64
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT group_id FROM word_groups WHERE description = $1`, description,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up word group: %w", err)
	}
	return id, true, nil
}

func (s *Store) AddGroupToken(ctx context.Context, groupID, tokenID int64) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO word_group_members (group_id, word_id) VALUES ($1, $2)`, groupID, tokenID)
	if err != nil {
		return translate(err, fmt.Sprintf("word %d in group %d", tokenID, groupID))
	}
	return nil
}

func (s *Store) GroupTokens(ctx context.Context, groupID int64) ([]string, error) {
	var words pq.StringArray
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT COALESCE(ARRAY_AGG(w.word ORDER BY w.word COLLATE "C")
		        FILTER (WHERE w.word IS NOT NULL), '{}')
		 FROM word_groups g
		 LEFT JOIN word_group_members m ON m.group_id = g.group_id
		 LEFT JOIN words w ON w.word_id = m.word_id
		 WHERE g.group_id = $1
		 GROUP BY g.group_id`, groupID,
	).Scan(&words)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("word group %d", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading group %d: %w", groupID, err)
	}
	return []string(words), nil
}

func (s *Store) WordGroups(ctx context.Context) ([]store.WordGroup, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT g.group_id, g.description,
		        COALESCE(ARRAY_AGG(w.word ORDER BY w.word COLLATE "C")
		        FILTER (WHERE w.word IS NOT NULL), '{}')
		 FROM word_groups g
		 LEFT JOIN word_group_members m ON m.group_id = g.group_id
		 LEFT JOIN words w ON w.word_id = m.word_id
		 GROUP BY g.group_id, g.description
		 ORDER BY g.description COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("listing word groups: %w", err)
	}
	defer rows.Close()

	var out []store.WordGroup
	for rows.Next() {
		var (
			g     store.WordGroup
			words pq.StringArray
		)
		if err := rows.Scan(&g.ID, &g.Description, &words); err != nil {
			return nil, fmt.Errorf("scanning word group: %w", err)
		}
		g.Words = []string(words)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) CreatePhrase(ctx context.Context, phrase string) (int64, error) {
	var id int64
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO phrases (phrase) VALUES ($1) RETURNING phrase_id`, phrase,
	).Scan(&id)
	if err != nil {
		return 0, translate(err, fmt.Sprintf("phrase %q", phrase))
	}
	return id, nil
}

func (s *Store) Phrases(ctx context.Context) ([]store.Phrase, error) {
	rows, err := s.db.DB.QueryContext(ctx, `SELECT phrase_id, phrase FROM phrases ORDER BY phrase_id`)
	if err != nil {
		return nil, fmt.Errorf("listing phrases: %w", err)
	}
	defer rows.Close()

	var out []store.Phrase
	for rows.Next() {
		var p store.Phrase
		if err := rows.Scan(&p.ID, &p.Phrase); err != nil {
			return nil, fmt.Errorf("scanning phrase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) PhraseExists(ctx context.Context, phrase string) (bool, error) {
	var exists bool
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM phrases WHERE phrase = $1)`, phrase,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking phrase: %w", err)
	}
	return exists, nil
}
