package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	pgclient "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/postgres"
)

// Store persists the archive in PostgreSQL.
type Store struct {
	db     *pgclient.Client
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

func New(db *pgclient.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "postgres-store"),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// InTx runs fn inside one database transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.InTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(&tx{tx: sqlTx})
	})
}

// translate turns constraint violations into domain errors and wraps
// anything else with what.
func translate(err error, what string) error {
	switch {
	case pgclient.IsUniqueViolation(err):
		return apperrors.Duplicate("%s: already exists", what)
	case pgclient.IsCheckViolation(err):
		return apperrors.Validation("%s: violates %s", what, pgclient.Constraint(err))
	case pgclient.IsForeignKeyViolation(err):
		return apperrors.NotFound("%s: referenced row does not exist", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
