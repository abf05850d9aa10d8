package postgres

import (
	"context"
	"database/sql"

	"github.com/Heidric/workify/internal/logger"
	"github.com/Heidric/workify/internal/storage"
	"github.com/Heidric/workify/pkg/pgx"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

var log zerolog.Logger

type Storage struct {
	db *pgx.Postgres
}

func NewStorage(ctx context.Context, db *pgx.Postgres) *Storage {
	log = *logger.Log
	log = log.With().Str("name", "storage").Logger()

	return &Storage{db: db}
}

// get runs a single-row query and maps sql.ErrNoRows to ErrEntityNotFound.
func (s *Storage) get(ctx context.Context, dest any, b sqlbuilder.Builder, op string) error {
	query, args := b.BuildWithFlavor(sqlbuilder.PostgreSQL)
	if err := s.db.GetConn().GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrEntityNotFound
		}
		return errors.Wrap(err, op)
	}
	return nil
}

func (s *Storage) selectAll(ctx context.Context, dest any, b sqlbuilder.Builder, op string) error {
	query, args := b.BuildWithFlavor(sqlbuilder.PostgreSQL)
	if err := s.db.GetConn().SelectContext(ctx, dest, query, args...); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

// insertReturningID maps unique violations to ErrConflict.
func (s *Storage) insertReturningID(ctx context.Context, ib *sqlbuilder.InsertBuilder, op string) (int64, error) {
	ib.SQL("RETURNING id")
	query, args := ib.BuildWithFlavor(sqlbuilder.PostgreSQL)

	var id int64
	if err := s.db.GetConn().GetContext(ctx, &id, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, storage.ErrConflict
		}
		return 0, errors.Wrap(err, op)
	}
	return id, nil
}
