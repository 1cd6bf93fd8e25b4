// Package postgres implements the repository on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

// DBTX is satisfied by both the pool and an open transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is the PostgreSQL repository.Store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store instance.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Repository returns a handle bound to the pool.
func (s *Store) Repository() repository.Repository {
	return &Queries{db: s.pool}
}

// WithTx runs fn inside one read-committed transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Repository) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(context.Background()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error().Err(err).Msg("Failed to roll back transaction")
		}
	}()

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Queries implements repository.Repository on a DBTX.
type Queries struct {
	db DBTX
}

var _ repository.Repository = (*Queries)(nil)

const uniqueViolation = "23505"

// translate maps driver errors onto repository sentinels.
func translate(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// expectOne turns an empty write into ErrNoRowsAffected.
func expectOne(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return translate(err, op)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNoRowsAffected)
	}
	return nil
}

// limitOffset renders a page as LIMIT/OFFSET arguments; a zero page yields
// NULL, which PostgreSQL reads as no limit.
func limitOffset(page model.Page) (any, int) {
	if page.IsAll() {
		return nil, 0
	}
	return page.Limit(), page.Offset()
}
