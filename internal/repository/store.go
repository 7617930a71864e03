package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every repository runs
// unchanged inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is a DBTX able to open transactions.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Statuses      StatusRepository
	Users         UserRepository
	Tickets       TicketRepository
	Parts         PartRepository
	StateRequests StateChangeRequestRepository
	History       TicketHistoryRepository
}

// UnitOfWork exposes repositories and runs work atomically.
type UnitOfWork interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

// Store is the Postgres-backed UnitOfWork.
type Store struct {
	db       TxBeginner
	statuses StatusRepository
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithStatusRepository replaces the status repository, e.g. with a cached one.
func WithStatusRepository(statuses StatusRepository) StoreOption {
	return func(s *Store) { s.statuses = statuses }
}

// NewStore builds a Store over db.
func NewStore(db TxBeginner, opts ...StoreOption) *Store {
	s := &Store{db: db, statuses: NewStatusRepository(db)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repos returns repositories bound to the pool.
func (s *Store) Repos() Repositories {
	return s.bind(s.db, s.statuses)
}

// WithinTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(Repositories) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	// statuses are read from the transaction, bypassing any cache
	if err = fn(s.bind(tx, NewStatusRepository(tx))); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) bind(db DBTX, statuses StatusRepository) Repositories {
	return Repositories{
		Statuses:      statuses,
		Users:         NewUserRepository(db),
		Tickets:       NewTicketRepository(db),
		Parts:         NewPartRepository(db),
		StateRequests: NewStateChangeRequestRepository(db),
		History:       NewTicketHistoryRepository(db),
	}
}

// ErrNotPending is returned when a guarded update finds the request resolved.
var ErrNotPending = errors.New("state change request is no longer pending")

// ErrDuplicatePending is returned when a ticket already has a pending request.
var ErrDuplicatePending = errors.New("ticket already has a pending state change request")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
