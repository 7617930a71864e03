package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/domain"
)

// StatusRepository reads the ticket status catalog.
type StatusRepository interface {
	List(ctx context.Context) ([]domain.Status, error)
	GetByID(ctx context.Context, id int64) (*domain.Status, error)
	GetByCode(ctx context.Context, code string) (*domain.Status, error)
	Upsert(ctx context.Context, status domain.Status) error
}

type statusRepository struct {
	db DBTX
}

// NewStatusRepository returns a Postgres-backed implementation.
func NewStatusRepository(db DBTX) StatusRepository {
	return &statusRepository{db: db}
}

func (r *statusRepository) List(ctx context.Context) ([]domain.Status, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, is_active, is_final FROM ticket_statuses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Status
	for rows.Next() {
		var status domain.Status
		if err := rows.Scan(statusTargets(&status)...); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

func (r *statusRepository) GetByID(ctx context.Context, id int64) (*domain.Status, error) {
	var status domain.Status
	err := r.db.QueryRow(ctx,
		`SELECT id, code, name, is_active, is_final FROM ticket_statuses WHERE id=$1`, id,
	).Scan(statusTargets(&status)...)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) GetByCode(ctx context.Context, code string) (*domain.Status, error) {
	var status domain.Status
	err := r.db.QueryRow(ctx,
		`SELECT id, code, name, is_active, is_final FROM ticket_statuses WHERE code=$1`, code,
	).Scan(statusTargets(&status)...)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) Upsert(ctx context.Context, status domain.Status) error {
	const query = `
        INSERT INTO ticket_statuses (id, code, name, is_active, is_final)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO UPDATE SET code=EXCLUDED.code, name=EXCLUDED.name,
            is_active=EXCLUDED.is_active, is_final=EXCLUDED.is_final`
	_, err := r.db.Exec(ctx, query, status.ID, status.Code, status.Name, status.IsActive, status.IsFinal)
	return err
}

// StatusCache stores the whole catalog under one key.
type StatusCache interface {
	Get(ctx context.Context) ([]domain.Status, bool, error)
	Set(ctx context.Context, statuses []domain.Status) error
	Invalidate(ctx context.Context) error
}

type cachedStatusRepository struct {
	inner  StatusRepository
	cache  StatusCache
	logger *zap.Logger
}

// NewCachedStatusRepository serves catalog reads from cache, falling back to
// inner on a miss or cache failure.
func NewCachedStatusRepository(inner StatusRepository, cache StatusCache, logger *zap.Logger) StatusRepository {
	return &cachedStatusRepository{inner: inner, cache: cache, logger: logger}
}

func (r *cachedStatusRepository) List(ctx context.Context) ([]domain.Status, error) {
	statuses, ok, err := r.cache.Get(ctx)
	if err != nil {
		r.logger.Warn("status cache read failed", zap.Error(err))
	}
	if ok {
		return statuses, nil
	}

	statuses, err = r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, statuses); err != nil {
		r.logger.Warn("status cache write failed", zap.Error(err))
	}
	return statuses, nil
}

func (r *cachedStatusRepository) GetByID(ctx context.Context, id int64) (*domain.Status, error) {
	return r.find(ctx, func(s domain.Status) bool { return s.ID == id })
}

func (r *cachedStatusRepository) GetByCode(ctx context.Context, code string) (*domain.Status, error) {
	return r.find(ctx, func(s domain.Status) bool { return s.Code == code })
}

func (r *cachedStatusRepository) Upsert(ctx context.Context, status domain.Status) error {
	if err := r.inner.Upsert(ctx, status); err != nil {
		return err
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		r.logger.Warn("status cache invalidation failed", zap.Error(err))
	}
	return nil
}

func (r *cachedStatusRepository) find(ctx context.Context, match func(domain.Status) bool) (*domain.Status, error) {
	statuses, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if match(statuses[i]) {
			status := statuses[i]
			return &status, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
