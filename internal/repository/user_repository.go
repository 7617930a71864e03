package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/tickethelp/repair-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByDocument(ctx context.Context, document string) (*domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userSelect = `
        SELECT id, document, email, first_name, last_name, number, role, password_hash,
               is_active, must_change_password, created_at, updated_at
        FROM users`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (document, email, first_name, last_name, number, role, password_hash, is_active, must_change_password)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.Document,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Number,
		user.Role,
		user.PasswordHash,
		user.IsActive,
		user.MustChangePassword,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET document=$1, email=$2, first_name=$3, last_name=$4, number=$5, role=$6,
            password_hash=$7, is_active=$8, must_change_password=$9, updated_at=NOW()
        WHERE id=$10`

	cmd, err := r.db.Exec(ctx, query,
		user.Document,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Number,
		user.Role,
		user.PasswordHash,
		user.IsActive,
		user.MustChangePassword,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *userRepository) GetByDocument(ctx context.Context, document string) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE document=$1`, document)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Document,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Number,
		&user.Role,
		&user.PasswordHash,
		&user.IsActive,
		&user.MustChangePassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
