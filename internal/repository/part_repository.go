package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/tickethelp/repair-service/internal/domain"
)

// PartRepository stores parts registered against tickets.
type PartRepository interface {
	Create(ctx context.Context, part *domain.Part) error
	Update(ctx context.Context, part *domain.Part) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Part, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Part, error)
}

type partRepository struct {
	db DBTX
}

// NewPartRepository returns a Postgres-backed implementation.
func NewPartRepository(db DBTX) PartRepository {
	return &partRepository{db: db}
}

var partSelect = `
        SELECT p.id, p.ticket_id, p.name, p.serial, p.ean, p.registration_date, p.cost, p.quantity,
               p.created_at, p.updated_at, ` + userColumns("u") + `
        FROM ticket_parts p
        LEFT JOIN users u ON u.id = p.registered_by_id`

func (r *partRepository) Create(ctx context.Context, part *domain.Part) error {
	const query = `
        INSERT INTO ticket_parts (ticket_id, name, serial, ean, registration_date, cost, quantity, registered_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		part.TicketID,
		part.Name,
		part.Serial,
		part.EAN,
		part.RegistrationDate,
		part.Cost,
		part.Quantity,
		refID(part.RegisteredBy),
	).Scan(&part.ID, &part.CreatedAt, &part.UpdatedAt)
}

func (r *partRepository) Update(ctx context.Context, part *domain.Part) error {
	const query = `
        UPDATE ticket_parts SET name=$1, serial=$2, ean=$3, registration_date=$4, cost=$5, quantity=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		part.Name,
		part.Serial,
		part.EAN,
		part.RegistrationDate,
		part.Cost,
		part.Quantity,
		part.ID,
	).Scan(&part.UpdatedAt)
}

func (r *partRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ticket_parts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *partRepository) GetByID(ctx context.Context, id int64) (*domain.Part, error) {
	return scanPart(r.db.QueryRow(ctx, partSelect+` WHERE p.id=$1`, id))
}

func (r *partRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Part, error) {
	rows, err := r.db.Query(ctx, partSelect+` WHERE p.ticket_id=$1 ORDER BY p.registration_date DESC, p.id DESC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *part)
	}
	return result, rows.Err()
}

func scanPart(row pgx.Row) (*domain.Part, error) {
	var (
		part domain.Part
		by   nullableUser
	)
	targets := []any{
		&part.ID,
		&part.TicketID,
		&part.Name,
		&part.Serial,
		&part.EAN,
		&part.RegistrationDate,
		&part.Cost,
		&part.Quantity,
		&part.CreatedAt,
		&part.UpdatedAt,
	}
	if err := row.Scan(append(targets, by.targets()...)...); err != nil {
		return nil, err
	}
	part.RegisteredBy = by.ref()
	return &part, nil
}
