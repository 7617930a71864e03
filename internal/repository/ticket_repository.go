package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tickethelp/repair-service/internal/domain"
)

// TicketFilter captures list scoping and query parameters.
type TicketFilter struct {
	TechnicianID *int64
	ClientID     *int64
	StatusCode   *string
	Priority     *domain.TicketPriority
	SearchTerm   *string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatus(ctx context.Context, ticketID, statusID int64) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

var ticketSelect = `
        SELECT t.id, t.description, t.equipment, t.priority, t.estimated_date, t.parts_notes,
               t.opened_at, t.created_at, t.updated_at,
               ` + statusColumns("s") + `,
               ` + userColumns("a") + `,
               ` + userColumns("te") + `,
               ` + userColumns("c") + `
        FROM tickets t
        JOIN ticket_statuses s ON s.id = t.status_id
        LEFT JOIN users a ON a.id = t.administrator_id
        LEFT JOIN users te ON te.id = t.technician_id
        LEFT JOIN users c ON c.id = t.client_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (administrator_id, technician_id, client_id, status_id, description, equipment, priority, estimated_date, parts_notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, opened_at, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.AdministratorID(),
		ticket.TechnicianID(),
		ticket.ClientID(),
		ticket.Status.ID,
		ticket.Description,
		ticket.Equipment,
		ticket.Priority,
		ticket.EstimatedDate,
		ticket.PartsNotes,
	).Scan(&ticket.ID, &ticket.OpenedAt, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET administrator_id=$1, technician_id=$2, client_id=$3, status_id=$4, description=$5,
            equipment=$6, priority=$7, estimated_date=$8, parts_notes=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.AdministratorID(),
		ticket.TechnicianID(),
		ticket.ClientID(),
		ticket.Status.ID,
		ticket.Description,
		ticket.Equipment,
		ticket.Priority,
		ticket.EstimatedDate,
		ticket.PartsNotes,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticketID, statusID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE tickets SET status_id=$1, updated_at=NOW() WHERE id=$2`, statusID, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("t.technician_id=$%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("t.client_id=$%d", len(args)))
	}
	if filter.StatusCode != nil {
		args = append(args, *filter.StatusCode)
		clauses = append(clauses, fmt.Sprintf("s.code=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.description) LIKE $%d OR LOWER(t.equipment) LIKE $%d)", len(args), len(args)))
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM tickets t JOIN ticket_statuses s ON s.id = t.status_id` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := ticketSelect + where + " ORDER BY t.created_at DESC, t.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *ticket)
	}
	return result, total, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket              domain.Ticket
		admin, tech, client nullableUser
	)
	targets := []any{
		&ticket.ID,
		&ticket.Description,
		&ticket.Equipment,
		&ticket.Priority,
		&ticket.EstimatedDate,
		&ticket.PartsNotes,
		&ticket.OpenedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	}
	targets = append(targets, statusTargets(&ticket.Status)...)
	targets = append(targets, admin.targets()...)
	targets = append(targets, tech.targets()...)
	targets = append(targets, client.targets()...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	ticket.Administrator = admin.ref()
	ticket.Technician = tech.ref()
	ticket.Client = client.ref()
	return &ticket, nil
}
