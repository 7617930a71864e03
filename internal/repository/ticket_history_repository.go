package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/tickethelp/repair-service/internal/domain"
)

// TicketHistoryRepository is append-only: rows are created and listed, never
// updated or deleted.
type TicketHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db DBTX
}

// NewTicketHistoryRepository returns a Postgres-backed implementation.
func NewTicketHistoryRepository(db DBTX) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, entry *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, status, previous_status, technician_id, previous_technician_id, action, performed_by_id, snapshot)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`

	snapshot, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.Status,
		entry.PreviousStatus,
		refID(entry.Technician),
		refID(entry.PreviousTechnician),
		entry.Action,
		refID(entry.PerformedBy),
		snapshot,
	).Scan(&entry.ID, &entry.Date)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	query := `
        SELECT h.id, h.ticket_id, h.status, h.previous_status, h.action, h.snapshot, h.created_at,
               ` + userColumns("te") + `,
               ` + userColumns("pt") + `,
               ` + userColumns("pb") + `
        FROM ticket_history h
        LEFT JOIN users te ON te.id = h.technician_id
        LEFT JOIN users pt ON pt.id = h.previous_technician_id
        LEFT JOIN users pb ON pb.id = h.performed_by_id
        WHERE h.ticket_id=$1
        ORDER BY h.created_at DESC, h.id DESC`

	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func scanHistory(row pgx.Row) (*domain.TicketHistory, error) {
	var (
		entry                domain.TicketHistory
		snapshot             []byte
		tech, prevTech, performer nullableUser
	)
	targets := []any{
		&entry.ID,
		&entry.TicketID,
		&entry.Status,
		&entry.PreviousStatus,
		&entry.Action,
		&snapshot,
		&entry.Date,
	}
	targets = append(targets, tech.targets()...)
	targets = append(targets, prevTech.targets()...)
	targets = append(targets, performer.targets()...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &entry.Snapshot); err != nil {
			return nil, err
		}
	}
	entry.Technician = tech.ref()
	entry.PreviousTechnician = prevTech.ref()
	entry.PerformedBy = performer.ref()
	return &entry, nil
}
