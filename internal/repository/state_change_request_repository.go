package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tickethelp/repair-service/internal/domain"
)

// Resolution carries the outcome applied by a guarded Resolve.
type Resolution struct {
	Status          domain.RequestStatus
	ApprovedBy      *domain.UserRef
	ApprovedAt      *time.Time
	RejectionReason *string
}

// StateChangeRequestRepository stores status change requests.
type StateChangeRequestRepository interface {
	Create(ctx context.Context, req *domain.StateChangeRequest) error
	GetByID(ctx context.Context, id int64) (*domain.StateChangeRequest, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.StateChangeRequest, error)
	List(ctx context.Context, status *domain.RequestStatus) ([]domain.StateChangeRequest, error)
	HasPending(ctx context.Context, ticketID int64) (bool, error)
	// Resolve moves a pending request to its outcome. ErrNotPending is
	// returned when no pending row matched.
	Resolve(ctx context.Context, id int64, res Resolution) error
}

type stateChangeRequestRepository struct {
	db DBTX
}

// NewStateChangeRequestRepository returns a Postgres-backed implementation.
func NewStateChangeRequestRepository(db DBTX) StateChangeRequestRepository {
	return &stateChangeRequestRepository{db: db}
}

var stateRequestSelect = `
        SELECT r.id, r.ticket_id, r.status, r.reason, r.rejection_reason, r.approved_at, r.created_at, r.updated_at,
               ` + userColumns("rb") + `,
               ` + statusColumns("fs") + `,
               ` + statusColumns("ts") + `,
               ` + userColumns("ab") + `
        FROM state_change_requests r
        JOIN users rb ON rb.id = r.requested_by_id
        JOIN ticket_statuses fs ON fs.id = r.from_status_id
        JOIN ticket_statuses ts ON ts.id = r.to_status_id
        LEFT JOIN users ab ON ab.id = r.approved_by_id`

func (r *stateChangeRequestRepository) Create(ctx context.Context, req *domain.StateChangeRequest) error {
	const query = `
        INSERT INTO state_change_requests (ticket_id, requested_by_id, from_status_id, to_status_id, status, reason)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	if req.Status == "" {
		req.Status = domain.RequestStatusPending
	}
	err := r.db.QueryRow(ctx, query,
		req.TicketID,
		req.RequestedBy.ID,
		req.FromStatus.ID,
		req.ToStatus.ID,
		req.Status,
		req.Reason,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicatePending
	}
	return err
}

func (r *stateChangeRequestRepository) GetByID(ctx context.Context, id int64) (*domain.StateChangeRequest, error) {
	return scanStateRequest(r.db.QueryRow(ctx, stateRequestSelect+` WHERE r.id=$1`, id))
}

func (r *stateChangeRequestRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.StateChangeRequest, error) {
	return r.list(ctx, stateRequestSelect+` WHERE r.ticket_id=$1 ORDER BY r.created_at DESC, r.id DESC`, ticketID)
}

func (r *stateChangeRequestRepository) List(ctx context.Context, status *domain.RequestStatus) ([]domain.StateChangeRequest, error) {
	if status == nil {
		return r.list(ctx, stateRequestSelect+` ORDER BY r.created_at DESC, r.id DESC`)
	}
	return r.list(ctx, stateRequestSelect+` WHERE r.status=$1 ORDER BY r.created_at DESC, r.id DESC`, *status)
}

func (r *stateChangeRequestRepository) HasPending(ctx context.Context, ticketID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM state_change_requests WHERE ticket_id=$1 AND status='pending')`, ticketID,
	).Scan(&exists)
	return exists, err
}

func (r *stateChangeRequestRepository) Resolve(ctx context.Context, id int64, res Resolution) error {
	const query = `
        UPDATE state_change_requests
        SET status=$2, approved_by_id=$3, approved_at=$4, rejection_reason=$5, updated_at=NOW()
        WHERE id=$1 AND status='pending'`
	cmd, err := r.db.Exec(ctx, query, id, res.Status, refID(res.ApprovedBy), res.ApprovedAt, res.RejectionReason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *stateChangeRequestRepository) list(ctx context.Context, query string, args ...any) ([]domain.StateChangeRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StateChangeRequest
	for rows.Next() {
		req, err := scanStateRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func scanStateRequest(row pgx.Row) (*domain.StateChangeRequest, error) {
	var (
		req                     domain.StateChangeRequest
		requestedBy, approvedBy nullableUser
	)
	targets := []any{
		&req.ID,
		&req.TicketID,
		&req.Status,
		&req.Reason,
		&req.RejectionReason,
		&req.ApprovedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	}
	targets = append(targets, requestedBy.targets()...)
	targets = append(targets, statusTargets(&req.FromStatus)...)
	targets = append(targets, statusTargets(&req.ToStatus)...)
	targets = append(targets, approvedBy.targets()...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	if ref := requestedBy.ref(); ref != nil {
		req.RequestedBy = *ref
	}
	req.ApprovedBy = approvedBy.ref()
	return &req, nil
}
