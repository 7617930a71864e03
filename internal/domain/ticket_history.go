package domain

import (
	"time"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID                 int64
	TicketID           int64
	Status             string
	PreviousStatus     *string
	Technician         *UserRef
	PreviousTechnician *UserRef
	Action             string
	Date               time.Time
	PerformedBy        *UserRef
	Snapshot           map[string]any
}

// HistoryOption customises an entry built by NewHistoryEntry.
type HistoryOption func(*TicketHistory)

// WithPreviousStatus records the status name before the change.
func WithPreviousStatus(name *string) HistoryOption {
	return func(h *TicketHistory) { h.PreviousStatus = name }
}

// WithPreviousTechnician records the technician before the change.
func WithPreviousTechnician(u *UserRef) HistoryOption {
	return func(h *TicketHistory) { h.PreviousTechnician = u }
}

// WithSnapshot stores an explicit payload instead of the ticket's fields.
func WithSnapshot(snapshot map[string]any) HistoryOption {
	return func(h *TicketHistory) { h.Snapshot = snapshot }
}

// NewHistoryEntry builds the entry for a change to ticket performed by actor.
func NewHistoryEntry(ticket *Ticket, action string, actor *UserRef, opts ...HistoryOption) *TicketHistory {
	entry := &TicketHistory{
		TicketID:    ticket.ID,
		Status:      ticket.Status.DisplayName(),
		Technician:  ticket.Technician,
		Action:      action,
		PerformedBy: actor,
	}
	for _, opt := range opts {
		opt(entry)
	}
	if entry.Snapshot == nil {
		entry.Snapshot = TicketSnapshot(ticket)
	}
	return entry
}

// TicketSnapshot captures the ticket fields recorded on each history entry.
func TicketSnapshot(t *Ticket) map[string]any {
	snapshot := map[string]any{
		"descripcion":    t.Description,
		"equipo":         t.Equipment,
		"prioridad":      string(t.Priority),
		"fecha_estimada": nil,
		"repuestos":      nil,
		"administrador":  nil,
		"cliente":        nil,
	}
	if t.EstimatedDate != nil {
		snapshot["fecha_estimada"] = t.EstimatedDate.Format(time.DateOnly)
	}
	if t.PartsNotes != nil {
		snapshot["repuestos"] = *t.PartsNotes
	}
	if t.Administrator != nil {
		snapshot["administrador"] = t.Administrator.Document
	}
	if t.Client != nil {
		snapshot["cliente"] = t.Client.Document
	}
	return snapshot
}
