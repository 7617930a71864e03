package domain

import "time"

// TicketPriority enumerates repair urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is one of the supported priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for a repair job.
type Ticket struct {
	ID            int64
	Administrator *UserRef
	Technician    *UserRef
	Client        *UserRef
	Status        Status
	Description   string
	Equipment     string
	Priority      TicketPriority
	EstimatedDate *time.Time
	PartsNotes    *string
	OpenedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive is read from the current status; it is never stored on the ticket.
func (t *Ticket) IsActive() bool {
	return t.Status.IsActive
}

// IsFinal reports whether the ticket sits in a final status.
func (t *Ticket) IsFinal() bool {
	return t.Status.IsFinal
}

// IsAssignedTo reports whether userID is the ticket's technician.
func (t *Ticket) IsAssignedTo(userID int64) bool {
	return t.Technician != nil && t.Technician.ID == userID
}

// IsClient reports whether userID is the ticket's client.
func (t *Ticket) IsClient(userID int64) bool {
	return t.Client != nil && t.Client.ID == userID
}

// AdministratorID returns the administrator id for persistence.
func (t *Ticket) AdministratorID() *int64 { return refID(t.Administrator) }

// TechnicianID returns the technician id for persistence.
func (t *Ticket) TechnicianID() *int64 { return refID(t.Technician) }

// ClientID returns the client id for persistence.
func (t *Ticket) ClientID() *int64 { return refID(t.Client) }
