package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tickethelp/repair-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated            EventType = "ticket_created"
	EventTicketStatusChanged      EventType = "ticket_status_changed"
	EventTicketTechnicianAssigned EventType = "ticket_technician_assigned"
	EventPartRegistered           EventType = "part_registered"
	EventPartUpdated              EventType = "part_updated"
	EventPartDeleted              EventType = "part_deleted"
	EventStateRequestCreated      EventType = "state_request_created"
	EventStateRequestResolved     EventType = "state_request_resolved"
)

// AllEventTypes lists every event the services emit.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketTechnicianAssigned,
	EventPartRegistered,
	EventPartUpdated,
	EventPartDeleted,
	EventStateRequestCreated,
	EventStateRequestResolved,
}

// Actor identifies who caused an event.
type Actor struct {
	UserID   int64  `json:"user_id"`
	Document string `json:"document,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     *Actor      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, ticketID int64, actor *domain.UserRef, payload interface{}) Event {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if actor != nil {
		event.Actor = &Actor{UserID: actor.ID, Document: actor.Document}
	}
	return event
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Status    string                `json:"status"`
	Priority  domain.TicketPriority `json:"priority"`
	Equipment string                `json:"equipment"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// TicketTechnicianAssignedPayload payload.
type TicketTechnicianAssignedPayload struct {
	PreviousTechnicianID *int64 `json:"previous_technician_id,omitempty"`
	TechnicianID         *int64 `json:"technician_id,omitempty"`
}

// PartPayload is shared by the part events.
type PartPayload struct {
	PartID    int64  `json:"part_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	CostTotal string `json:"cost_total"`
}

// StateRequestPayload is shared by the state request events.
type StateRequestPayload struct {
	RequestID int64                `json:"request_id"`
	FromState string               `json:"from_state"`
	ToState   string               `json:"to_state"`
	Status    domain.RequestStatus `json:"status"`
}
