package dto

import (
	"time"

	"github.com/tickethelp/repair-service/internal/domain"
)

// CreateStateRequest asks for a ticket to move to another status.
type CreateStateRequest struct {
	ToState int64   `json:"to_state" validate:"required,gt=0"`
	Reason  *string `json:"reason"`
}

// RejectStateRequest carries the optional rejection reason.
type RejectStateRequest struct {
	RejectionReason *string `json:"rejection_reason"`
}

// StateRequestResponse represents a state-change request.
type StateRequestResponse struct {
	ID              int64                `json:"id"`
	Ticket          int64                `json:"ticket"`
	RequestedBy     UserRefResponse      `json:"requested_by"`
	FromState       StatusResponse       `json:"from_state"`
	ToState         StatusResponse       `json:"to_state"`
	Status          domain.RequestStatus `json:"status"`
	Reason          *string              `json:"reason"`
	CreatedAt       time.Time            `json:"created_at"`
	ApprovedBy      *UserRefResponse     `json:"approved_by"`
	ApprovedAt      *time.Time           `json:"approved_at"`
	RejectionReason *string              `json:"rejection_reason"`
}

// NewStateRequestResponse maps a request.
func NewStateRequestResponse(r *domain.StateChangeRequest) StateRequestResponse {
	return StateRequestResponse{
		ID:              r.ID,
		Ticket:          r.TicketID,
		RequestedBy:     *NewUserRef(&r.RequestedBy),
		FromState:       NewStatusResponse(r.FromStatus),
		ToState:         NewStatusResponse(r.ToStatus),
		Status:          r.Status,
		Reason:          r.Reason,
		CreatedAt:       r.CreatedAt,
		ApprovedBy:      NewUserRef(r.ApprovedBy),
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
	}
}

// NewStateRequestResponses maps a slice of requests.
func NewStateRequestResponses(reqs []domain.StateChangeRequest) []StateRequestResponse {
	resp := make([]StateRequestResponse, 0, len(reqs))
	for i := range reqs {
		resp = append(resp, NewStateRequestResponse(&reqs[i]))
	}
	return resp
}
