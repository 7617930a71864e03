package domain

import "time"

// RequestStatus is the approval lifecycle of a state-change request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// StateChangeRequest proposes moving a ticket from one status to another.
// It only ever moves pending→approved or pending→rejected.
type StateChangeRequest struct {
	ID              int64
	TicketID        int64
	RequestedBy     UserRef
	FromStatus      Status
	ToStatus        Status
	Status          RequestStatus
	Reason          *string
	RejectionReason *string
	ApprovedBy      *UserRef
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsPending reports whether the request can still be resolved.
func (r *StateChangeRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}
