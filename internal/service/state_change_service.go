package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/repository"
	apperrors "github.com/tickethelp/repair-service/pkg/util"
)

// StateChangeService runs the request/approve/reject workflow for status
// transitions.
type StateChangeService struct {
	base
	now func() time.Time
}

// NewStateChangeService constructs the service.
func NewStateChangeService(deps Dependencies) *StateChangeService {
	return &StateChangeService{base: newBase(deps), now: time.Now}
}

// StateChangeInput is the body of a new request.
type StateChangeInput struct {
	ToStatusID int64
	Reason     *string
}

// RequestChange files a pending request to move the ticket to another status.
func (s *StateChangeService) RequestChange(ctx context.Context, user *domain.User, ticketID int64, input StateChangeInput) (*domain.StateChangeRequest, error) {
	repos := s.store.Repos()
	ticket, err := s.loadTicket(ctx, repos, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(user, auth.ResourceStateRequest, auth.ActionCreate, ticket, ""); err != nil {
		return nil, err
	}

	target, err := repos.Statuses.GetByID(ctx, input.ToStatusID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, validationError("to_state", "unknown status")
		}
		return nil, fmt.Errorf("load status: %w", err)
	}
	if target.ID == ticket.Status.ID {
		return nil, validationError("to_state", "ticket is already in this status")
	}
	pending, err := repos.StateRequests.HasPending(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("check pending requests: %w", err)
	}
	if pending {
		return nil, duplicatePending(ticketID)
	}

	req := &domain.StateChangeRequest{
		TicketID:    ticketID,
		RequestedBy: *user.Ref(),
		FromStatus:  ticket.Status,
		ToStatus:    *target,
		Status:      domain.RequestStatusPending,
		Reason:      blankToNil(input.Reason),
	}
	action := fmt.Sprintf("State change requested: %s -> %s", req.FromStatus.DisplayName(), req.ToStatus.DisplayName())
	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := tx.StateRequests.Create(ctx, req); err != nil {
			return err
		}
		return tx.History.Create(ctx, domain.NewHistoryEntry(ticket, action, user.Ref()))
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			return nil, duplicatePending(ticketID)
		}
		return nil, err
	}

	s.publish(ctx, requestEvent(events.EventStateRequestCreated, user, req))
	return req, nil
}

// ListForTicket returns the ticket's requests, newest first.
func (s *StateChangeService) ListForTicket(ctx context.Context, user *domain.User, ticketID int64) ([]domain.StateChangeRequest, error) {
	repos := s.store.Repos()
	ticket, err := s.loadTicket(ctx, repos, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(user, auth.ResourceStateRequest, auth.ActionRead, ticket, "ticket"); err != nil {
		return nil, err
	}
	reqs, err := repos.StateRequests.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list requests of ticket %d: %w", ticketID, err)
	}
	return nonNil(reqs), nil
}

// List returns requests across tickets, optionally filtered by status.
func (s *StateChangeService) List(ctx context.Context, user *domain.User, status string) ([]domain.StateChangeRequest, error) {
	if err := s.authorize(user, auth.ResourceStateRequest, auth.ActionListAll, nil, ""); err != nil {
		return nil, err
	}
	var filter *domain.RequestStatus
	if status = strings.TrimSpace(status); status != "" {
		rs := domain.RequestStatus(status)
		if !rs.Valid() {
			return nil, validationError("status", "must be pending, approved or rejected")
		}
		filter = &rs
	}
	reqs, err := s.store.Repos().StateRequests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return nonNil(reqs), nil
}

// Approve resolves a pending request and moves its ticket to the requested
// status, atomically.
func (s *StateChangeService) Approve(ctx context.Context, user *domain.User, requestID int64) (*domain.StateChangeRequest, error) {
	if err := s.authorize(user, auth.ResourceStateRequest, auth.ActionApprove, nil, ""); err != nil {
		return nil, err
	}

	var req *domain.StateChangeRequest
	now := s.now().UTC()
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		var err error
		if req, err = s.loadRequest(ctx, tx, requestID); err != nil {
			return err
		}
		if err := tx.StateRequests.Resolve(ctx, requestID, repository.Resolution{
			Status:     domain.RequestStatusApproved,
			ApprovedBy: user.Ref(),
			ApprovedAt: &now,
		}); err != nil {
			return err
		}
		ticket, err := s.loadTicket(ctx, tx, req.TicketID)
		if err != nil {
			return err
		}
		previous := ticket.Status.DisplayName()
		if err := tx.Tickets.UpdateStatus(ctx, ticket.ID, req.ToStatus.ID); err != nil {
			return fmt.Errorf("update ticket status: %w", err)
		}
		ticket.Status = req.ToStatus
		action := fmt.Sprintf("State change approved: %s -> %s", previous, req.ToStatus.DisplayName())
		return tx.History.Create(ctx, domain.NewHistoryEntry(ticket, action, user.Ref(), domain.WithPreviousStatus(&previous)))
	})
	if err != nil {
		return nil, resolveError(err, requestID)
	}

	req.Status = domain.RequestStatusApproved
	req.ApprovedBy = user.Ref()
	req.ApprovedAt = &now
	s.publish(ctx,
		requestEvent(events.EventStateRequestResolved, user, req),
		events.New(events.EventTicketStatusChanged, req.TicketID, user.Ref(), events.TicketStatusChangedPayload{
			OldStatus: req.FromStatus.Code,
			NewStatus: req.ToStatus.Code,
		}),
	)
	return req, nil
}

// Reject resolves a pending request without touching the ticket's status.
func (s *StateChangeService) Reject(ctx context.Context, user *domain.User, requestID int64, reason *string) (*domain.StateChangeRequest, error) {
	if err := s.authorize(user, auth.ResourceStateRequest, auth.ActionReject, nil, ""); err != nil {
		return nil, err
	}

	reason = blankToNil(reason)
	var req *domain.StateChangeRequest
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		var err error
		if req, err = s.loadRequest(ctx, tx, requestID); err != nil {
			return err
		}
		if err := tx.StateRequests.Resolve(ctx, requestID, repository.Resolution{
			Status:          domain.RequestStatusRejected,
			RejectionReason: reason,
		}); err != nil {
			return err
		}
		ticket, err := s.loadTicket(ctx, tx, req.TicketID)
		if err != nil {
			return err
		}
		action := fmt.Sprintf("State change rejected: %s -> %s", req.FromStatus.DisplayName(), req.ToStatus.DisplayName())
		if reason != nil {
			action += " (" + *reason + ")"
		}
		return tx.History.Create(ctx, domain.NewHistoryEntry(ticket, truncate(action, 200), user.Ref()))
	})
	if err != nil {
		return nil, resolveError(err, requestID)
	}

	req.Status = domain.RequestStatusRejected
	req.RejectionReason = reason
	s.publish(ctx, requestEvent(events.EventStateRequestResolved, user, req))
	return req, nil
}

func (s *StateChangeService) loadRequest(ctx context.Context, repos repository.Repositories, id int64) (*domain.StateChangeRequest, error) {
	req, err := repos.StateRequests.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("state change request", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("load request %d: %w", id, err)
	}
	return req, nil
}

func resolveError(err error, requestID int64) error {
	if errors.Is(err, repository.ErrNotPending) {
		return apperrors.NewConflict("state change request was already resolved", map[string]any{"id": requestID})
	}
	return err
}

func duplicatePending(ticketID int64) error {
	return apperrors.NewConflict("ticket already has a pending state change request", map[string]any{"ticket": ticketID})
}

func requestEvent(eventType events.EventType, user *domain.User, req *domain.StateChangeRequest) events.Event {
	return events.New(eventType, req.TicketID, user.Ref(), events.StateRequestPayload{
		RequestID: req.ID,
		FromState: req.FromStatus.Code,
		ToState:   req.ToStatus.Code,
		Status:    req.Status,
	})
}

func nonNil(reqs []domain.StateChangeRequest) []domain.StateChangeRequest {
	if reqs == nil {
		return []domain.StateChangeRequest{}
	}
	return reqs
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
