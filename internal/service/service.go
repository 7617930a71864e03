package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/repository"
	apperrors "github.com/tickethelp/repair-service/pkg/util"
)

// Dependencies bundles what the ticket-facing services share.
type Dependencies struct {
	Store      repository.UnitOfWork
	Authorizer *auth.Authorizer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

type base struct {
	store      repository.UnitOfWork
	authz      *auth.Authorizer
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func newBase(deps Dependencies) base {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		store:      deps.Store,
		authz:      deps.Authorizer,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// authorize runs the access rule for the operation. When hideAs is not empty
// any denial is reported as that resource not being found.
func (b base) authorize(user *domain.User, resource auth.Resource, action auth.Action, ticket *domain.Ticket, hideAs string) error {
	err := b.authz.Authorize(user, resource, action, ticket)
	if err == nil {
		return nil
	}
	if !isDenial(err) {
		return apperrors.NewInternalError(err)
	}
	if hideAs != "" {
		return apperrors.NewNotFound(hideAs, nil)
	}
	return apperrors.NewForbidden(fmt.Sprintf("you are not allowed to %s this %s", action, resource))
}

// isDenial reports whether err is a policy refusal rather than a failure of
// the permission check itself.
func isDenial(err error) bool {
	return errors.Is(err, auth.ErrRoleDenied) || errors.Is(err, auth.ErrNotOwner)
}

func (b base) loadTicket(ctx context.Context, repos repository.Repositories, id int64) (*domain.Ticket, error) {
	ticket, err := repos.Tickets.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("load ticket %d: %w", id, err)
	}
	return ticket, nil
}

// publish hands events to the dispatcher after commit; failures are logged.
func (b base) publish(ctx context.Context, evts ...events.Event) {
	if b.dispatcher == nil {
		return
	}
	for _, event := range evts {
		if err := b.dispatcher.Publish(ctx, event); err != nil {
			b.logger.Warn("event handlers failed",
				zap.String("event_type", string(event.Type)),
				zap.Int64("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
}

func validationError(field, message string) error {
	return apperrors.NewValidationError("validation failed", map[string]any{field: message})
}

func fieldErrors(err error) error {
	var fe domain.FieldErrors
	if errors.As(err, &fe) {
		details := make(map[string]any, len(fe))
		for k, v := range fe {
			details[k] = v
		}
		return apperrors.NewValidationError("validation failed", details)
	}
	return err
}
