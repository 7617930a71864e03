package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/repository"
	apperrors "github.com/tickethelp/repair-service/pkg/util"
)

// PartService manages the parts technicians register on their tickets.
type PartService struct {
	base
	now func() time.Time
}

// NewPartService constructs the service.
func NewPartService(deps Dependencies) *PartService {
	return &PartService{base: newBase(deps), now: time.Now}
}

// PartInput carries part fields; nil means "not provided".
type PartInput struct {
	Name             *string
	Serial           *string
	EAN              *string
	RegistrationDate *time.Time
	Cost             *decimal.Decimal
	Quantity         *int
}

// PartList is the result of listing a ticket's parts.
type PartList struct {
	TicketID int64
	Parts    []domain.Part
	Total    decimal.Decimal
}

// ListParts returns the ticket's parts. Callers other than the assigned
// technician receive an empty list.
func (s *PartService) ListParts(ctx context.Context, user *domain.User, ticketID int64) (*PartList, error) {
	repos := s.store.Repos()
	ticket, err := s.loadTicket(ctx, repos, ticketID)
	if err != nil {
		return nil, err
	}

	result := &PartList{TicketID: ticketID, Parts: []domain.Part{}, Total: decimal.Zero}
	if err := s.authz.Authorize(user, auth.ResourcePart, auth.ActionList, ticket); err != nil {
		if !isDenial(err) {
			return nil, apperrors.NewInternalError(err)
		}
		return result, nil
	}

	parts, err := repos.Parts.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list parts of ticket %d: %w", ticketID, err)
	}
	if len(parts) > 0 {
		result.Parts = parts
		result.Total = domain.PartsTotal(parts)
	}
	return result, nil
}

// CreatePart registers a part on the ticket. The body is validated before the
// caller's assignment and the ticket's status are checked.
func (s *PartService) CreatePart(ctx context.Context, user *domain.User, ticketID int64, input PartInput) (*domain.Part, error) {
	part := &domain.Part{TicketID: ticketID, Quantity: 1}
	applyPartInput(part, input, true)
	if part.RegistrationDate.IsZero() {
		part.RegistrationDate = dateOnly(s.now())
	}
	if err := part.Validate(); err != nil {
		return nil, fieldErrors(err)
	}

	repos := s.store.Repos()
	ticket, err := s.loadTicket(ctx, repos, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(user, auth.ResourcePart, auth.ActionCreate, ticket, ""); err != nil {
		if apperrors.IsCode(err, "FORBIDDEN") {
			return nil, apperrors.NewForbidden("only the assigned technician can register parts on this ticket")
		}
		return nil, err
	}
	if err := checkMutable(ticket); err != nil {
		return nil, err
	}

	part.RegisteredBy = user.Ref()
	action := fmt.Sprintf("Part registered: %s (Quantity: %d, Cost: $%s)", part.Name, part.Quantity, part.Cost.StringFixed(2))
	if err := s.writeWithHistory(ctx, ticket, user, action, func(tx repository.Repositories) error {
		return tx.Parts.Create(ctx, part)
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, partEvent(events.EventPartRegistered, user, part))
	return part, nil
}

// GetPart returns one part of the ticket.
func (s *PartService) GetPart(ctx context.Context, user *domain.User, ticketID, partID int64) (*domain.Part, error) {
	_, part, err := s.loadOwnedPart(ctx, user, auth.ActionRead, ticketID, partID)
	return part, err
}

// UpdatePart changes a part. With partial false the editable fields are
// replaced; otherwise only provided fields change.
func (s *PartService) UpdatePart(ctx context.Context, user *domain.User, ticketID, partID int64, input PartInput, partial bool) (*domain.Part, error) {
	ticket, part, err := s.loadOwnedPart(ctx, user, auth.ActionUpdate, ticketID, partID)
	if err != nil {
		return nil, err
	}
	if err := checkMutable(ticket); err != nil {
		return nil, err
	}

	if !partial && input.Quantity == nil {
		one := 1
		input.Quantity = &one
	}
	applyPartInput(part, input, !partial)
	if err := part.Validate(); err != nil {
		return nil, fieldErrors(err)
	}

	action := fmt.Sprintf("Part updated: %s (Quantity: %d, Cost: $%s)", part.Name, part.Quantity, part.Cost.StringFixed(2))
	if err := s.writeWithHistory(ctx, ticket, user, action, func(tx repository.Repositories) error {
		return tx.Parts.Update(ctx, part)
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, partEvent(events.EventPartUpdated, user, part))
	return part, nil
}

// DeletePart removes a part from the ticket.
func (s *PartService) DeletePart(ctx context.Context, user *domain.User, ticketID, partID int64) (*domain.Part, error) {
	ticket, part, err := s.loadOwnedPart(ctx, user, auth.ActionDelete, ticketID, partID)
	if err != nil {
		return nil, err
	}
	if err := checkMutable(ticket); err != nil {
		return nil, err
	}

	if err := s.writeWithHistory(ctx, ticket, user, "Part deleted: "+part.Name, func(tx repository.Repositories) error {
		return tx.Parts.Delete(ctx, part.ID)
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, partEvent(events.EventPartDeleted, user, part))
	return part, nil
}

// loadOwnedPart resolves a part that exists, belongs to the ticket and is
// visible to the caller; every other case is reported as not found.
func (s *PartService) loadOwnedPart(ctx context.Context, user *domain.User, action auth.Action, ticketID, partID int64) (*domain.Ticket, *domain.Part, error) {
	repos := s.store.Repos()
	ticket, err := s.loadTicket(ctx, repos, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(user, auth.ResourcePart, action, ticket, "part"); err != nil {
		return nil, nil, err
	}
	part, err := repos.Parts.GetByID(ctx, partID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("part", map[string]any{"id": partID})
		}
		return nil, nil, fmt.Errorf("load part %d: %w", partID, err)
	}
	if part.TicketID != ticketID {
		return nil, nil, apperrors.NewNotFound("part", map[string]any{"id": partID})
	}
	return ticket, part, nil
}

func (s *PartService) writeWithHistory(ctx context.Context, ticket *domain.Ticket, user *domain.User, action string, mutate func(repository.Repositories) error) error {
	return s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := mutate(tx); err != nil {
			return fmt.Errorf("write part: %w", err)
		}
		return tx.History.Create(ctx, domain.NewHistoryEntry(ticket, truncate(action, 200), user.Ref()))
	})
}

func checkMutable(ticket *domain.Ticket) error {
	if ticket.IsFinal() {
		return apperrors.NewValidationError("parts cannot be changed on a ticket in a final status", map[string]any{
			"estado": ticket.Status.DisplayName(),
		})
	}
	return nil
}

// applyPartInput copies input onto part. With replace set, optional text
// fields that were not provided are cleared.
func applyPartInput(part *domain.Part, input PartInput, replace bool) {
	if input.Name != nil {
		part.Name = strings.TrimSpace(*input.Name)
	} else if replace {
		part.Name = ""
	}
	if input.Serial != nil || replace {
		part.Serial = blankToNil(input.Serial)
	}
	if input.EAN != nil || replace {
		part.EAN = blankToNil(input.EAN)
	}
	if input.RegistrationDate != nil {
		part.RegistrationDate = dateOnly(*input.RegistrationDate)
	}
	if input.Cost != nil {
		part.Cost = *input.Cost
	} else if replace {
		part.Cost = decimal.Zero
	}
	if input.Quantity != nil {
		part.Quantity = *input.Quantity
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func partEvent(eventType events.EventType, user *domain.User, part *domain.Part) events.Event {
	return events.New(eventType, part.TicketID, user.Ref(), events.PartPayload{
		PartID:    part.ID,
		Name:      part.Name,
		Quantity:  part.Quantity,
		CostTotal: part.CostTotal().StringFixed(2),
	})
}
