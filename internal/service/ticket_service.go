package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	base
}

// NewTicketService constructs the service.
func NewTicketService(deps Dependencies) *TicketService {
	return &TicketService{base: newBase(deps)}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Description     string
	Equipment       string
	Priority        *domain.TicketPriority
	EstimatedDate   *time.Time
	PartsNotes      *string
	StatusID        *int64
	AdministratorID *int64
	TechnicianID    *int64
	ClientID        *int64
}

// TicketUpdateInput carries the fields an administrator may change.
type TicketUpdateInput struct {
	Description        *string
	Equipment          *string
	Priority           *domain.TicketPriority
	EstimatedDate      *time.Time
	PartsNotes         *string
	StatusID           *int64
	TechnicianID       *int64
	UnassignTechnician bool
	ClientID           *int64
}

// TicketListFilter describes list query parameters.
type TicketListFilter struct {
	StatusCode   *string
	Priority     *domain.TicketPriority
	TechnicianID *int64
	Search       *string
	Page         int
	PageSize     int
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int
	Page     int
	PageSize int
}

// CreateTicket opens a ticket. A CLIENT becomes the ticket's client; an ADMIN
// becomes its administrator unless another one is given.
func (s *TicketService) CreateTicket(ctx context.Context, user *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.authorize(user, auth.ResourceTicket, auth.ActionCreate, nil, ""); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	ticket := &domain.Ticket{
		Description:   strings.TrimSpace(input.Description),
		Equipment:     strings.TrimSpace(input.Equipment),
		Priority:      domain.TicketPriorityMedium,
		EstimatedDate: input.EstimatedDate,
		PartsNotes:    input.PartsNotes,
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, validationError("prioridad", "unknown priority")
		}
		ticket.Priority = *input.Priority
	}

	status, err := s.resolveStatus(ctx, repos, input.StatusID)
	if err != nil {
		return nil, err
	}
	ticket.Status = *status

	if ticket.Technician, err = s.resolveUser(ctx, repos, input.TechnicianID, domain.RoleTech, "tecnico"); err != nil {
		return nil, err
	}
	switch user.Role {
	case domain.RoleClient:
		ticket.Client = user.Ref()
	default:
		if ticket.Client, err = s.resolveUser(ctx, repos, input.ClientID, domain.RoleClient, "cliente"); err != nil {
			return nil, err
		}
		if ticket.Administrator, err = s.resolveUser(ctx, repos, input.AdministratorID, domain.RoleAdmin, "administrador"); err != nil {
			return nil, err
		}
		if ticket.Administrator == nil && user.Role == domain.RoleAdmin {
			ticket.Administrator = user.Ref()
		}
	}

	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := tx.Tickets.Create(ctx, ticket); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}
		return tx.History.Create(ctx, domain.NewHistoryEntry(ticket, "Ticket created", user.Ref()))
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.EventTicketCreated, ticket.ID, user.Ref(), events.TicketCreatedPayload{
		Status:    ticket.Status.Code,
		Priority:  ticket.Priority,
		Equipment: ticket.Equipment,
	}))
	return ticket, nil
}

// ListTickets returns the page of tickets visible to user.
func (s *TicketService) ListTickets(ctx context.Context, user *domain.User, filter TicketListFilter) (*TicketPage, error) {
	if err := s.authorize(user, auth.ResourceTicket, auth.ActionList, nil, ""); err != nil {
		return nil, err
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, validationError("prioridad", "unknown priority")
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	repoFilter := repository.TicketFilter{
		TechnicianID: filter.TechnicianID,
		StatusCode:   filter.StatusCode,
		Priority:     filter.Priority,
		SearchTerm:   filter.Search,
		Limit:        size,
		Offset:       (page - 1) * size,
	}
	switch user.Role {
	case domain.RoleTech:
		repoFilter.TechnicianID = &user.ID
	case domain.RoleClient:
		repoFilter.ClientID = &user.ID
	}

	items, total, err := s.store.Repos().Tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	if items == nil {
		items = []domain.Ticket{}
	}
	return &TicketPage{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// GetTicket fetches a ticket the user participates in.
func (s *TicketService) GetTicket(ctx context.Context, user *domain.User, id int64) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, s.store.Repos(), id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(user, auth.ResourceTicket, auth.ActionRead, ticket, "ticket"); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateTicket applies input, records one history row describing the
// changeset and returns the stored ticket. Updates that change nothing write
// nothing.
func (s *TicketService) UpdateTicket(ctx context.Context, user *domain.User, id int64, input TicketUpdateInput) (*domain.Ticket, error) {
	repos := s.store.Repos()
	current, err := s.loadTicket(ctx, repos, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(user, auth.ResourceTicket, auth.ActionUpdate, current, ""); err != nil {
		return nil, err
	}

	patch, err := s.buildPatch(ctx, repos, input)
	if err != nil {
		return nil, err
	}
	next, changes := domain.Diff(*current, patch)
	if changes.Empty() {
		return current, nil
	}

	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := tx.Tickets.Update(ctx, &next); err != nil {
			return fmt.Errorf("update ticket %d: %w", id, err)
		}
		opts := []domain.HistoryOption{domain.WithPreviousStatus(changes.PreviousStatusName())}
		if changes.TechnicianChanged {
			opts = append(opts, domain.WithPreviousTechnician(changes.PreviousTechnician))
		}
		return tx.History.Create(ctx, domain.NewHistoryEntry(&next, truncate(changes.Action(), 200), user.Ref(), opts...))
	})
	if err != nil {
		return nil, err
	}

	var evts []events.Event
	if changes.StatusChanged() {
		evts = append(evts, events.New(events.EventTicketStatusChanged, next.ID, user.Ref(), events.TicketStatusChangedPayload{
			OldStatus: changes.PreviousStatus.Code,
			NewStatus: changes.NewStatus.Code,
		}))
	}
	if changes.TechnicianChanged {
		evts = append(evts, events.New(events.EventTicketTechnicianAssigned, next.ID, user.Ref(), events.TicketTechnicianAssignedPayload{
			PreviousTechnicianID: refID(changes.PreviousTechnician),
			TechnicianID:         refID(changes.NewTechnician),
		}))
	}
	s.publish(ctx, evts...)
	return &next, nil
}

// ListHistory returns the ticket's history, newest first.
func (s *TicketService) ListHistory(ctx context.Context, user *domain.User, id int64) ([]domain.TicketHistory, error) {
	repos := s.store.Repos()
	ticket, err := s.loadTicket(ctx, repos, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(user, auth.ResourceHistory, auth.ActionRead, ticket, "ticket"); err != nil {
		return nil, err
	}
	history, err := repos.History.ListByTicket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list history of ticket %d: %w", id, err)
	}
	if history == nil {
		history = []domain.TicketHistory{}
	}
	return history, nil
}

func (s *TicketService) buildPatch(ctx context.Context, repos repository.Repositories, input TicketUpdateInput) (domain.TicketPatch, error) {
	patch := domain.TicketPatch{
		Description:        trimmed(input.Description),
		Equipment:          trimmed(input.Equipment),
		EstimatedDate:      input.EstimatedDate,
		PartsNotes:         input.PartsNotes,
		UnassignTechnician: input.UnassignTechnician,
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return patch, validationError("prioridad", "unknown priority")
		}
		patch.Priority = input.Priority
	}
	if input.StatusID != nil {
		status, err := s.resolveStatus(ctx, repos, input.StatusID)
		if err != nil {
			return patch, err
		}
		patch.Status = status
	}
	var err error
	if patch.Technician, err = s.resolveUser(ctx, repos, input.TechnicianID, domain.RoleTech, "tecnico"); err != nil {
		return patch, err
	}
	if patch.Client, err = s.resolveUser(ctx, repos, input.ClientID, domain.RoleClient, "cliente"); err != nil {
		return patch, err
	}
	return patch, nil
}

// resolveStatus loads the status with id, defaulting to open when id is nil.
func (s *TicketService) resolveStatus(ctx context.Context, repos repository.Repositories, id *int64) (*domain.Status, error) {
	var (
		status *domain.Status
		err    error
	)
	if id == nil {
		status, err = repos.Statuses.GetByCode(ctx, domain.StatusCodeOpen)
	} else {
		status, err = repos.Statuses.GetByID(ctx, *id)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, validationError("estado", "unknown status")
		}
		return nil, fmt.Errorf("load status: %w", err)
	}
	return status, nil
}

func (s *TicketService) resolveUser(ctx context.Context, repos repository.Repositories, id *int64, role domain.Role, field string) (*domain.UserRef, error) {
	if id == nil {
		return nil, nil
	}
	user, err := repos.Users.GetByID(ctx, *id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, validationError(field, "unknown user")
		}
		return nil, fmt.Errorf("load user %d: %w", *id, err)
	}
	if user.Role != role {
		return nil, validationError(field, fmt.Sprintf("user must have role %s", role))
	}
	return user.Ref(), nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func refID(u *domain.UserRef) *int64 {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

