// Package testutil provides in-memory fakes shared by service and handler tests.
package testutil

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/repository"
)

// MemoryStore is a repository.UnitOfWork kept in memory. WithinTx restores
// the previous state when fn fails.
type MemoryStore struct {
	mu        sync.Mutex
	state     *memoryState
	Commits   int
	Rollbacks int

	// FailHistory, when set, is returned by every history Create.
	FailHistory error
}

type memoryState struct {
	statuses map[int64]domain.Status
	users    map[int64]domain.User
	tickets  map[int64]domain.Ticket
	parts    map[int64]domain.Part
	requests map[int64]domain.StateChangeRequest
	history  map[int64]domain.TicketHistory
	nextID   int64
}

func (s *memoryState) clone() *memoryState {
	return &memoryState{
		statuses: maps.Clone(s.statuses),
		users:    maps.Clone(s.users),
		tickets:  maps.Clone(s.tickets),
		parts:    maps.Clone(s.parts),
		requests: maps.Clone(s.requests),
		history:  maps.Clone(s.history),
		nextID:   s.nextID,
	}
}

func (s *memoryState) id() int64 {
	s.nextID++
	return s.nextID
}

// NewMemoryStore returns a store seeded with the default status catalog.
func NewMemoryStore() *MemoryStore {
	state := &memoryState{
		statuses: map[int64]domain.Status{},
		users:    map[int64]domain.User{},
		tickets:  map[int64]domain.Ticket{},
		parts:    map[int64]domain.Part{},
		requests: map[int64]domain.StateChangeRequest{},
		history:  map[int64]domain.TicketHistory{},
		nextID:   100,
	}
	for _, status := range domain.DefaultStatuses() {
		state.statuses[status.ID] = status
	}
	return &MemoryStore{state: state}
}

// Repos returns repositories over the current state.
func (m *MemoryStore) Repos() repository.Repositories {
	return repository.Repositories{
		Statuses:      &memStatuses{m},
		Users:         &memUsers{m},
		Tickets:       &memTickets{m},
		Parts:         &memParts{m},
		StateRequests: &memRequests{m},
		History:       &memHistory{m},
	}
}

// WithinTx runs fn and restores the prior state if it returns an error.
func (m *MemoryStore) WithinTx(_ context.Context, fn func(repository.Repositories) error) error {
	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m.Repos()); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.Rollbacks++
		m.mu.Unlock()
		return err
	}
	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	return nil
}

// AddUser stores u, assigning an id when zero.
func (m *MemoryStore) AddUser(u domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.state.id()
	}
	if u.Role == "" {
		u.Role = domain.RoleClient
	}
	m.state.users[u.ID] = u
	return &u
}

// AddTicket stores t, assigning an id and defaults when missing.
func (m *MemoryStore) AddTicket(t domain.Ticket) *domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.state.id()
	}
	if t.Status.ID == 0 {
		t.Status = m.state.statuses[1]
	}
	if t.Priority == "" {
		t.Priority = domain.TicketPriorityMedium
	}
	now := time.Now()
	t.OpenedAt, t.CreatedAt, t.UpdatedAt = now, now, now
	m.state.tickets[t.ID] = t
	return &t
}

// AddPart stores p, assigning an id when zero.
func (m *MemoryStore) AddPart(p domain.Part) *domain.Part {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.state.id()
	}
	m.state.parts[p.ID] = p
	return &p
}

// Ticket returns the stored ticket.
func (m *MemoryStore) Ticket(id int64) (domain.Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.tickets[id]
	return t, ok
}

// History returns the stored history of a ticket, oldest first.
func (m *MemoryStore) History(ticketID int64) []domain.TicketHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range m.state.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PartCount returns how many parts are stored.
func (m *MemoryStore) PartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.parts)
}

type memStatuses struct{ m *MemoryStore }

func (r *memStatuses) List(context.Context) ([]domain.Status, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := slices.Collect(maps.Values(r.m.state.statuses))
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memStatuses) GetByID(_ context.Context, id int64) (*domain.Status, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.state.statuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r *memStatuses) GetByCode(_ context.Context, code string) (*domain.Status, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.state.statuses {
		if s.Code == code {
			return &s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memStatuses) Upsert(_ context.Context, status domain.Status) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.state.statuses[status.ID] = status
	return nil
}

type memUsers struct{ m *MemoryStore }

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user.ID = r.m.state.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.m.state.users[user.ID] = *user
	return nil
}

func (r *memUsers) Update(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.m.state.users[user.ID] = *user
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memUsers) GetByDocument(_ context.Context, document string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Document == document })
}

func (r *memUsers) find(match func(domain.User) bool) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.state.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memTickets struct{ m *MemoryStore }

func (r *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ticket.ID = r.m.state.id()
	now := time.Now()
	ticket.OpenedAt, ticket.CreatedAt, ticket.UpdatedAt = now, now, now
	r.m.state.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.m.state.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTickets) UpdateStatus(_ context.Context, ticketID, statusID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.state.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Status = r.m.state.statuses[statusID]
	t.UpdatedAt = time.Now()
	r.m.state.tickets[ticketID] = t
	return nil
}

func (r *memTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.state.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r *memTickets) List(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.m.state.tickets {
		if f.TechnicianID != nil && !t.IsAssignedTo(*f.TechnicianID) {
			continue
		}
		if f.ClientID != nil && !t.IsClient(*f.ClientID) {
			continue
		}
		if f.StatusCode != nil && t.Status.Code != *f.StatusCode {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.SearchTerm != nil {
			term := strings.ToLower(*f.SearchTerm)
			if !strings.Contains(strings.ToLower(t.Description), term) && !strings.Contains(strings.ToLower(t.Equipment), term) {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	if f.Offset > 0 {
		out = out[min(f.Offset, len(out)):]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

type memParts struct{ m *MemoryStore }

func (r *memParts) Create(_ context.Context, part *domain.Part) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	part.ID = r.m.state.id()
	part.Cost = part.Cost.Round(2)
	part.CreatedAt = time.Now()
	part.UpdatedAt = part.CreatedAt
	r.m.state.parts[part.ID] = *part
	return nil
}

func (r *memParts) Update(_ context.Context, part *domain.Part) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.parts[part.ID]; !ok {
		return pgx.ErrNoRows
	}
	part.Cost = part.Cost.Round(2)
	part.UpdatedAt = time.Now()
	r.m.state.parts[part.ID] = *part
	return nil
}

func (r *memParts) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.parts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.m.state.parts, id)
	return nil
}

func (r *memParts) GetByID(_ context.Context, id int64) (*domain.Part, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.state.parts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *memParts) ListByTicket(_ context.Context, ticketID int64) ([]domain.Part, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.Part
	for _, p := range r.m.state.parts {
		if p.TicketID == ticketID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memRequests struct{ m *MemoryStore }

func (r *memRequests) Create(_ context.Context, req *domain.StateChangeRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if req.Status == "" {
		req.Status = domain.RequestStatusPending
	}
	for _, existing := range r.m.state.requests {
		if existing.TicketID == req.TicketID && existing.IsPending() {
			return repository.ErrDuplicatePending
		}
	}
	req.ID = r.m.state.id()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	r.m.state.requests[req.ID] = *req
	return nil
}

func (r *memRequests) GetByID(_ context.Context, id int64) (*domain.StateChangeRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.state.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &req, nil
}

func (r *memRequests) ListByTicket(_ context.Context, ticketID int64) ([]domain.StateChangeRequest, error) {
	return r.filter(func(req domain.StateChangeRequest) bool { return req.TicketID == ticketID }), nil
}

func (r *memRequests) List(_ context.Context, status *domain.RequestStatus) ([]domain.StateChangeRequest, error) {
	return r.filter(func(req domain.StateChangeRequest) bool { return status == nil || req.Status == *status }), nil
}

func (r *memRequests) HasPending(_ context.Context, ticketID int64) (bool, error) {
	pending := r.filter(func(req domain.StateChangeRequest) bool { return req.TicketID == ticketID && req.IsPending() })
	return len(pending) > 0, nil
}

func (r *memRequests) Resolve(_ context.Context, id int64, res repository.Resolution) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.state.requests[id]
	if !ok || !req.IsPending() {
		return repository.ErrNotPending
	}
	req.Status = res.Status
	req.ApprovedBy = res.ApprovedBy
	req.ApprovedAt = res.ApprovedAt
	req.RejectionReason = res.RejectionReason
	req.UpdatedAt = time.Now()
	r.m.state.requests[id] = req
	return nil
}

func (r *memRequests) filter(match func(domain.StateChangeRequest) bool) []domain.StateChangeRequest {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.StateChangeRequest
	for _, req := range r.m.state.requests {
		if match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type memHistory struct{ m *MemoryStore }

func (r *memHistory) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.FailHistory != nil {
		return r.m.FailHistory
	}
	entry.ID = r.m.state.id()
	entry.Date = time.Now()
	r.m.state.history[entry.ID] = *entry
	return nil
}

func (r *memHistory) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range r.m.state.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
