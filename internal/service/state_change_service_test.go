package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/events"
)

func TestRequestChange(t *testing.T) {
	f := newFixture(t)
	ticket := f.assignedTicket(domain.StatusCodeDiagnosis)

	req, err := f.requests.RequestChange(context.Background(), f.cast.Tech, ticket.ID, StateChangeInput{
		ToStatusID: 3,
		Reason:     ptr("diagnosis done"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, domain.StatusCodeDiagnosis, req.FromStatus.Code)
	assert.Equal(t, domain.StatusCodeInRepair, req.ToStatus.Code)
	assert.Equal(t, f.cast.Tech.ID, req.RequestedBy.ID)

	history := f.store.History(ticket.ID)
	require.Len(t, history, 1)
	assert.Equal(t, "State change requested: En diagnóstico -> En reparación", history[0].Action)
	assert.Contains(t, *f.published, events.EventStateRequestCreated)

	_, err = f.requests.RequestChange(context.Background(), f.cast.Admin, ticket.ID, StateChangeInput{ToStatusID: 4})
	requireCode(t, err, "CONFLICT")
}

func TestRequestChange_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		user     func(f *fixture) *domain.User
		toStatus int64
		wantCode string
	}{
		{"same status", func(f *fixture) *domain.User { return f.cast.Tech }, 2, "VALIDATION_FAILED"},
		{"unknown status", func(f *fixture) *domain.User { return f.cast.Tech }, 99, "VALIDATION_FAILED"},
		{"client cannot request", func(f *fixture) *domain.User { return f.cast.Client }, 3, "FORBIDDEN"},
		{"owner cannot request", func(f *fixture) *domain.User { return f.cast.Owner }, 3, "FORBIDDEN"},
		{"unassigned technician", func(f *fixture) *domain.User { return f.cast.OtherTech }, 3, "FORBIDDEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ticket := f.assignedTicket(domain.StatusCodeDiagnosis)
			_, err := f.requests.RequestChange(context.Background(), tt.user(f), ticket.ID, StateChangeInput{ToStatusID: tt.toStatus})
			requireCode(t, err, tt.wantCode)
			assert.Empty(t, f.store.History(ticket.ID))
		})
	}
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ticket := f.assignedTicket(domain.StatusCodeDiagnosis)
	req, err := f.requests.RequestChange(context.Background(), f.cast.Tech, ticket.ID, StateChangeInput{ToStatusID: 3})
	require.NoError(t, err)

	approved, err := f.requests.Approve(context.Background(), f.cast.Admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, f.cast.Admin.ID, approved.ApprovedBy.ID)
	assert.NotNil(t, approved.ApprovedAt)

	stored, ok := f.store.Ticket(ticket.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCodeInRepair, stored.Status.Code)

	history := f.store.History(ticket.ID)
	require.Len(t, history, 2)
	assert.Equal(t, "State change approved: En diagnóstico -> En reparación", history[1].Action)
	assert.Equal(t, "En reparación", history[1].Status)
	assert.Equal(t, "En diagnóstico", *history[1].PreviousStatus)

	_, err = f.requests.Approve(context.Background(), f.cast.Admin, req.ID)
	requireCode(t, err, "CONFLICT")
	_, err = f.requests.Reject(context.Background(), f.cast.Admin, req.ID, nil)
	requireCode(t, err, "CONFLICT")
	assert.Len(t, f.store.History(ticket.ID), 2)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ticket := f.assignedTicket(domain.StatusCodeDiagnosis)
	req, err := f.requests.RequestChange(context.Background(), f.cast.Tech, ticket.ID, StateChangeInput{ToStatusID: 4})
	require.NoError(t, err)

	rejected, err := f.requests.Reject(context.Background(), f.cast.Admin, req.ID, ptr("parts are in stock"))
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
	assert.Equal(t, "parts are in stock", *rejected.RejectionReason)
	assert.Nil(t, rejected.ApprovedBy)

	stored, _ := f.store.Ticket(ticket.ID)
	assert.Equal(t, domain.StatusCodeDiagnosis, stored.Status.Code)

	history := f.store.History(ticket.ID)
	require.Len(t, history, 2)
	assert.Equal(t, "State change rejected: En diagnóstico -> Esperando repuestos (parts are in stock)", history[1].Action)

	// a resolved request frees the ticket for a new one
	_, err = f.requests.RequestChange(context.Background(), f.cast.Tech, ticket.ID, StateChangeInput{ToStatusID: 4})
	require.NoError(t, err)
}

func TestResolve_Rejections(t *testing.T) {
	f := newFixture(t)
	ticket := f.assignedTicket(domain.StatusCodeDiagnosis)
	req, err := f.requests.RequestChange(context.Background(), f.cast.Tech, ticket.ID, StateChangeInput{ToStatusID: 3})
	require.NoError(t, err)

	_, err = f.requests.Approve(context.Background(), f.cast.Tech, req.ID)
	requireCode(t, err, "FORBIDDEN")
	_, err = f.requests.Reject(context.Background(), f.cast.Owner, req.ID, nil)
	requireCode(t, err, "FORBIDDEN")
	_, err = f.requests.Approve(context.Background(), f.cast.Admin, 9999)
	requireCode(t, err, "NOT_FOUND")
}

func TestListRequests(t *testing.T) {
	f := newFixture(t)
	first := f.assignedTicket(domain.StatusCodeDiagnosis)
	second := f.assignedTicket(domain.StatusCodeInRepair)
	req, err := f.requests.RequestChange(context.Background(), f.cast.Tech, first.ID, StateChangeInput{ToStatusID: 3})
	require.NoError(t, err)
	_, err = f.requests.RequestChange(context.Background(), f.cast.Tech, second.ID, StateChangeInput{ToStatusID: 5})
	require.NoError(t, err)
	_, err = f.requests.Approve(context.Background(), f.cast.Admin, req.ID)
	require.NoError(t, err)

	pending, err := f.requests.List(context.Background(), f.cast.Owner, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].TicketID)

	all, err := f.requests.List(context.Background(), f.cast.Admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.requests.List(context.Background(), f.cast.Admin, "done")
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.requests.List(context.Background(), f.cast.Tech, "")
	requireCode(t, err, "FORBIDDEN")

	forTicket, err := f.requests.ListForTicket(context.Background(), f.cast.Client, first.ID)
	require.NoError(t, err)
	assert.Len(t, forTicket, 1)
	_, err = f.requests.ListForTicket(context.Background(), f.cast.OtherTech, first.ID)
	requireCode(t, err, "NOT_FOUND")
}
