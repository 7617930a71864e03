package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/testutil"
	apperrors "github.com/tickethelp/repair-service/pkg/util"
)

type fixture struct {
	store      *testutil.MemoryStore
	cast       testutil.Cast
	dispatcher events.Dispatcher
	published  *[]events.EventType
	tickets    *TicketService
	parts      *PartService
	requests   *StateChangeService
	catalog    *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authz, err := auth.NewAuthorizer()
	require.NoError(t, err)

	store := testutil.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.EventType{}
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			*published = append(*published, e.Type)
			return nil
		})
	}

	deps := Dependencies{Store: store, Authorizer: authz, Dispatcher: dispatcher, Logger: zap.NewNop()}
	return &fixture{
		store:      store,
		cast:       testutil.SeedCast(store),
		dispatcher: dispatcher,
		published:  published,
		tickets:    NewTicketService(deps),
		parts:      NewPartService(deps),
		requests:   NewStateChangeService(deps),
		catalog:    NewCatalogService(deps),
	}
}

// assignedTicket stores a ticket assigned to the fixture's technician and
// client in the given status.
func (f *fixture) assignedTicket(code string) *domain.Ticket {
	return f.store.AddTicket(domain.Ticket{
		Administrator: f.cast.Admin.Ref(),
		Technician:    f.cast.Tech.Ref(),
		Client:        f.cast.Client.Ref(),
		Status:        testutil.Status(code),
		Description:   "Does not boot",
		Equipment:     "Laptop",
	})
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, code, domainErr.Code, "unexpected error: %v", err)
}

func ptr[T any](v T) *T {
	return &v
}
