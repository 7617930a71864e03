package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethelp/repair-service/internal/domain"
)

func TestAuthorizer(t *testing.T) {
	authz, err := NewAuthorizer()
	require.NoError(t, err)

	admin := &domain.User{ID: 1, Role: domain.RoleAdmin}
	tech := &domain.User{ID: 2, Role: domain.RoleTech}
	otherTech := &domain.User{ID: 5, Role: domain.RoleTech}
	client := &domain.User{ID: 3, Role: domain.RoleClient}
	owner := &domain.User{ID: 4, Role: domain.RoleOwner}
	otherClient := &domain.User{ID: 8, Role: domain.RoleClient}

	ticket := &domain.Ticket{
		ID:         7,
		Technician: &domain.UserRef{ID: 2},
		Client:     &domain.UserRef{ID: 3},
	}

	tests := []struct {
		name     string
		user     *domain.User
		resource Resource
		action   Action
		ticket   *domain.Ticket
		want     error
	}{
		{"admin creates ticket", admin, ResourceTicket, ActionCreate, nil, nil},
		{"client creates ticket", client, ResourceTicket, ActionCreate, nil, nil},
		{"tech cannot create ticket", tech, ResourceTicket, ActionCreate, nil, ErrRoleDenied},
		{"owner reads any ticket", owner, ResourceTicket, ActionRead, ticket, nil},
		{"client reads own ticket", client, ResourceTicket, ActionRead, ticket, nil},
		{"other tech cannot read ticket", otherTech, ResourceTicket, ActionRead, ticket, ErrNotOwner},
		{"assigned tech reads ticket", tech, ResourceTicket, ActionRead, ticket, nil},
		{"admin reads any ticket", admin, ResourceTicket, ActionRead, ticket, nil},
		{"other client cannot read ticket", otherClient, ResourceTicket, ActionRead, ticket, ErrNotOwner},
		{"only admin updates ticket", tech, ResourceTicket, ActionUpdate, ticket, ErrRoleDenied},
		{"assigned tech registers part", tech, ResourcePart, ActionCreate, ticket, nil},
		{"other tech cannot register part", otherTech, ResourcePart, ActionCreate, ticket, ErrNotOwner},
		{"admin cannot register part", admin, ResourcePart, ActionCreate, ticket, ErrRoleDenied},
		{"assigned tech requests change", tech, ResourceStateRequest, ActionCreate, ticket, nil},
		{"client cannot request change", client, ResourceStateRequest, ActionCreate, ticket, ErrRoleDenied},
		{"admin approves", admin, ResourceStateRequest, ActionApprove, nil, nil},
		{"owner cannot approve", owner, ResourceStateRequest, ActionApprove, nil, ErrRoleDenied},
		{"owner lists all requests", owner, ResourceStateRequest, ActionListAll, nil, nil},
		{"client reads history of own ticket", client, ResourceHistory, ActionRead, ticket, nil},
		{"anyone reads statuses", client, ResourceStatus, ActionRead, nil, nil},
		{"unknown action", admin, ResourceStatus, ActionDelete, nil, ErrRoleDenied},
		{"nil user", nil, ResourceStatus, ActionRead, nil, ErrRoleDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.Authorize(tt.user, tt.resource, tt.action, tt.ticket)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
