package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tickethelp/repair-service/internal/domain"
)

// Resource names a guarded kind of object.
type Resource string

// Action names an operation on a resource.
type Action string

const (
	ResourceTicket       Resource = "ticket"
	ResourceHistory      Resource = "history"
	ResourcePart         Resource = "part"
	ResourceStateRequest Resource = "state_request"
	ResourceStatus       Resource = "status"
)

const (
	ActionCreate  Action = "create"
	ActionList    Action = "list"
	ActionListAll Action = "list_all"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Ownership is the relation a caller must hold with the ticket in scope.
type Ownership int

const (
	// OwnershipAny requires nothing beyond the role.
	OwnershipAny Ownership = iota
	// OwnershipAssignedTechnician requires the caller to be the ticket's technician.
	OwnershipAssignedTechnician
	// OwnershipParticipant admits ADMIN and OWNER, the assigned technician and
	// the ticket's client.
	OwnershipParticipant
)

// Rule binds a resource action to the roles allowed and an ownership check.
type Rule struct {
	Resource  Resource
	Action    Action
	Roles     []domain.Role
	Ownership Ownership
}

var allRoles = []domain.Role{domain.RoleAdmin, domain.RoleTech, domain.RoleClient, domain.RoleOwner}

// Rules is the complete access table of the service.
var Rules = []Rule{
	{ResourceTicket, ActionCreate, []domain.Role{domain.RoleAdmin, domain.RoleClient}, OwnershipAny},
	{ResourceTicket, ActionList, allRoles, OwnershipAny},
	{ResourceTicket, ActionRead, allRoles, OwnershipParticipant},
	{ResourceTicket, ActionUpdate, []domain.Role{domain.RoleAdmin}, OwnershipAny},

	{ResourceHistory, ActionRead, allRoles, OwnershipParticipant},

	{ResourcePart, ActionList, []domain.Role{domain.RoleTech}, OwnershipAssignedTechnician},
	{ResourcePart, ActionCreate, []domain.Role{domain.RoleTech}, OwnershipAssignedTechnician},
	{ResourcePart, ActionRead, []domain.Role{domain.RoleTech}, OwnershipAssignedTechnician},
	{ResourcePart, ActionUpdate, []domain.Role{domain.RoleTech}, OwnershipAssignedTechnician},
	{ResourcePart, ActionDelete, []domain.Role{domain.RoleTech}, OwnershipAssignedTechnician},

	{ResourceStateRequest, ActionCreate, []domain.Role{domain.RoleAdmin, domain.RoleTech}, OwnershipParticipant},
	{ResourceStateRequest, ActionRead, allRoles, OwnershipParticipant},
	{ResourceStateRequest, ActionListAll, []domain.Role{domain.RoleAdmin, domain.RoleOwner}, OwnershipAny},
	{ResourceStateRequest, ActionApprove, []domain.Role{domain.RoleAdmin}, OwnershipAny},
	{ResourceStateRequest, ActionReject, []domain.Role{domain.RoleAdmin}, OwnershipAny},

	{ResourceStatus, ActionRead, allRoles, OwnershipAny},
}

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

var (
	// ErrRoleDenied means the caller's role may not perform the action at all.
	ErrRoleDenied = errors.New("role not allowed")
	// ErrNotOwner means the role is allowed but the caller is unrelated to the ticket.
	ErrNotOwner = errors.New("caller is not related to the ticket")
)

type ruleKey struct {
	resource Resource
	action   Action
}

// Authorizer evaluates Rules: roles through a casbin enforcer, ownership
// against the ticket in scope.
type Authorizer struct {
	mu        sync.RWMutex
	enforcer  *casbin.Enforcer
	ownership map[ruleKey]Ownership
}

// NewAuthorizer loads Rules into an in-memory casbin enforcer.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	policies := make([][]string, 0, len(Rules)*len(allRoles))
	ownership := make(map[ruleKey]Ownership, len(Rules))
	for _, rule := range Rules {
		ownership[ruleKey{rule.Resource, rule.Action}] = rule.Ownership
		for _, role := range rule.Roles {
			policies = append(policies, []string{string(role), string(rule.Resource), string(rule.Action)})
		}
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("failed to add policies: %w", err)
	}

	return &Authorizer{enforcer: enforcer, ownership: ownership}, nil
}

// Authorize checks that user may perform action on resource. ticket is the
// ticket in scope, nil for operations without one.
func (a *Authorizer) Authorize(user *domain.User, resource Resource, action Action, ticket *domain.Ticket) error {
	if user == nil {
		return ErrRoleDenied
	}

	a.mu.RLock()
	allowed, err := a.enforcer.Enforce(string(user.Role), string(resource), string(action))
	ownership, known := a.ownership[ruleKey{resource, action}]
	a.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !allowed || !known {
		return fmt.Errorf("%w: %s may not %s %s", ErrRoleDenied, user.Role, action, resource)
	}

	if ownership == OwnershipAny || ticket == nil {
		return nil
	}
	if !owns(user, ticket, ownership) {
		return fmt.Errorf("%w: ticket %d", ErrNotOwner, ticket.ID)
	}
	return nil
}

func owns(user *domain.User, ticket *domain.Ticket, ownership Ownership) bool {
	switch ownership {
	case OwnershipAssignedTechnician:
		return ticket.IsAssignedTo(user.ID)
	case OwnershipParticipant:
		switch user.Role {
		case domain.RoleAdmin, domain.RoleOwner:
			return true
		case domain.RoleTech:
			return ticket.IsAssignedTo(user.ID)
		case domain.RoleClient:
			return ticket.IsClient(user.ID)
		}
		return false
	}
	return true
}
