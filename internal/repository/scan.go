package repository

import (
	"strings"

	"github.com/tickethelp/repair-service/internal/domain"
)

// userColumns selects id, document and names of a joined user alias.
func userColumns(alias string) string {
	return alias + ".id, " + alias + ".document, " + alias + ".first_name, " + alias + ".last_name"
}

// nullableUser scans the columns produced by userColumns for a LEFT JOIN.
type nullableUser struct {
	ID        *int64
	Document  *string
	FirstName *string
	LastName  *string
}

func (n *nullableUser) targets() []any {
	return []any{&n.ID, &n.Document, &n.FirstName, &n.LastName}
}

func (n *nullableUser) ref() *domain.UserRef {
	if n.ID == nil {
		return nil
	}
	ref := &domain.UserRef{ID: *n.ID}
	if n.Document != nil {
		ref.Document = *n.Document
	}
	var first, last string
	if n.FirstName != nil {
		first = *n.FirstName
	}
	if n.LastName != nil {
		last = *n.LastName
	}
	ref.FullName = strings.TrimSpace(first + " " + last)
	return ref
}

func statusTargets(s *domain.Status) []any {
	return []any{&s.ID, &s.Code, &s.Name, &s.IsActive, &s.IsFinal}
}

func statusColumns(alias string) string {
	return alias + ".id, " + alias + ".code, " + alias + ".name, " + alias + ".is_active, " + alias + ".is_final"
}

func refID(u *domain.UserRef) *int64 {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
