package domain

import (
	"strings"
	"time"
)

// Role enumerates the kinds of accounts that interact with tickets.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleTech   Role = "TECH"
	RoleClient Role = "CLIENT"
	RoleOwner  Role = "OWNER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTech, RoleClient, RoleOwner:
		return true
	}
	return false
}

// User is an account of the repair shop: staff, technicians, owners or clients.
type User struct {
	ID                 int64
	Document           string
	Email              string
	FirstName          string
	LastName           string
	Number             string
	Role               Role
	PasswordHash       string
	IsActive           bool
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Ref returns the lightweight reference stored on related records.
func (u *User) Ref() *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Document: u.Document, FullName: u.FullName()}
}

// UserRef is the subset of a user embedded in tickets, parts and history.
type UserRef struct {
	ID       int64
	Document string
	FullName string
}

// SameUser compares two optional references by identity.
func SameUser(a, b *UserRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

func refID(u *UserRef) *int64 {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
