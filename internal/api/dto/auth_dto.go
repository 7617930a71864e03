package dto

import (
	"time"

	"github.com/tickethelp/repair-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse exposes the public profile of an account.
type UserResponse struct {
	ID                 int64       `json:"id"`
	Document           string      `json:"document"`
	Email              string      `json:"email"`
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Number             string      `json:"number,omitempty"`
	Role               domain.Role `json:"role"`
	MustChangePassword bool        `json:"must_change_password"`
}

// UserRefResponse is the compact user embedded in other resources.
type UserRefResponse struct {
	ID       int64  `json:"id"`
	Document string `json:"document"`
	Nombre   string `json:"nombre"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Document:           u.Document,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Number:             u.Number,
		Role:               u.Role,
		MustChangePassword: u.MustChangePassword,
	}
}

// NewUserRef maps an optional reference.
func NewUserRef(u *domain.UserRef) *UserRefResponse {
	if u == nil {
		return nil
	}
	return &UserRefResponse{ID: u.ID, Document: u.Document, Nombre: u.FullName}
}
