// Package models defines registry user accounts.
package models

import (
	"net/mail"
	"strings"
	"time"

	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
)

// User is one registry account. PasswordHash is a bcrypt hash and never
// leaves the service layer.
type User struct {
	ID           domain.UserID       `json:"userId"`
	Email        string              `json:"email"`
	Name         string              `json:"name"`
	PasswordHash string              `json:"-"`
	Role         domain.Role         `json:"role"`
	GroupID      *domain.UserGroupID `json:"userGroupId,omitempty"`
	Active       bool                `json:"active"`
	CreatedAt    time.Time           `json:"createdDate"`
	LastLogin    *time.Time          `json:"lastLogin,omitempty"`

	// RefreshToken is the opaque rotating credential for token renewal.
	// Like the password hash it never leaves the service layer.
	RefreshToken       *string    `json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Normalize trims and lowercases identity fields.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

// Validate checks registration invariants.
func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "email is not valid")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the payload for rotating an access token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse carries an issued access token and its rotating refresh
// token.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
