// Package models defines user groups, the ownership unit for
// specifications. Every non-admin user belongs to at most one group, and a
// group collectively owns the specifications registered under it.
package models

import (
	"strings"
	"time"

	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
)

// UserGroup is one ownership group.
type UserGroup struct {
	ID          domain.UserGroupID `json:"userGroupId"`
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	CreatedAt   time.Time          `json:"createdDate"`
}

// Normalize trims user-provided fields.
func (g *UserGroup) Normalize() {
	g.Name = strings.TrimSpace(g.Name)
	if g.Description != nil {
		trimmed := strings.TrimSpace(*g.Description)
		if trimmed == "" {
			g.Description = nil
		} else {
			g.Description = &trimmed
		}
	}
}

// Validate checks the invariants a group must satisfy before persisting.
func (g *UserGroup) Validate() error {
	if g.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "group name is required")
	}
	if len(g.Name) > 200 {
		return dErrors.New(dErrors.CodeBadRequest, "group name must be at most 200 characters")
	}
	return nil
}
