// Package audit captures structured audit events for registry mutations.
// Events are emitted from domain logic and fanned out to a sink; publishing
// never blocks or fails the triggering request.
package audit

import (
	"time"

	"specregistry/pkg/domain"
)

// Action names the audited operation.
type Action string

const (
	ActionSpecificationCreated Action = "specification.created"
	ActionSpecificationUpdated Action = "specification.updated"
	ActionSpecificationDeleted Action = "specification.deleted"
	ActionSpecificationMoved   Action = "specification.group_assigned"

	ActionCoreElementAdded   Action = "core_element.added"
	ActionCoreElementUpdated Action = "core_element.updated"
	ActionCoreElementDeleted Action = "core_element.deleted"

	ActionExtensionElementAdded   Action = "extension_element.added"
	ActionExtensionElementUpdated Action = "extension_element.updated"
	ActionExtensionElementDeleted Action = "extension_element.deleted"

	ActionRequirementAdded   Action = "additional_requirement.added"
	ActionRequirementUpdated Action = "additional_requirement.updated"
	ActionRequirementDeleted Action = "additional_requirement.deleted"

	ActionUserRegistered Action = "user.registered"
	ActionUserLoggedIn   Action = "user.logged_in"
	ActionGroupCreated   Action = "user_group.created"
	ActionGroupUpdated   Action = "user_group.updated"
	ActionGroupDeleted   Action = "user_group.deleted"
)

// Event is one audit record. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp       time.Time              `json:"timestamp"`
	Action          Action                 `json:"action"`
	UserID          domain.UserID          `json:"userId,omitempty"`
	Role            domain.Role            `json:"role,omitempty"`
	SpecificationID domain.SpecificationID `json:"specificationId,omitempty"`
	BusinessTermID  string                 `json:"businessTermId,omitempty"`
	RequestID       string                 `json:"requestId,omitempty"`
	ClientIP        string                 `json:"clientIp,omitempty"`
	UserAgent       string                 `json:"userAgent,omitempty"`
	Detail          string                 `json:"detail,omitempty"`
}
