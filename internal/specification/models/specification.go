// Package models defines the specification aggregate and its child rows.
package models

import (
	"strings"
	"time"

	"specregistry/pkg/domain"
)

// RegistrationStatus is the review lifecycle label of a specification. Values
// are free-form at rest; comparisons are case-insensitive. The empty string
// means "no status recorded" and is always publicly visible.
type RegistrationStatus string

const (
	RegistrationSubmitted   RegistrationStatus = "Submitted"
	RegistrationInProgress  RegistrationStatus = "In Progress"
	RegistrationUnderReview RegistrationStatus = "Under Review"
	RegistrationVerified    RegistrationStatus = "Verified"
)

// Is compares statuses case-insensitively.
func (s RegistrationStatus) Is(other RegistrationStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

// HiddenFromPublic reports whether public listings must exclude this status.
// Only "submitted" and "in progress" are hidden; an absent status is not.
// This is a visibility policy, not a write-access boundary.
func (s RegistrationStatus) HiddenFromPublic() bool {
	return s.Is(RegistrationSubmitted) || s.Is(RegistrationInProgress)
}

// ImplementationStatus tracks rollout of the specification. Free-form at
// rest; only read for filtering and display.
type ImplementationStatus string

const (
	ImplementationPlanned     ImplementationStatus = "Planned"
	ImplementationInProgress  ImplementationStatus = "In Progress"
	ImplementationImplemented ImplementationStatus = "Implemented"
)

// Specification is the aggregate root describing one invoice specification.
//
// Invariants:
//   - ModifiedAt >= CreatedAt
//   - ModifiedAt is refreshed whenever the row or any of its children change
//   - GroupID, when set, references an existing user group (enforced by the
//     store's foreign key)
type Specification struct {
	ID         domain.SpecificationID `json:"identityId"`
	Identifier string                 `json:"specificationIdentifier"`
	Name       string                 `json:"specificationName"`
	Sector     string                 `json:"sector"`
	SubSector  *string                `json:"subSector,omitempty"`
	Purpose    string                 `json:"purpose"`
	Version    *string                `json:"specificationVersion,omitempty"`

	ContactInformation      string     `json:"contactInformation"`
	DateOfImplementation    *time.Time `json:"dateOfImplementation,omitempty"`
	GoverningEntity         *string    `json:"governingEntity,omitempty"`
	CoreVersion             *string    `json:"coreVersion,omitempty"`
	SourceLink              *string    `json:"specificationSourceLink,omitempty"`
	Country                 *string    `json:"country,omitempty"`
	IsCountrySpecification  bool       `json:"isCountrySpecification"`
	UnderlyingSpecification *string    `json:"underlyingSpecificationIdentifier,omitempty"`
	PreferredSyntax         *string    `json:"preferredSyntax,omitempty"`

	CreatedAt  time.Time `json:"createdDate"`
	ModifiedAt time.Time `json:"modifiedDate"`

	ImplementationStatus ImplementationStatus `json:"implementationStatus"`
	RegistrationStatus   RegistrationStatus   `json:"registrationStatus"`
	Type                 string               `json:"specificationType"`
	ConformanceLevel     string               `json:"conformanceLevel"`

	// GroupID is the owning group; nil means unowned (admin-created and not
	// yet assigned). GroupName is the joined group name, loaded eagerly on
	// every read that exposes a governing entity.
	GroupID   *domain.UserGroupID `json:"userGroupId,omitempty"`
	GroupName string              `json:"userGroupName,omitempty"`
}

// OwnedBy reports whether the specification is owned by the given group.
func (s *Specification) OwnedBy(groupID *domain.UserGroupID) bool {
	return s.GroupID != nil && groupID != nil && *s.GroupID == *groupID
}
