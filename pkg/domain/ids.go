// Package domain defines the typed identifiers and the caller identity value
// shared by every layer of the registry. Keeping them here avoids import
// cycles between stores, services, and transport.
package domain

import "strconv"

// SpecificationID identifies a specification header row.
type SpecificationID int

// ElementID identifies a surrogate-keyed child element (core or extension).
type ElementID int

// UserID identifies a registry user.
type UserID int

// UserGroupID identifies a user group, the unit of write ownership.
type UserGroupID int

func (id SpecificationID) String() string { return strconv.Itoa(int(id)) }
func (id ElementID) String() string       { return strconv.Itoa(int(id)) }
func (id UserID) String() string          { return strconv.Itoa(int(id)) }
func (id UserGroupID) String() string     { return strconv.Itoa(int(id)) }
