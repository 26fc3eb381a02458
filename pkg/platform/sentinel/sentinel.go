// Package sentinel defines factual errors returned by stores. Services
// translate them into domain errors; stores never import the domain-error
// package so the dependency points one way only.
package sentinel

import "errors"

var (
	// ErrNotFound: the row does not exist (or not under the given parent).
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
	// ErrForeignKey: a referential constraint rejected the write, e.g.
	// deleting a group that still owns users or specifications.
	ErrForeignKey = errors.New("foreign key violation")
)
