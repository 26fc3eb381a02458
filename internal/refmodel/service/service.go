// Package service exposes read access to the shared reference models.
package service

import (
	"context"

	"specregistry/internal/refmodel/models"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/pagination"
)

// Store reads the shared reference tables.
type Store interface {
	ListCoreTerms(ctx context.Context, page pagination.Params) (pagination.PagedResult[models.CoreInvoiceTerm], error)
	ListExtensionHeaders(ctx context.Context) ([]models.ExtensionComponentHeader, error)
	ListExtensionTerms(ctx context.Context, componentID string) ([]models.ExtensionTerm, error)
}

// Service exposes the shared reference models.
type Service struct {
	store Store
}

// New constructs a Service.
func New(store Store) *Service {
	return &Service{store: store}
}

// CoreTerms returns one page of the core invoice model.
func (s *Service) CoreTerms(ctx context.Context, page pagination.Params) (pagination.PagedResult[models.CoreInvoiceTerm], error) {
	result, err := s.store.ListCoreTerms(ctx, page)
	if err != nil {
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list core invoice model")
	}
	return result, nil
}

// ExtensionHeaders returns every extension component header.
func (s *Service) ExtensionHeaders(ctx context.Context) ([]models.ExtensionComponentHeader, error) {
	items, err := s.store.ListExtensionHeaders(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list extension headers")
	}
	return items, nil
}

// ExtensionTerms returns the terms of one component. An unknown component
// yields an empty list, not an error.
func (s *Service) ExtensionTerms(ctx context.Context, componentID string) ([]models.ExtensionTerm, error) {
	items, err := s.store.ListExtensionTerms(ctx, componentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list extension terms")
	}
	return items, nil
}
