// Package store provides access to the shared reference models. The tables
// are seeded by migrations; this package only reads them.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"specregistry/internal/refmodel/models"
	"specregistry/pkg/pagination"
)

// PostgresStore reads the shared reference tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed reference model store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListCoreTerms returns one page of the core invoice model, in the model's
// own row order.
func (s *PostgresStore) ListCoreTerms(ctx context.Context, page pagination.Params) (pagination.PagedResult[models.CoreInvoiceTerm], error) {
	var zero pagination.PagedResult[models.CoreInvoiceTerm]
	page = page.Normalize()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM core_invoice_model`).Scan(&total); err != nil {
		return zero, fmt.Errorf("count core terms: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_term, level, cardinality, row_pos,
			semantic_description, data_type, parent_id
		FROM core_invoice_model
		ORDER BY row_pos ASC
		LIMIT $1 OFFSET $2`, page.PageSize, page.Offset())
	if err != nil {
		return zero, fmt.Errorf("list core terms: %w", err)
	}
	defer rows.Close()

	items := make([]models.CoreInvoiceTerm, 0)
	for rows.Next() {
		var t models.CoreInvoiceTerm
		if err := rows.Scan(&t.ID, &t.BusinessTerm, &t.Level, &t.Cardinality,
			&t.RowPos, &t.SemanticDescription, &t.DataType, &t.ParentID); err != nil {
			return zero, fmt.Errorf("scan core term: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("iterate core terms: %w", err)
	}
	return pagination.NewPagedResult(items, total, page.PageNumber, page.PageSize), nil
}

// ListExtensionHeaders returns every extension component header.
func (s *PostgresStore) ListExtensionHeaders(ctx context.Context) ([]models.ExtensionComponentHeader, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, link
		FROM extension_model_headers
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list extension headers: %w", err)
	}
	defer rows.Close()

	items := make([]models.ExtensionComponentHeader, 0)
	for rows.Next() {
		var h models.ExtensionComponentHeader
		if err := rows.Scan(&h.ID, &h.Name, &h.Status, &h.Link); err != nil {
			return nil, fmt.Errorf("scan extension header: %w", err)
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extension headers: %w", err)
	}
	return items, nil
}

// ListExtensionTerms returns the terms of one extension component.
func (s *PostgresStore) ListExtensionTerms(ctx context.Context, componentID string) ([]models.ExtensionTerm, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, extension_component_id, business_term_id, business_term,
			level, cardinality, semantic_description, data_type,
			extension_type, parent_id
		FROM extension_model_elements
		WHERE extension_component_id = $1
		ORDER BY business_term_id ASC`, componentID)
	if err != nil {
		return nil, fmt.Errorf("list extension terms: %w", err)
	}
	defer rows.Close()

	items := make([]models.ExtensionTerm, 0)
	for rows.Next() {
		var t models.ExtensionTerm
		if err := rows.Scan(&t.ID, &t.ExtensionComponentID, &t.BusinessTermID,
			&t.BusinessTerm, &t.Level, &t.Cardinality, &t.SemanticDescription,
			&t.DataType, &t.ExtensionType, &t.ParentID); err != nil {
			return nil, fmt.Errorf("scan extension term: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extension terms: %w", err)
	}
	return items, nil
}

// CoreTermExists reports whether a core-model entry exists.
func (s *PostgresStore) CoreTermExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM core_invoice_model WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("core term exists: %w", err)
	}
	return exists, nil
}

// ExtensionTermExists reports whether an extension-model entry exists for the
// (component, business term) composite.
func (s *PostgresStore) ExtensionTermExists(ctx context.Context, componentID, businessTermID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM extension_model_elements
			WHERE extension_component_id = $1 AND business_term_id = $2
		)`, componentID, businessTermID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("extension term exists: %w", err)
	}
	return exists, nil
}
