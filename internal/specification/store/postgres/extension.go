package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"specregistry/internal/platform/postgres"
	refmodels "specregistry/internal/refmodel/models"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/sentinel"
)

// ExtensionElementStore persists the extension-element children of a
// specification.
type ExtensionElementStore struct {
	db *sql.DB
}

// NewExtensionElementStore constructs a PostgreSQL-backed extension-element
// store.
func NewExtensionElementStore(db *sql.DB) *ExtensionElementStore {
	return &ExtensionElementStore{db: db}
}

const extensionColumns = `
	ee.id, ee.specification_id, ee.extension_component_id, ee.business_term_id,
	ee.cardinality, ee.usage_note, ee.justification, ee.type_of_extension,
	t.id, t.extension_component_id, t.business_term_id, t.business_term,
	t.level, t.cardinality, t.semantic_description, t.data_type,
	t.extension_type, t.parent_id`

const extensionFrom = `
	FROM extension_elements ee
	JOIN extension_model_elements t
		ON t.extension_component_id = ee.extension_component_id
		AND t.business_term_id = ee.business_term_id`

// ListBySpecification returns one page of a specification's extension
// elements, ordered by component then term.
func (s *ExtensionElementStore) ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.ExtensionElement], error) {
	var zero pagination.PagedResult[models.ExtensionElement]
	page = page.Normalize()

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM extension_elements WHERE specification_id = $1`, specID).Scan(&total)
	if err != nil {
		return zero, fmt.Errorf("count extension elements: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT`+extensionColumns+extensionFrom+`
		WHERE ee.specification_id = $1
		ORDER BY ee.extension_component_id ASC, ee.business_term_id ASC, ee.id ASC
		LIMIT $2 OFFSET $3`, specID, page.PageSize, page.Offset())
	if err != nil {
		return zero, fmt.Errorf("list extension elements: %w", err)
	}
	defer rows.Close()

	items := make([]models.ExtensionElement, 0)
	for rows.Next() {
		el, err := scanExtensionElement(rows)
		if err != nil {
			return zero, err
		}
		items = append(items, *el)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("iterate extension elements: %w", err)
	}
	return pagination.NewPagedResult(items, total, page.PageNumber, page.PageSize), nil
}

// GetForSpecification fetches a single extension element with its
// shared-model term. The lookup is scoped to the parent: an ID that exists
// under another specification surfaces as ErrNotFound.
func (s *ExtensionElementStore) GetForSpecification(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) (*models.ExtensionElement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+extensionColumns+extensionFrom+` WHERE ee.id = $1 AND ee.specification_id = $2`, id, specID)
	el, err := scanExtensionElement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get extension element %d: %w", id, err)
	}
	return el, nil
}

// Create inserts the element and assigns its generated ID. A rejected
// composite term reference surfaces as ErrForeignKey.
func (s *ExtensionElementStore) Create(ctx context.Context, el *models.ExtensionElement) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO extension_elements (
			specification_id, extension_component_id, business_term_id,
			cardinality, usage_note, justification, type_of_extension
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		el.SpecificationID, el.ExtensionComponentID, el.BusinessTermID,
		el.Cardinality, el.UsageNote, el.Justification, el.TypeOfExtension,
	).Scan(&el.ID)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("create extension element: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("create extension element: %w", err)
	}
	return nil
}

// Update rewrites the element's mutable columns.
func (s *ExtensionElementStore) Update(ctx context.Context, el *models.ExtensionElement) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE extension_elements
		SET extension_component_id = $1, business_term_id = $2, cardinality = $3,
			usage_note = $4, justification = $5, type_of_extension = $6
		WHERE id = $7`,
		el.ExtensionComponentID, el.BusinessTermID, el.Cardinality,
		el.UsageNote, el.Justification, el.TypeOfExtension, el.ID,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("update extension element: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("update extension element %d: %w", el.ID, err)
	}
	return notFoundWhenZero(res)
}

// Delete removes the element.
func (s *ExtensionElementStore) Delete(ctx context.Context, id domain.ElementID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extension_elements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete extension element %d: %w", id, err)
	}
	return notFoundWhenZero(res)
}

func scanExtensionElement(row rowScanner) (*models.ExtensionElement, error) {
	var el models.ExtensionElement
	var term refmodels.ExtensionTerm
	err := row.Scan(
		&el.ID, &el.SpecificationID, &el.ExtensionComponentID, &el.BusinessTermID,
		&el.Cardinality, &el.UsageNote, &el.Justification, &el.TypeOfExtension,
		&term.ID, &term.ExtensionComponentID, &term.BusinessTermID, &term.BusinessTerm,
		&term.Level, &term.Cardinality, &term.SemanticDescription, &term.DataType,
		&term.ExtensionType, &term.ParentID,
	)
	if err != nil {
		return nil, err
	}
	el.Term = &term
	return &el, nil
}
