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

// CoreElementStore persists the core-element children of a specification.
type CoreElementStore struct {
	db *sql.DB
}

// NewCoreElementStore constructs a PostgreSQL-backed core-element store.
func NewCoreElementStore(db *sql.DB) *CoreElementStore {
	return &CoreElementStore{db: db}
}

const coreColumns = `
	ce.id, ce.specification_id, ce.business_term_id, ce.cardinality,
	ce.usage_note, ce.type_of_change,
	t.id, t.business_term, t.level, t.cardinality, t.row_pos,
	t.semantic_description, t.data_type, t.parent_id`

const coreFrom = `
	FROM core_elements ce
	JOIN core_invoice_model t ON t.id = ce.business_term_id`

// ListBySpecification returns one page of a specification's core elements,
// ordered by the shared model's row position so listings follow the model's
// own layout.
func (s *CoreElementStore) ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.CoreElement], error) {
	var zero pagination.PagedResult[models.CoreElement]
	page = page.Normalize()

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM core_elements WHERE specification_id = $1`, specID).Scan(&total)
	if err != nil {
		return zero, fmt.Errorf("count core elements: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT`+coreColumns+coreFrom+`
		WHERE ce.specification_id = $1
		ORDER BY t.row_pos ASC, ce.id ASC
		LIMIT $2 OFFSET $3`, specID, page.PageSize, page.Offset())
	if err != nil {
		return zero, fmt.Errorf("list core elements: %w", err)
	}
	defer rows.Close()

	items := make([]models.CoreElement, 0)
	for rows.Next() {
		el, err := scanCoreElement(rows)
		if err != nil {
			return zero, err
		}
		items = append(items, *el)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("iterate core elements: %w", err)
	}
	return pagination.NewPagedResult(items, total, page.PageNumber, page.PageSize), nil
}

// GetForSpecification fetches a single core element with its shared-model
// term. The lookup is scoped to the parent: an ID that exists under another
// specification surfaces as ErrNotFound.
func (s *CoreElementStore) GetForSpecification(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) (*models.CoreElement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+coreColumns+coreFrom+` WHERE ce.id = $1 AND ce.specification_id = $2`, id, specID)
	el, err := scanCoreElement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get core element %d: %w", id, err)
	}
	return el, nil
}

// Create inserts the element and assigns its generated ID. A rejected term
// reference surfaces as ErrForeignKey.
func (s *CoreElementStore) Create(ctx context.Context, el *models.CoreElement) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO core_elements (specification_id, business_term_id, cardinality, usage_note, type_of_change)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		el.SpecificationID, el.BusinessTermID, el.Cardinality, el.UsageNote, el.TypeOfChange,
	).Scan(&el.ID)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("create core element: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("create core element: %w", err)
	}
	return nil
}

// Update rewrites the element's mutable columns.
func (s *CoreElementStore) Update(ctx context.Context, el *models.CoreElement) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE core_elements
		SET business_term_id = $1, cardinality = $2, usage_note = $3, type_of_change = $4
		WHERE id = $5`,
		el.BusinessTermID, el.Cardinality, el.UsageNote, el.TypeOfChange, el.ID,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("update core element: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("update core element %d: %w", el.ID, err)
	}
	return notFoundWhenZero(res)
}

// Delete removes the element.
func (s *CoreElementStore) Delete(ctx context.Context, id domain.ElementID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM core_elements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete core element %d: %w", id, err)
	}
	return notFoundWhenZero(res)
}

func scanCoreElement(row rowScanner) (*models.CoreElement, error) {
	var el models.CoreElement
	var term refmodels.CoreInvoiceTerm
	err := row.Scan(
		&el.ID, &el.SpecificationID, &el.BusinessTermID, &el.Cardinality,
		&el.UsageNote, &el.TypeOfChange,
		&term.ID, &term.BusinessTerm, &term.Level, &term.Cardinality, &term.RowPos,
		&term.SemanticDescription, &term.DataType, &term.ParentID,
	)
	if err != nil {
		return nil, err
	}
	el.Term = &term
	return &el, nil
}
