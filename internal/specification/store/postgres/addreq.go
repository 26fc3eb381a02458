package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"specregistry/internal/platform/postgres"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/sentinel"
)

// AdditionalRequirementStore persists the free-form requirement children of a
// specification. Rows are keyed by (specification, business term), so an
// insert colliding on that pair surfaces as ErrConflict.
type AdditionalRequirementStore struct {
	db *sql.DB
}

// NewAdditionalRequirementStore constructs a PostgreSQL-backed additional
// requirement store.
func NewAdditionalRequirementStore(db *sql.DB) *AdditionalRequirementStore {
	return &AdditionalRequirementStore{db: db}
}

const addReqColumns = `
	specification_id, business_term_id, business_term_name, level, cardinality,
	row_pos, semantic_description, usage_note, data_type, business_rules,
	type_of_change`

// ListBySpecification returns one page of a specification's additional
// requirements, ordered by row position.
func (s *AdditionalRequirementStore) ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.AdditionalRequirement], error) {
	var zero pagination.PagedResult[models.AdditionalRequirement]
	page = page.Normalize()

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM additional_requirements WHERE specification_id = $1`, specID).Scan(&total)
	if err != nil {
		return zero, fmt.Errorf("count additional requirements: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT`+addReqColumns+`
		FROM additional_requirements
		WHERE specification_id = $1
		ORDER BY row_pos ASC, business_term_id ASC
		LIMIT $2 OFFSET $3`, specID, page.PageSize, page.Offset())
	if err != nil {
		return zero, fmt.Errorf("list additional requirements: %w", err)
	}
	defer rows.Close()

	items := make([]models.AdditionalRequirement, 0)
	for rows.Next() {
		req, err := scanAdditionalRequirement(rows)
		if err != nil {
			return zero, err
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("iterate additional requirements: %w", err)
	}
	return pagination.NewPagedResult(items, total, page.PageNumber, page.PageSize), nil
}

// Get fetches one requirement by its natural key.
func (s *AdditionalRequirementStore) Get(ctx context.Context, specID domain.SpecificationID, businessTermID string) (*models.AdditionalRequirement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+addReqColumns+`
		FROM additional_requirements
		WHERE specification_id = $1 AND business_term_id = $2`, specID, businessTermID)
	req, err := scanAdditionalRequirement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get additional requirement: %w", err)
	}
	return req, nil
}

// Create inserts the requirement. A duplicate natural key surfaces as
// ErrConflict.
func (s *AdditionalRequirementStore) Create(ctx context.Context, req *models.AdditionalRequirement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO additional_requirements (`+addReqColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.SpecificationID, req.BusinessTermID, req.BusinessTermName, req.Level,
		req.Cardinality, req.RowPos, req.SemanticDescription, req.UsageNote,
		req.DataType, req.BusinessRules, req.TypeOfChange,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create additional requirement: %w", sentinel.ErrConflict)
		}
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("create additional requirement: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("create additional requirement: %w", err)
	}
	return nil
}

// Update rewrites the requirement's mutable columns. The natural key itself
// is immutable; callers replace the row to rename a term.
func (s *AdditionalRequirementStore) Update(ctx context.Context, req *models.AdditionalRequirement) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE additional_requirements SET
			business_term_name = $1, level = $2, cardinality = $3, row_pos = $4,
			semantic_description = $5, usage_note = $6, data_type = $7,
			business_rules = $8, type_of_change = $9
		WHERE specification_id = $10 AND business_term_id = $11`,
		req.BusinessTermName, req.Level, req.Cardinality, req.RowPos,
		req.SemanticDescription, req.UsageNote, req.DataType,
		req.BusinessRules, req.TypeOfChange,
		req.SpecificationID, req.BusinessTermID,
	)
	if err != nil {
		return fmt.Errorf("update additional requirement: %w", err)
	}
	return notFoundWhenZero(res)
}

// Delete removes one requirement by its natural key.
func (s *AdditionalRequirementStore) Delete(ctx context.Context, specID domain.SpecificationID, businessTermID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM additional_requirements WHERE specification_id = $1 AND business_term_id = $2`,
		specID, businessTermID)
	if err != nil {
		return fmt.Errorf("delete additional requirement: %w", err)
	}
	return notFoundWhenZero(res)
}

func scanAdditionalRequirement(row rowScanner) (*models.AdditionalRequirement, error) {
	var req models.AdditionalRequirement
	err := row.Scan(
		&req.SpecificationID, &req.BusinessTermID, &req.BusinessTermName,
		&req.Level, &req.Cardinality, &req.RowPos, &req.SemanticDescription,
		&req.UsageNote, &req.DataType, &req.BusinessRules, &req.TypeOfChange,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
