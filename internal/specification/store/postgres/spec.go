// Package postgres implements the specification stores over PostgreSQL.
// Every query eagerly joins the owning group so reads never trigger
// per-row group lookups.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"specregistry/internal/platform/postgres"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/sentinel"
)

// SpecificationStore persists specification headers.
type SpecificationStore struct {
	db *sql.DB
}

// NewSpecificationStore constructs a PostgreSQL-backed specification store.
func NewSpecificationStore(db *sql.DB) *SpecificationStore {
	return &SpecificationStore{db: db}
}

const specColumns = `
	s.id, s.identifier, s.name, s.sector, s.sub_sector, s.purpose, s.version,
	s.contact_information, s.date_of_implementation, s.governing_entity,
	s.core_version, s.source_link, s.country, s.is_country_specification,
	s.underlying_specification, s.preferred_syntax, s.created_at, s.modified_at,
	s.implementation_status, s.registration_status, s.specification_type,
	s.conformance_level, s.user_group_id, COALESCE(g.name, '')`

const specFrom = `
	FROM specifications s
	LEFT JOIN user_groups g ON g.id = s.user_group_id`

// ListPaginated builds the filtered, sorted, paginated listing. Filters apply
// in a fixed order: status visibility, free-text search, child-membership
// subqueries, exact matches, then the sort switch.
func (s *SpecificationStore) ListPaginated(ctx context.Context, filter models.ListFilter, includeSubmittedAndInProgress bool) (pagination.PagedResult[models.Specification], error) {
	var zero pagination.PagedResult[models.Specification]
	page := filter.Page.Normalize()

	where, args := buildWhere(filter, includeSubmittedAndInProgress)

	var total int
	countQuery := `SELECT COUNT(*)` + specFrom + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return zero, fmt.Errorf("count specifications: %w", err)
	}

	query := `SELECT` + specColumns + specFrom + where + orderBy(filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("list specifications: %w", err)
	}
	defer rows.Close()

	items, err := scanSpecifications(rows)
	if err != nil {
		return zero, err
	}
	return pagination.NewPagedResult(items, total, page.PageNumber, page.PageSize), nil
}

// List returns all specifications (subject to the status visibility filter),
// newest modification first. Used for the by-group aggregate listing.
func (s *SpecificationStore) List(ctx context.Context, includeSubmittedAndInProgress bool) ([]models.Specification, error) {
	where := ""
	if !includeSubmittedAndInProgress {
		where = " WHERE " + statusVisibilityPredicate
	}
	query := `SELECT` + specColumns + specFrom + where + ` ORDER BY s.modified_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list specifications: %w", err)
	}
	defer rows.Close()
	return scanSpecifications(rows)
}

// ListByGroup returns every specification owned by a group, ordered by
// business identifier.
func (s *SpecificationStore) ListByGroup(ctx context.Context, groupID domain.UserGroupID) ([]models.Specification, error) {
	query := `SELECT` + specColumns + specFrom + ` WHERE s.user_group_id = $1 ORDER BY s.identifier`
	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list specifications by group: %w", err)
	}
	defer rows.Close()
	return scanSpecifications(rows)
}

// GetByID fetches a single specification with its owning group.
func (s *SpecificationStore) GetByID(ctx context.Context, id domain.SpecificationID) (*models.Specification, error) {
	query := `SELECT` + specColumns + specFrom + ` WHERE s.id = $1`
	row := s.db.QueryRowContext(ctx, query, id)
	spec, err := scanSpecification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get specification %d: %w", id, err)
	}
	return spec, nil
}

// Exists reports whether the specification exists.
func (s *SpecificationStore) Exists(ctx context.Context, id domain.SpecificationID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM specifications WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("specification exists: %w", err)
	}
	return exists, nil
}

// HasCoreElements reports whether any core element references the
// specification.
func (s *SpecificationStore) HasCoreElements(ctx context.Context, id domain.SpecificationID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM core_elements WHERE specification_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has core elements: %w", err)
	}
	return exists, nil
}

// HasExtensionElements reports whether any extension element references the
// specification.
func (s *SpecificationStore) HasExtensionElements(ctx context.Context, id domain.SpecificationID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM extension_elements WHERE specification_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has extension elements: %w", err)
	}
	return exists, nil
}

// Create inserts the specification and assigns its generated ID.
func (s *SpecificationStore) Create(ctx context.Context, spec *models.Specification) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO specifications (
			identifier, name, sector, sub_sector, purpose, version,
			contact_information, date_of_implementation, governing_entity,
			core_version, source_link, country, is_country_specification,
			underlying_specification, preferred_syntax, created_at, modified_at,
			implementation_status, registration_status, specification_type,
			conformance_level, user_group_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING id`,
		spec.Identifier, spec.Name, spec.Sector, spec.SubSector, spec.Purpose, spec.Version,
		spec.ContactInformation, spec.DateOfImplementation, spec.GoverningEntity,
		spec.CoreVersion, spec.SourceLink, spec.Country, spec.IsCountrySpecification,
		spec.UnderlyingSpecification, spec.PreferredSyntax, spec.CreatedAt, spec.ModifiedAt,
		string(spec.ImplementationStatus), string(spec.RegistrationStatus), spec.Type,
		spec.ConformanceLevel, groupIDValue(spec.GroupID),
	).Scan(&spec.ID)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("create specification: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("create specification: %w", err)
	}
	return nil
}

// Update rewrites every mutable column.
func (s *SpecificationStore) Update(ctx context.Context, spec *models.Specification) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE specifications SET
			identifier = $1, name = $2, sector = $3, sub_sector = $4,
			purpose = $5, version = $6, contact_information = $7,
			date_of_implementation = $8, governing_entity = $9, core_version = $10,
			source_link = $11, country = $12, is_country_specification = $13,
			underlying_specification = $14, preferred_syntax = $15, modified_at = $16,
			implementation_status = $17, registration_status = $18,
			specification_type = $19, conformance_level = $20, user_group_id = $21
		WHERE id = $22`,
		spec.Identifier, spec.Name, spec.Sector, spec.SubSector,
		spec.Purpose, spec.Version, spec.ContactInformation,
		spec.DateOfImplementation, spec.GoverningEntity, spec.CoreVersion,
		spec.SourceLink, spec.Country, spec.IsCountrySpecification,
		spec.UnderlyingSpecification, spec.PreferredSyntax, spec.ModifiedAt,
		string(spec.ImplementationStatus), string(spec.RegistrationStatus),
		spec.Type, spec.ConformanceLevel, groupIDValue(spec.GroupID), spec.ID,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("update specification: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("update specification %d: %w", spec.ID, err)
	}
	return notFoundWhenZero(res)
}

// Delete removes the specification. A referential rejection (a child row won
// the check-then-act race) surfaces as ErrForeignKey.
func (s *SpecificationStore) Delete(ctx context.Context, id domain.SpecificationID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM specifications WHERE id = $1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete specification: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("delete specification %d: %w", id, err)
	}
	return notFoundWhenZero(res)
}

// Touch refreshes the modification timestamp. Callers treat ErrNotFound as
// ignorable: the touch is best-effort by design.
func (s *SpecificationStore) Touch(ctx context.Context, id domain.SpecificationID, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE specifications SET modified_at = $1 WHERE id = $2`, now, id)
	if err != nil {
		return fmt.Errorf("touch specification %d: %w", id, err)
	}
	return notFoundWhenZero(res)
}

// statusVisibilityPredicate excludes submitted and in-progress rows; rows
// without a registration status stay visible.
const statusVisibilityPredicate = `(s.registration_status IS NULL
	OR LOWER(s.registration_status) NOT IN ('submitted', 'in progress'))`

func buildWhere(filter models.ListFilter, includeSubmittedAndInProgress bool) (string, []any) {
	var preds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !includeSubmittedAndInProgress {
		preds = append(preds, statusVisibilityPredicate)
	}
	if filter.SearchTerm != "" {
		p := arg("%" + filter.SearchTerm + "%")
		preds = append(preds, fmt.Sprintf(
			"(s.name ILIKE %[1]s OR s.purpose ILIKE %[1]s OR s.sector ILIKE %[1]s)", p))
	}
	if filter.CoreBusinessTermID != "" {
		preds = append(preds, fmt.Sprintf(
			`s.id IN (SELECT ce.specification_id FROM core_elements ce WHERE ce.business_term_id ILIKE %s)`,
			arg("%"+filter.CoreBusinessTermID+"%")))
	}
	if filter.ExtensionBusinessTermID != "" {
		preds = append(preds, fmt.Sprintf(
			`s.id IN (SELECT ee.specification_id FROM extension_elements ee WHERE ee.business_term_id ILIKE %s)`,
			arg("%"+filter.ExtensionBusinessTermID+"%")))
	}
	if filter.AddReqBusinessTermID != "" {
		preds = append(preds, fmt.Sprintf(
			`s.id IN (SELECT ar.specification_id FROM additional_requirements ar WHERE ar.business_term_id ILIKE %s)`,
			arg("%"+filter.AddReqBusinessTermID+"%")))
	}
	if filter.SpecificationType != "" {
		preds = append(preds, fmt.Sprintf("LOWER(s.specification_type) = LOWER(%s)", arg(filter.SpecificationType)))
	}
	if filter.Sector != "" {
		preds = append(preds, fmt.Sprintf("LOWER(s.sector) = LOWER(%s)", arg(filter.Sector)))
	}
	if filter.Country != "" {
		preds = append(preds, fmt.Sprintf("LOWER(s.country) = LOWER(%s)", arg(filter.Country)))
	}

	if len(preds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}

// orderBy translates the sort switch. Column names come from a fixed map,
// never from request input.
func orderBy(filter models.ListFilter) string {
	columns := map[models.SortField]string{
		models.SortByName:       "s.name",
		models.SortByPurpose:    "s.purpose",
		models.SortBySector:     "s.sector",
		models.SortByCountry:    "s.country",
		models.SortByType:       "s.specification_type",
		models.SortByModified:   "s.modified_at",
		models.SortByCreated:    "s.created_at",
		models.SortByIdentifier: "s.identifier",
	}
	col, ok := columns[filter.SortBy]
	if !ok {
		return " ORDER BY s.modified_at DESC"
	}
	dir := "ASC"
	if filter.SortOrder == pagination.SortDesc {
		dir = "DESC"
	}
	// Secondary key keeps pagination stable across equal values.
	return fmt.Sprintf(" ORDER BY %s %s, s.id ASC", col, dir)
}

func groupIDValue(id *domain.UserGroupID) any {
	if id == nil {
		return nil
	}
	return int(*id)
}

func notFoundWhenZero(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpecification(row rowScanner) (*models.Specification, error) {
	var spec models.Specification
	var groupID sql.NullInt64
	var implementationStatus, registrationStatus sql.NullString
	err := row.Scan(
		&spec.ID, &spec.Identifier, &spec.Name, &spec.Sector, &spec.SubSector,
		&spec.Purpose, &spec.Version, &spec.ContactInformation,
		&spec.DateOfImplementation, &spec.GoverningEntity, &spec.CoreVersion,
		&spec.SourceLink, &spec.Country, &spec.IsCountrySpecification,
		&spec.UnderlyingSpecification, &spec.PreferredSyntax,
		&spec.CreatedAt, &spec.ModifiedAt,
		&implementationStatus, &registrationStatus,
		&spec.Type, &spec.ConformanceLevel, &groupID, &spec.GroupName,
	)
	if err != nil {
		return nil, err
	}
	spec.ImplementationStatus = models.ImplementationStatus(implementationStatus.String)
	spec.RegistrationStatus = models.RegistrationStatus(registrationStatus.String)
	if groupID.Valid {
		gid := domain.UserGroupID(groupID.Int64)
		spec.GroupID = &gid
	}
	return &spec, nil
}

func scanSpecifications(rows *sql.Rows) ([]models.Specification, error) {
	items := make([]models.Specification, 0)
	for rows.Next() {
		spec, err := scanSpecification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan specification: %w", err)
		}
		items = append(items, *spec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specifications: %w", err)
	}
	return items, nil
}
