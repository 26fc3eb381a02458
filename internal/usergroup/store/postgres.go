// Package store persists user groups.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"specregistry/internal/platform/postgres"
	"specregistry/internal/usergroup/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/platform/sentinel"
)

// PostgresStore is the PostgreSQL-backed group store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed group store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the group and assigns its generated ID. A duplicate name
// surfaces as ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, group *models.UserGroup) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_groups (name, description, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		group.Name, group.Description, group.CreatedAt,
	).Scan(&group.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create user group: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create user group: %w", err)
	}
	return nil
}

// Update rewrites the group's name and description. A duplicate name surfaces
// as ErrConflict; a missing group as ErrNotFound.
func (s *PostgresStore) Update(ctx context.Context, group *models.UserGroup) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_groups SET name = $1, description = $2
		WHERE id = $3`,
		group.Name, group.Description, group.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("update user group: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update user group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user group: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete removes a group. A group still referenced by users or specifications
// surfaces as ErrForeignKey.
func (s *PostgresStore) Delete(ctx context.Context, id domain.UserGroupID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_groups WHERE id = $1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete user group: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("delete user group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user group: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// GetByID fetches one group.
func (s *PostgresStore) GetByID(ctx context.Context, id domain.UserGroupID) (*models.UserGroup, error) {
	var group models.UserGroup
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM user_groups WHERE id = $1`, id,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user group %d: %w", id, err)
	}
	return &group, nil
}

// List returns every group ordered by name.
func (s *PostgresStore) List(ctx context.Context) ([]models.UserGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM user_groups ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	defer rows.Close()

	items := make([]models.UserGroup, 0)
	for rows.Next() {
		var group models.UserGroup
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user group: %w", err)
		}
		items = append(items, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user groups: %w", err)
	}
	return items, nil
}

// Exists reports whether the group exists.
func (s *PostgresStore) Exists(ctx context.Context, id domain.UserGroupID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_groups WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user group exists: %w", err)
	}
	return exists, nil
}
