// Package store persists user accounts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"specregistry/internal/platform/postgres"
	"specregistry/internal/user/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/platform/sentinel"
)

// PostgresStore is the PostgreSQL-backed user store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed user store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, name, password_hash, role, user_group_id,
	active, created_at, last_login, refresh_token, refresh_token_expires_at`

// Create inserts the user and assigns its generated ID. A duplicate email
// surfaces as ErrConflict; an unknown group as ErrForeignKey.
func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	var groupID any
	if user.GroupID != nil {
		groupID = int(*user.GroupID)
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, password_hash, role, user_group_id, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		user.Email, user.Name, user.PasswordHash, string(user.Role), groupID,
		user.Active, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", sentinel.ErrConflict)
		}
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("create user: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail fetches a user by email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by ID.
func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByRefreshToken fetches the user holding the given refresh token.
func (s *PostgresStore) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token)
	return scanUser(row)
}

// List returns every account ordered by email.
func (s *PostgresStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListByGroup returns the members of one group ordered by email.
func (s *PostgresStore) ListByGroup(ctx context.Context, groupID domain.UserGroupID) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_group_id = $1 ORDER BY email`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// AssignToGroup moves a user to a group, or clears the membership when
// groupID is nil.
func (s *PostgresStore) AssignToGroup(ctx context.Context, id domain.UserID, groupID *domain.UserGroupID) error {
	var value any
	if groupID != nil {
		value = int(*groupID)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET user_group_id = $1 WHERE id = $2`, value, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("assign user to group: %w", sentinel.ErrForeignKey)
		}
		return fmt.Errorf("assign user to group: %w", err)
	}
	return oneRow(res)
}

// UpdateRole rewrites the account's role.
func (s *PostgresStore) UpdateRole(ctx context.Context, id domain.UserID, role domain.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return oneRow(res)
}

// SetActive flips the account's active flag.
func (s *PostgresStore) SetActive(ctx context.Context, id domain.UserID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return oneRow(res)
}

// SaveRefreshToken stores the rotating refresh credential. A nil token clears
// it.
func (s *PostgresStore) SaveRefreshToken(ctx context.Context, id domain.UserID, token *string, expiresAt *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET refresh_token = $1, refresh_token_expires_at = $2
		WHERE id = $3`, token, expiresAt, id)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return oneRow(res)
}

// StampLogin records a successful authentication.
func (s *PostgresStore) StampLogin(ctx context.Context, id domain.UserID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("stamp login: %w", err)
	}
	return oneRow(res)
}

// Delete removes an account.
func (s *PostgresStore) Delete(ctx context.Context, id domain.UserID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return oneRow(res)
}

func oneRow(res sql.Result) error {
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

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var role string
	var groupID sql.NullInt64
	var lastLogin, refreshExpiry sql.NullTime
	var refreshToken sql.NullString
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&role, &groupID, &user.Active, &user.CreatedAt,
		&lastLogin, &refreshToken, &refreshExpiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.Role(role)
	if groupID.Valid {
		gid := domain.UserGroupID(groupID.Int64)
		user.GroupID = &gid
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	if refreshToken.Valid {
		v := refreshToken.String
		user.RefreshToken = &v
	}
	if refreshExpiry.Valid {
		t := refreshExpiry.Time
		user.RefreshTokenExpiry = &t
	}
	return &user, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
