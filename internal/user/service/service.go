// Package service manages accounts and authentication.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"specregistry/internal/audit"
	"specregistry/internal/user/models"
	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/platform/sentinel"
	"specregistry/pkg/requestcontext"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
	FindByRefreshToken(ctx context.Context, token string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	AssignToGroup(ctx context.Context, id domain.UserID, groupID *domain.UserGroupID) error
	UpdateRole(ctx context.Context, id domain.UserID, role domain.Role) error
	SetActive(ctx context.Context, id domain.UserID, active bool) error
	SaveRefreshToken(ctx context.Context, id domain.UserID, token *string, expiresAt *time.Time) error
	StampLogin(ctx context.Context, id domain.UserID, at time.Time) error
	Delete(ctx context.Context, id domain.UserID) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID domain.UserID, role domain.Role, groupID *domain.UserGroupID) (string, time.Time, error)
}

// AuditPublisher records account events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service manages accounts and authentication.
type Service struct {
	users      UserStore
	tokens     TokenIssuer
	refreshTTL time.Duration
	logger     *slog.Logger
	auditor    AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

// WithRefreshTTL overrides the default seven-day refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) { s.refreshTTL = ttl }
}

// New constructs a Service.
func New(users UserStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, refreshTTL: 7 * 24 * time.Hour}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a regular account. New accounts start active and without a
// group; an administrator assigns membership afterwards.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{Action: audit.ActionUserRegistered, UserID: user.ID})
	}
	return user, nil
}

// Login verifies credentials and issues an access token plus a rotating
// refresh token. Unknown email, wrong password, and a deactivated account are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	response, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if err := s.users.StampLogin(ctx, user.ID, now); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to stamp login", "user_id", user.ID, "error", err)
	}

	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{Action: audit.ActionUserLoggedIn, UserID: user.ID})
	}
	return response, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// refresh token is invalidated in the same step.
func (s *Service) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid refresh token")
	}
	user, err := s.users.FindByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if !user.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid refresh token")
	}
	if user.RefreshTokenExpiry == nil || requestcontext.Now(ctx).After(*user.RefreshTokenExpiry) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "refresh token has expired")
	}
	return s.issueTokens(ctx, user)
}

func (s *Service) issueTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	access, expiresAt, err := s.tokens.Issue(user.ID, user.Role, user.GroupID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue refresh token")
	}
	refreshExpiry := requestcontext.Now(ctx).Add(s.refreshTTL)
	if err := s.users.SaveRefreshToken(ctx, user.ID, &refresh, &refreshExpiry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store refresh token")
	}

	return &models.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context) (*models.User, error) {
	caller := requestcontext.User(ctx)
	if caller == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.load(ctx, caller.UserID)
}

// List returns every account. Admin only.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return users, nil
}

// Get fetches one account. Admin only.
func (s *Service) Get(ctx context.Context, id domain.UserID) (*models.User, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// AssignToGroup moves an account into a group, or clears its membership when
// groupID is nil. Admin only. The change takes effect on the user's next
// token.
func (s *Service) AssignToGroup(ctx context.Context, id domain.UserID, groupID *domain.UserGroupID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.users.AssignToGroup(ctx, id, groupID); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		case errors.Is(err, sentinel.ErrForeignKey):
			return dErrors.New(dErrors.CodeRefNotFound, "user group not found")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign user to group")
		}
	}
	return nil
}

// ChangeRole rewrites an account's role. Admin only; the role must be one of
// the known roles.
func (s *Service) ChangeRole(ctx context.Context, id domain.UserID, role string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	parsed, ok := domain.ParseRole(role)
	if !ok {
		return dErrors.New(dErrors.CodeBadRequest, "unknown role")
	}
	if err := s.users.UpdateRole(ctx, id, parsed); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to change role")
	}
	return nil
}

// SetActive enables or disables an account. Admin only. A disabled account
// cannot log in or refresh.
func (s *Service) SetActive(ctx context.Context, id domain.UserID, active bool) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}
	return nil
}

// Delete removes an account. Admin only.
func (s *Service) Delete(ctx context.Context, id domain.UserID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete account")
	}
	return nil
}

func (s *Service) load(ctx context.Context, id domain.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return user, nil
}

func requireAdmin(ctx context.Context) error {
	caller := requestcontext.User(ctx)
	if caller == nil || !caller.Role.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	return nil
}
