// Package service manages user groups.
package service

import (
	"context"
	"errors"
	"log/slog"

	"specregistry/internal/audit"
	specmodels "specregistry/internal/specification/models"
	usermodels "specregistry/internal/user/models"
	"specregistry/internal/usergroup/models"
	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/platform/sentinel"
	"specregistry/pkg/requestcontext"
)

// GroupStore persists user groups.
type GroupStore interface {
	Create(ctx context.Context, group *models.UserGroup) error
	Update(ctx context.Context, group *models.UserGroup) error
	Delete(ctx context.Context, id domain.UserGroupID) error
	GetByID(ctx context.Context, id domain.UserGroupID) (*models.UserGroup, error)
	List(ctx context.Context) ([]models.UserGroup, error)
	Exists(ctx context.Context, id domain.UserGroupID) (bool, error)
}

// SpecificationLister loads the specifications a group owns.
type SpecificationLister interface {
	ListByGroup(ctx context.Context, groupID domain.UserGroupID) ([]specmodels.Specification, error)
}

// UserLister loads the accounts belonging to a group.
type UserLister interface {
	ListByGroup(ctx context.Context, groupID domain.UserGroupID) ([]usermodels.User, error)
}

// AuditPublisher records group mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service manages user groups.
type Service struct {
	groups  GroupStore
	specs   SpecificationLister
	users   UserLister
	logger  *slog.Logger
	auditor AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

// New constructs a Service.
func New(groups GroupStore, specs SpecificationLister, users UserLister, opts ...Option) *Service {
	s := &Service{groups: groups, specs: specs, users: users}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new group. Admin only; group names are unique.
func (s *Service) Create(ctx context.Context, group *models.UserGroup) (*models.UserGroup, error) {
	user := requestcontext.User(ctx)
	if user == nil || !user.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may create groups")
	}

	group.Normalize()
	if err := group.Validate(); err != nil {
		return nil, err
	}
	group.CreatedAt = requestcontext.Now(ctx)

	if err := s.groups.Create(ctx, group); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "group name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create group")
	}

	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{Action: audit.ActionGroupCreated, Detail: group.Name})
	}
	return group, nil
}

// Update renames a group or rewrites its description. Admin only.
func (s *Service) Update(ctx context.Context, id domain.UserGroupID, group *models.UserGroup) (*models.UserGroup, error) {
	user := requestcontext.User(ctx)
	if user == nil || !user.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may update groups")
	}

	group.ID = id
	group.Normalize()
	if err := group.Validate(); err != nil {
		return nil, err
	}

	if err := s.groups.Update(ctx, group); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "group name must be unique")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update group")
		}
	}

	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{Action: audit.ActionGroupUpdated, Detail: group.Name})
	}
	return group, nil
}

// Delete removes a group. Admin only. A group still referenced by accounts or
// specifications cannot be removed.
func (s *Service) Delete(ctx context.Context, id domain.UserGroupID) error {
	user := requestcontext.User(ctx)
	if user == nil || !user.Role.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "only administrators may delete groups")
	}

	if err := s.groups.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "group not found")
		case errors.Is(err, sentinel.ErrForeignKey):
			return dErrors.New(dErrors.CodeConflict, "group is still referenced by users or specifications")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete group")
		}
	}

	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{Action: audit.ActionGroupDeleted})
	}
	return nil
}

// Users lists the members of a group. Admin only.
func (s *Service) Users(ctx context.Context, id domain.UserGroupID) ([]usermodels.User, error) {
	user := requestcontext.User(ctx)
	if user == nil || !user.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may list group members")
	}

	exists, err := s.groups.Exists(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check group")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
	}

	members, err := s.users.ListByGroup(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list group members")
	}
	return members, nil
}

// List returns every group.
func (s *Service) List(ctx context.Context) ([]models.UserGroup, error) {
	items, err := s.groups.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list groups")
	}
	return items, nil
}

// Get fetches one group.
func (s *Service) Get(ctx context.Context, id domain.UserGroupID) (*models.UserGroup, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load group")
	}
	return group, nil
}

// Specifications lists everything a group owns. Members see their own group;
// admins see any group.
func (s *Service) Specifications(ctx context.Context, id domain.UserGroupID) ([]specmodels.Specification, error) {
	user := requestcontext.User(ctx)
	if user == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !user.Role.IsAdmin() && !user.InGroup(id) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a member of this group")
	}

	exists, err := s.groups.Exists(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check group")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
	}

	items, err := s.specs.ListByGroup(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list group specifications")
	}
	return items, nil
}
