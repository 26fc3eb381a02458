package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"specregistry/internal/audit"
	refstore "specregistry/internal/refmodel/store"
	specmodels "specregistry/internal/specification/models"
	specmemory "specregistry/internal/specification/store/memory"
	usermodels "specregistry/internal/user/models"
	userstore "specregistry/internal/user/store"
	"specregistry/internal/usergroup/models"
	"specregistry/internal/usergroup/store"
	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/requestcontext"
)

type GroupServiceSuite struct {
	suite.Suite
	groups   *store.MemoryStore
	registry *specmemory.Registry
	users    *userstore.MemoryStore
	service  *Service
	sink     *audit.MemorySink

	admin  *domain.UserContext
	member *domain.UserContext
}

func (s *GroupServiceSuite) SetupTest() {
	s.groups = store.NewMemoryStore()
	s.registry = specmemory.NewRegistry(refstore.NewMemoryStore())
	s.users = userstore.NewMemoryStore()
	s.sink = audit.NewMemorySink()
	s.service = New(s.groups, s.registry, s.users, WithAuditPublisher(audit.NewPublisher(s.sink, nil)))

	group1 := domain.UserGroupID(1)
	s.admin = &domain.UserContext{UserID: 1, Role: domain.RoleAdmin}
	s.member = &domain.UserContext{UserID: 2, Role: domain.RoleUser, GroupID: &group1}
}

func TestGroupServiceSuite(t *testing.T) {
	suite.Run(t, new(GroupServiceSuite))
}

func (s *GroupServiceSuite) as(user *domain.UserContext) context.Context {
	ctx := context.Background()
	if user != nil {
		ctx = requestcontext.WithUser(ctx, user)
	}
	return ctx
}

func (s *GroupServiceSuite) TestCreate() {
	s.Run("admins create groups", func() {
		created, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Procurement"})
		s.Require().NoError(err)
		s.NotZero(created.ID)

		events := s.sink.Events()
		s.Require().NotEmpty(events)
		s.Equal(audit.ActionGroupCreated, events[len(events)-1].Action)
	})

	s.Run("regular users are forbidden", func() {
		_, err := s.service.Create(s.as(s.member), &models.UserGroup{Name: "Rogue"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("anonymous callers are forbidden", func() {
		_, err := s.service.Create(s.as(nil), &models.UserGroup{Name: "Nobody"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("duplicate names conflict", func() {
		_, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Twice"})
		s.Require().NoError(err)
		_, err = s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Twice"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("a blank name is rejected", func() {
		_, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "   "})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *GroupServiceSuite) TestGetAndList() {
	created, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Readable"})
	s.Require().NoError(err)

	found, err := s.service.Get(s.as(nil), created.ID)
	s.Require().NoError(err)
	s.Equal("Readable", found.Name)

	_, err = s.service.Get(s.as(nil), 424242)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	items, err := s.service.List(s.as(nil))
	s.Require().NoError(err)
	s.Len(items, 1)
}

func (s *GroupServiceSuite) TestUpdate() {
	created, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Before"})
	s.Require().NoError(err)

	s.Run("admins rename groups", func() {
		updated, err := s.service.Update(s.as(s.admin), created.ID, &models.UserGroup{Name: "After"})
		s.Require().NoError(err)
		s.Equal("After", updated.Name)

		found, err := s.service.Get(s.as(nil), created.ID)
		s.Require().NoError(err)
		s.Equal("After", found.Name)
		s.Equal(created.CreatedAt, found.CreatedAt)
	})

	s.Run("regular users are forbidden", func() {
		_, err := s.service.Update(s.as(s.member), created.ID, &models.UserGroup{Name: "Rogue"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("renaming onto an existing name conflicts", func() {
		other, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Taken"})
		s.Require().NoError(err)
		_, err = s.service.Update(s.as(s.admin), other.ID, &models.UserGroup{Name: "After"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown groups are not found", func() {
		_, err := s.service.Update(s.as(s.admin), 424242, &models.UserGroup{Name: "Ghost"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *GroupServiceSuite) TestDelete() {
	s.Run("admins delete empty groups", func() {
		created, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Doomed"})
		s.Require().NoError(err)
		s.Require().NoError(s.service.Delete(s.as(s.admin), created.ID))

		_, err = s.service.Get(s.as(nil), created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("regular users are forbidden", func() {
		created, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Guarded"})
		s.Require().NoError(err)
		err = s.service.Delete(s.as(s.member), created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("a referenced group conflicts", func() {
		created, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Occupied"})
		s.Require().NoError(err)
		s.groups.SetReferenceCheck(func(id domain.UserGroupID) bool { return id == created.ID })

		err = s.service.Delete(s.as(s.admin), created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown groups are not found", func() {
		err := s.service.Delete(s.as(s.admin), 424242)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *GroupServiceSuite) TestUsers() {
	created, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Staffed"})
	s.Require().NoError(err)

	member := &usermodels.User{Email: "member@example.org", Name: "Member", PasswordHash: "x", Role: domain.RoleUser, GroupID: &created.ID, Active: true}
	outsider := &usermodels.User{Email: "outsider@example.org", Name: "Outsider", PasswordHash: "x", Role: domain.RoleUser, Active: true}
	s.Require().NoError(s.users.Create(context.Background(), member))
	s.Require().NoError(s.users.Create(context.Background(), outsider))

	s.Run("admins list members", func() {
		members, err := s.service.Users(s.as(s.admin), created.ID)
		s.Require().NoError(err)
		s.Require().Len(members, 1)
		s.Equal("member@example.org", members[0].Email)
	})

	s.Run("regular users are forbidden", func() {
		_, err := s.service.Users(s.as(s.member), created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown groups are not found", func() {
		_, err := s.service.Users(s.as(s.admin), 424242)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *GroupServiceSuite) TestSpecifications() {
	created, err := s.service.Create(s.as(s.admin), &models.UserGroup{Name: "Owning"})
	s.Require().NoError(err)
	s.registry.SeedGroup(created.ID, created.Name)

	spec := &specmodels.Specification{
		Identifier:         "urn:spec:owned",
		Name:               "Owned",
		Sector:             "Public procurement",
		Purpose:            "Testing",
		ContactInformation: "spec@example.org",
		Type:               "CIUS",
		ConformanceLevel:   "Core",
		GroupID:            &created.ID,
	}
	s.Require().NoError(s.registry.Create(context.Background(), spec))

	s.Run("members list their own group", func() {
		member := &domain.UserContext{UserID: 5, Role: domain.RoleUser, GroupID: &created.ID}
		items, err := s.service.Specifications(s.as(member), created.ID)
		s.Require().NoError(err)
		s.Len(items, 1)
	})

	s.Run("members of other groups are forbidden", func() {
		items, err := s.service.Specifications(s.as(s.member), created.ID)
		s.Nil(items)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admins list any group", func() {
		items, err := s.service.Specifications(s.as(s.admin), created.ID)
		s.Require().NoError(err)
		s.Len(items, 1)
	})

	s.Run("anonymous callers are unauthorized", func() {
		_, err := s.service.Specifications(s.as(nil), created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown groups are not found", func() {
		_, err := s.service.Specifications(s.as(s.admin), 424242)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
