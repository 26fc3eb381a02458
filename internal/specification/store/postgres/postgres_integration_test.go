//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"specregistry/internal/specification/models"
	"specregistry/internal/specification/store/postgres"
	"specregistry/pkg/domain"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/sentinel"
	"specregistry/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	specs    *postgres.SpecificationStore
	core     *postgres.CoreElementStore
	addReqs  *postgres.AdditionalRequirementStore
	ctx      context.Context

	group1, group2 domain.UserGroupID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.specs = postgres.NewSpecificationStore(s.postgres.DB)
	s.core = postgres.NewCoreElementStore(s.postgres.DB)
	s.addReqs = postgres.NewAdditionalRequirementStore(s.postgres.DB)
	s.ctx = context.Background()

	_, err := s.postgres.DB.ExecContext(s.ctx, `
		INSERT INTO core_invoice_model (id, business_term, level, cardinality, row_pos) VALUES
			('BT-1', 'Invoice number', '1', '1..1', 1),
			('BT-2', 'Invoice issue date', '1', '1..1', 2)`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(s.ctx))

	var id int
	row := s.postgres.DB.QueryRowContext(s.ctx,
		`INSERT INTO user_groups (name) VALUES ('Group One') RETURNING id`)
	s.Require().NoError(row.Scan(&id))
	s.group1 = domain.UserGroupID(id)

	row = s.postgres.DB.QueryRowContext(s.ctx,
		`INSERT INTO user_groups (name) VALUES ('Group Two') RETURNING id`)
	s.Require().NoError(row.Scan(&id))
	s.group2 = domain.UserGroupID(id)
}

func (s *PostgresStoreSuite) newSpec(name string, groupID domain.UserGroupID) *models.Specification {
	now := time.Now().UTC().Truncate(time.Microsecond)
	gid := groupID
	return &models.Specification{
		Identifier:         "urn:spec:" + name,
		Name:               name,
		Sector:             "Public procurement",
		Purpose:            "Testing",
		ContactInformation: "spec@example.org",
		Type:               "CIUS",
		ConformanceLevel:   "Core",
		CreatedAt:          now,
		ModifiedAt:         now,
		GroupID:            &gid,
	}
}

func (s *PostgresStoreSuite) create(name string, groupID domain.UserGroupID) *models.Specification {
	spec := s.newSpec(name, groupID)
	s.Require().NoError(s.specs.Create(s.ctx, spec))
	return spec
}

func (s *PostgresStoreSuite) TestCreateAndGet() {
	spec := s.create("Roundtrip", s.group1)
	s.NotZero(spec.ID)

	found, err := s.specs.GetByID(s.ctx, spec.ID)
	s.Require().NoError(err)
	s.Equal("Roundtrip", found.Name)
	s.Equal("Group One", found.GroupName)
	s.True(found.CreatedAt.Equal(spec.CreatedAt))

	_, err = s.specs.GetByID(s.ctx, 424242)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreateRejectsUnknownGroup() {
	spec := s.newSpec("Orphan", 424242)
	s.ErrorIs(s.specs.Create(s.ctx, spec), sentinel.ErrForeignKey)
}

func (s *PostgresStoreSuite) TestStatusVisibility() {
	s.create("Visible", s.group1)

	hidden := s.newSpec("Hidden", s.group1)
	hidden.RegistrationStatus = models.RegistrationSubmitted
	s.Require().NoError(s.specs.Create(s.ctx, hidden))

	public, err := s.specs.ListPaginated(s.ctx, models.ListFilter{}, false)
	s.Require().NoError(err)
	s.Equal(1, public.TotalCount)
	s.Equal("Visible", public.Items[0].Name)

	privileged, err := s.specs.ListPaginated(s.ctx, models.ListFilter{}, true)
	s.Require().NoError(err)
	s.Equal(2, privileged.TotalCount)
}

func (s *PostgresStoreSuite) TestFilteringAndPaging() {
	alpha := s.create("Alpha invoicing", s.group1)
	s.create("Beta billing", s.group2)

	s.Require().NoError(s.core.Create(s.ctx, &models.CoreElement{
		SpecificationID: alpha.ID, BusinessTermID: "BT-1", Cardinality: "1..1",
	}))

	s.Run("search is case-insensitive", func() {
		result, err := s.specs.ListPaginated(s.ctx, models.ListFilter{SearchTerm: "ALPHA"}, false)
		s.Require().NoError(err)
		s.Equal(1, result.TotalCount)
		s.Equal(alpha.ID, result.Items[0].ID)
	})

	s.Run("core term filter matches via the child table", func() {
		result, err := s.specs.ListPaginated(s.ctx, models.ListFilter{CoreBusinessTermID: "bt-1"}, false)
		s.Require().NoError(err)
		s.Equal(1, result.TotalCount)
	})

	s.Run("paging reports the full count", func() {
		result, err := s.specs.ListPaginated(s.ctx, models.ListFilter{
			Page: pagination.Params{PageNumber: 1, PageSize: 1},
		}, false)
		s.Require().NoError(err)
		s.Equal(2, result.TotalCount)
		s.Len(result.Items, 1)
		s.True(result.HasNext)
	})
}

func (s *PostgresStoreSuite) TestDeleteRestrictedByElements() {
	spec := s.create("Guarded", s.group1)
	s.Require().NoError(s.core.Create(s.ctx, &models.CoreElement{
		SpecificationID: spec.ID, BusinessTermID: "BT-1", Cardinality: "1..1",
	}))

	has, err := s.specs.HasCoreElements(s.ctx, spec.ID)
	s.Require().NoError(err)
	s.True(has)

	s.ErrorIs(s.specs.Delete(s.ctx, spec.ID), sentinel.ErrForeignKey)
}

func (s *PostgresStoreSuite) TestDeleteCascadesRequirements() {
	spec := s.create("Unguarded", s.group1)
	s.Require().NoError(s.addReqs.Create(s.ctx, &models.AdditionalRequirement{
		SpecificationID: spec.ID, BusinessTermID: "AR-1",
		BusinessTermName: "Extra", Level: "1", Cardinality: "0..1",
	}))

	s.Require().NoError(s.specs.Delete(s.ctx, spec.ID))

	_, err := s.addReqs.Get(s.ctx, spec.ID, "AR-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAdditionalRequirementNaturalKey() {
	spec := s.create("Keyed", s.group1)
	req := &models.AdditionalRequirement{
		SpecificationID: spec.ID, BusinessTermID: "AR-1",
		BusinessTermName: "Extra", Level: "1", Cardinality: "0..1",
	}
	s.Require().NoError(s.addReqs.Create(s.ctx, req))

	dup := &models.AdditionalRequirement{
		SpecificationID: spec.ID, BusinessTermID: "AR-1",
		BusinessTermName: "Extra again", Level: "1", Cardinality: "0..1",
	}
	s.ErrorIs(s.addReqs.Create(s.ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestCoreElementsOrderedByModelPosition() {
	spec := s.create("Ordered", s.group1)
	s.Require().NoError(s.core.Create(s.ctx, &models.CoreElement{
		SpecificationID: spec.ID, BusinessTermID: "BT-2", Cardinality: "1..1",
	}))
	s.Require().NoError(s.core.Create(s.ctx, &models.CoreElement{
		SpecificationID: spec.ID, BusinessTermID: "BT-1", Cardinality: "1..1",
	}))

	result, err := s.core.ListBySpecification(s.ctx, spec.ID, pagination.Params{PageNumber: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Require().Len(result.Items, 2)
	s.Equal("BT-1", result.Items[0].BusinessTermID)
	s.Require().NotNil(result.Items[0].Term)
	s.Equal("Invoice number", result.Items[0].Term.BusinessTerm)
}

func (s *PostgresStoreSuite) TestCoreElementRejectsUnknownTerm() {
	spec := s.create("Strict", s.group1)
	err := s.core.Create(s.ctx, &models.CoreElement{
		SpecificationID: spec.ID, BusinessTermID: "BT-404", Cardinality: "1..1",
	})
	s.ErrorIs(err, sentinel.ErrForeignKey)
}

func (s *PostgresStoreSuite) TestTouch() {
	spec := s.create("Touched", s.group1)
	later := spec.ModifiedAt.Add(time.Hour)

	s.Require().NoError(s.specs.Touch(s.ctx, spec.ID, later))

	found, err := s.specs.GetByID(s.ctx, spec.ID)
	s.Require().NoError(err)
	s.True(found.ModifiedAt.Equal(later))

	s.ErrorIs(s.specs.Touch(s.ctx, 424242, later), sentinel.ErrNotFound)
}
