package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	refmodels "specregistry/internal/refmodel/models"
	refstore "specregistry/internal/refmodel/store"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/sentinel"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
	refs     *refstore.MemoryStore
	ctx      context.Context
}

func (s *RegistrySuite) SetupTest() {
	s.refs = refstore.NewMemoryStore()
	s.refs.SeedCoreTerms(
		refmodels.CoreInvoiceTerm{ID: "BT-1", BusinessTerm: "Invoice number", Level: "1", Cardinality: "1..1", RowPos: 1},
		refmodels.CoreInvoiceTerm{ID: "BT-2", BusinessTerm: "Invoice issue date", Level: "1", Cardinality: "1..1", RowPos: 2},
	)
	s.refs.SeedExtensionComponents(
		refmodels.ExtensionComponentHeader{ID: "EXT-1", Name: "Ordering"},
		refmodels.ExtensionTerm{ID: 1, ExtensionComponentID: "EXT-1", BusinessTermID: "XT-1", BusinessTerm: "Order reference"},
	)
	s.registry = NewRegistry(s.refs)
	s.registry.SeedGroup(1, "Group One")
	s.registry.SeedGroup(2, "Group Two")
	s.ctx = context.Background()
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) newSpec(name string, groupID domain.UserGroupID) *models.Specification {
	gid := groupID
	return &models.Specification{
		Identifier:         "urn:spec:" + name,
		Name:               name,
		Sector:             "Public procurement",
		Purpose:            "Testing",
		ContactInformation: "spec@example.org",
		Type:               "CIUS",
		ConformanceLevel:   "Core",
		CreatedAt:          time.Now().UTC(),
		ModifiedAt:         time.Now().UTC(),
		GroupID:            &gid,
	}
}

func (s *RegistrySuite) create(name string, groupID domain.UserGroupID) *models.Specification {
	spec := s.newSpec(name, groupID)
	s.Require().NoError(s.registry.Create(s.ctx, spec))
	return spec
}

func (s *RegistrySuite) TestCreateAndGet() {
	s.Run("assigns sequential IDs and loads group names", func() {
		spec := s.create("Alpha", 1)
		s.NotZero(spec.ID)

		found, err := s.registry.GetByID(s.ctx, spec.ID)
		s.Require().NoError(err)
		s.Equal("Alpha", found.Name)
		s.Equal("Group One", found.GroupName)
	})

	s.Run("rejects unknown group", func() {
		spec := s.newSpec("Orphan", 99)
		s.Require().ErrorIs(s.registry.Create(s.ctx, spec), sentinel.ErrForeignKey)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.registry.GetByID(s.ctx, 424242)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RegistrySuite) TestStatusVisibility() {
	visible := s.create("Visible", 1)
	_ = visible

	submitted := s.newSpec("Hidden submitted", 1)
	submitted.RegistrationStatus = models.RegistrationSubmitted
	gid := domain.UserGroupID(1)
	submitted.GroupID = &gid
	s.Require().NoError(s.registry.Create(s.ctx, submitted))

	inProgress := s.newSpec("Hidden in progress", 1)
	inProgress.RegistrationStatus = "in progress"
	s.Require().NoError(s.registry.Create(s.ctx, inProgress))

	s.Run("public listing hides submitted and in-progress entries", func() {
		result, err := s.registry.ListPaginated(s.ctx, models.ListFilter{}, false)
		s.Require().NoError(err)
		s.Equal(1, result.TotalCount)
		s.Equal("Visible", result.Items[0].Name)
	})

	s.Run("privileged listing includes them", func() {
		result, err := s.registry.ListPaginated(s.ctx, models.ListFilter{}, true)
		s.Require().NoError(err)
		s.Equal(3, result.TotalCount)
	})

	s.Run("entries without a status stay visible", func() {
		items, err := s.registry.List(s.ctx, false)
		s.Require().NoError(err)
		s.Len(items, 1)
	})
}

func (s *RegistrySuite) TestFiltering() {
	alpha := s.create("Alpha invoicing", 1)
	beta := s.create("Beta billing", 2)
	country := "SE"
	beta.Country = &country
	s.Require().NoError(s.registry.Update(s.ctx, beta))

	s.Require().NoError(s.registry.CreateCore(s.ctx, &models.CoreElement{
		SpecificationID: alpha.ID, BusinessTermID: "BT-1", Cardinality: "1..1",
	}))

	s.Run("search matches name case-insensitively", func() {
		result, err := s.registry.ListPaginated(s.ctx, models.ListFilter{SearchTerm: "alpha"}, false)
		s.Require().NoError(err)
		s.Equal(1, result.TotalCount)
		s.Equal(alpha.ID, result.Items[0].ID)
	})

	s.Run("core business term filter narrows to parents with a matching child", func() {
		result, err := s.registry.ListPaginated(s.ctx, models.ListFilter{CoreBusinessTermID: "bt-1"}, false)
		s.Require().NoError(err)
		s.Equal(1, result.TotalCount)
		s.Equal(alpha.ID, result.Items[0].ID)
	})

	s.Run("country filter is exact and case-insensitive", func() {
		result, err := s.registry.ListPaginated(s.ctx, models.ListFilter{Country: "se"}, false)
		s.Require().NoError(err)
		s.Equal(1, result.TotalCount)
		s.Equal(beta.ID, result.Items[0].ID)
	})

	s.Run("unmatched filters yield an empty page, not an error", func() {
		result, err := s.registry.ListPaginated(s.ctx, models.ListFilter{SearchTerm: "no such thing"}, false)
		s.Require().NoError(err)
		s.Equal(0, result.TotalCount)
		s.Empty(result.Items)
	})
}

func (s *RegistrySuite) TestSorting() {
	s.create("Charlie", 1)
	s.create("alpha", 1)
	s.create("Bravo", 1)

	s.Run("sorts by name case-insensitively", func() {
		result, err := s.registry.ListPaginated(s.ctx, models.ListFilter{
			SortBy:    models.SortByName,
			SortOrder: pagination.SortAsc,
		}, false)
		s.Require().NoError(err)
		s.Require().Len(result.Items, 3)
		s.Equal("alpha", result.Items[0].Name)
		s.Equal("Bravo", result.Items[1].Name)
		s.Equal("Charlie", result.Items[2].Name)
	})

	s.Run("descending reverses the order", func() {
		result, err := s.registry.ListPaginated(s.ctx, models.ListFilter{
			SortBy:    models.SortByName,
			SortOrder: pagination.SortDesc,
		}, false)
		s.Require().NoError(err)
		s.Equal("Charlie", result.Items[0].Name)
	})
}

func (s *RegistrySuite) TestDeleteBlockedByElements() {
	spec := s.create("Guarded", 1)
	s.Require().NoError(s.registry.CreateCore(s.ctx, &models.CoreElement{
		SpecificationID: spec.ID, BusinessTermID: "BT-1", Cardinality: "1..1",
	}))

	s.Run("core elements block deletion", func() {
		s.Require().ErrorIs(s.registry.Delete(s.ctx, spec.ID), sentinel.ErrForeignKey)
	})

	s.Run("additional requirements do not block deletion", func() {
		other := s.create("Unguarded", 1)
		s.Require().NoError(s.registry.CreateAddReq(s.ctx, &models.AdditionalRequirement{
			SpecificationID: other.ID, BusinessTermID: "AR-1",
			BusinessTermName: "Extra", Level: "1", Cardinality: "0..1",
		}))
		s.Require().NoError(s.registry.Delete(s.ctx, other.ID))

		// The requirement went with its parent.
		_, err := s.registry.GetAddReq(s.ctx, other.ID, "AR-1")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RegistrySuite) TestAdditionalRequirementNaturalKey() {
	spec := s.create("Keyed", 1)
	req := &models.AdditionalRequirement{
		SpecificationID: spec.ID, BusinessTermID: "AR-1",
		BusinessTermName: "Extra", Level: "1", Cardinality: "0..1",
	}
	s.Require().NoError(s.registry.CreateAddReq(s.ctx, req))

	s.Run("duplicate business term conflicts", func() {
		dup := &models.AdditionalRequirement{
			SpecificationID: spec.ID, BusinessTermID: "AR-1",
			BusinessTermName: "Extra again", Level: "1", Cardinality: "0..1",
		}
		s.Require().ErrorIs(s.registry.CreateAddReq(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("same term under another specification is fine", func() {
		other := s.create("Keyed two", 1)
		s.Require().NoError(s.registry.CreateAddReq(s.ctx, &models.AdditionalRequirement{
			SpecificationID: other.ID, BusinessTermID: "AR-1",
			BusinessTermName: "Extra", Level: "1", Cardinality: "0..1",
		}))
	})
}

func (s *RegistrySuite) TestCoreElementOrderingAndTerms() {
	spec := s.create("Ordered", 1)
	s.Require().NoError(s.registry.CreateCore(s.ctx, &models.CoreElement{
		SpecificationID: spec.ID, BusinessTermID: "BT-2", Cardinality: "1..1",
	}))
	s.Require().NoError(s.registry.CreateCore(s.ctx, &models.CoreElement{
		SpecificationID: spec.ID, BusinessTermID: "BT-1", Cardinality: "1..1",
	}))

	result, err := s.registry.ListCoreBySpecification(s.ctx, spec.ID, pagination.Params{})
	s.Require().NoError(err)
	s.Require().Len(result.Items, 2)
	s.Equal("BT-1", result.Items[0].BusinessTermID)
	s.Require().NotNil(result.Items[0].Term)
	s.Equal("Invoice number", result.Items[0].Term.BusinessTerm)
}

func (s *RegistrySuite) TestTouch() {
	spec := s.create("Touched", 1)
	later := spec.ModifiedAt.Add(time.Hour)

	s.Require().NoError(s.registry.Touch(s.ctx, spec.ID, later))
	found, err := s.registry.GetByID(s.ctx, spec.ID)
	s.Require().NoError(err)
	s.True(found.ModifiedAt.Equal(later))

	s.Require().ErrorIs(s.registry.Touch(s.ctx, 424242, later), sentinel.ErrNotFound)
}
