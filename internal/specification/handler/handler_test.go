package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	refmodels "specregistry/internal/refmodel/models"
	refstore "specregistry/internal/refmodel/store"
	"specregistry/internal/specification/handler"
	"specregistry/internal/specification/models"
	"specregistry/internal/specification/service"
	"specregistry/internal/specification/store/memory"
	"specregistry/internal/token"
	httptransport "specregistry/internal/transport/http"
	"specregistry/pkg/domain"
	"specregistry/pkg/pagination"
	"specregistry/pkg/requestcontext"
)

// HandlerSuite drives the specification routes through the full router so
// authentication and the per-route guards are exercised too.
type HandlerSuite struct {
	suite.Suite
	registry *memory.Registry
	service  *service.Service
	server   *httptest.Server

	adminToken string
	ownerToken string
	otherToken string
}

func (s *HandlerSuite) SetupTest() {
	refs := refstore.NewMemoryStore()
	refs.SeedCoreTerms(
		refmodels.CoreInvoiceTerm{ID: "BT-1", BusinessTerm: "Invoice number", Level: "1", Cardinality: "1..1", RowPos: 1},
	)
	s.registry = memory.NewRegistry(refs)
	s.registry.SeedGroup(1, "Group One")
	s.registry.SeedGroup(2, "Group Two")

	s.service = service.New(s.registry, s.registry.CoreStore(), s.registry.ExtensionStore(), s.registry.AddReqStore(), refs)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := token.NewJWTService("test-signing-key", "specregistry-test", time.Hour)
	router := httptransport.NewRouter(logger, tokens, handler.New(s.service, logger))
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)

	group1, group2 := domain.UserGroupID(1), domain.UserGroupID(2)
	s.adminToken = s.issue(tokens, 1, domain.RoleAdmin, nil)
	s.ownerToken = s.issue(tokens, 2, domain.RoleUser, &group1)
	s.otherToken = s.issue(tokens, 3, domain.RoleUser, &group2)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) issue(tokens *token.JWTService, userID domain.UserID, role domain.Role, groupID *domain.UserGroupID) string {
	signed, _, err := tokens.Issue(userID, role, groupID)
	s.Require().NoError(err)
	return signed
}

func (s *HandlerSuite) do(method, path, bearer, body string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// seedSpec creates a specification owned by group 1 without going through
// HTTP, so route tests start from a known state.
func (s *HandlerSuite) seedSpec(name string) *models.Specification {
	return s.seedSpecForGroup(name, 1)
}

func (s *HandlerSuite) seedSpecForGroup(name string, groupID domain.UserGroupID) *models.Specification {
	ctx := requestcontext.WithUser(context.Background(), &domain.UserContext{
		UserID: 2, Role: domain.RoleUser, GroupID: &groupID,
	})
	created, err := s.service.Create(ctx, &models.Specification{
		Identifier:         "urn:spec:" + name,
		Name:               name,
		Sector:             "Public procurement",
		Purpose:            "Testing",
		ContactInformation: "spec@example.org",
		Type:               "CIUS",
		ConformanceLevel:   "Core",
	})
	s.Require().NoError(err)
	return created
}

const validSpecBody = `{
	"specificationIdentifier": "urn:spec:new",
	"specificationName": "New specification",
	"sector": "Public procurement",
	"purpose": "Testing",
	"contactInformation": "spec@example.org",
	"specificationType": "CIUS",
	"conformanceLevel": "Core"
}`

func (s *HandlerSuite) TestListIsPublic() {
	s.seedSpec("Listed")

	resp := s.do(http.MethodGet, "/api/specifications", "", "")
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *HandlerSuite) TestGetIsPublic() {
	spec := s.seedSpec("Readable")

	resp := s.do(http.MethodGet, "/api/specifications/1", "", "")
	s.Equal(http.StatusOK, resp.StatusCode)
	_ = spec
}

func (s *HandlerSuite) TestCreate() {
	s.Run("unauthenticated create is rejected", func() {
		resp := s.do(http.MethodPost, "/api/specifications", "", validSpecBody)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("a garbage bearer token is rejected", func() {
		resp := s.do(http.MethodPost, "/api/specifications", "not-a-token", validSpecBody)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("authenticated create succeeds", func() {
		resp := s.do(http.MethodPost, "/api/specifications", s.ownerToken, validSpecBody)
		s.Equal(http.StatusCreated, resp.StatusCode)
	})

	s.Run("missing fields are a bad request", func() {
		resp := s.do(http.MethodPost, "/api/specifications", s.ownerToken, `{"specificationName": "Only a name"}`)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestUpdatePermissions() {
	s.seedSpec("Guarded")
	body := strings.Replace(validSpecBody, "urn:spec:new", "urn:spec:guarded", 1)

	s.Run("members of another group get forbidden", func() {
		resp := s.do(http.MethodPut, "/api/specifications/1", s.otherToken, body)
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("owners may update", func() {
		resp := s.do(http.MethodPut, "/api/specifications/1", s.ownerToken, body)
		s.Equal(http.StatusOK, resp.StatusCode)
	})

	s.Run("unknown specification is not found", func() {
		resp := s.do(http.MethodPut, "/api/specifications/999", s.adminToken, body)
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("a non-numeric id is a bad request", func() {
		resp := s.do(http.MethodPut, "/api/specifications/abc", s.adminToken, body)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestDelete() {
	s.seedSpec("Removable")

	s.Run("owners may delete", func() {
		resp := s.do(http.MethodDelete, "/api/specifications/1", s.ownerToken, "")
		s.Equal(http.StatusNoContent, resp.StatusCode)
	})

	s.Run("deleting again is not found", func() {
		resp := s.do(http.MethodDelete, "/api/specifications/1", s.ownerToken, "")
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestDeleteBlockedByElements() {
	spec := s.seedSpec("Blocked")
	resp := s.do(http.MethodPost, "/api/specifications/1/coreelements", s.ownerToken,
		`{"businessTermId": "BT-1", "cardinality": "1..1"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodDelete, "/api/specifications/1", s.ownerToken, "")
	s.Equal(http.StatusConflict, resp.StatusCode)
	_ = spec
}

func (s *HandlerSuite) TestGroupAssignmentIsAdminOnly() {
	s.seedSpec("Movable")

	s.Run("regular users get forbidden", func() {
		resp := s.do(http.MethodPut, "/api/specifications/1/group", s.ownerToken, `{"userGroupId": 2}`)
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("admins may move", func() {
		resp := s.do(http.MethodPut, "/api/specifications/1/group", s.adminToken, `{"userGroupId": 2}`)
		s.Equal(http.StatusOK, resp.StatusCode)
	})

	s.Run("an unknown group is unprocessable", func() {
		resp := s.do(http.MethodPut, "/api/specifications/1/group", s.adminToken, `{"userGroupId": 99}`)
		s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestCoreElements() {
	s.seedSpec("With elements")

	s.Run("an unknown business term is unprocessable", func() {
		resp := s.do(http.MethodPost, "/api/specifications/1/coreelements", s.ownerToken,
			`{"businessTermId": "BT-404", "cardinality": "1..1"}`)
		s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	})

	s.Run("listing elements is public", func() {
		resp := s.do(http.MethodGet, "/api/specifications/1/coreelements", "", "")
		s.Equal(http.StatusOK, resp.StatusCode)
	})

	s.Run("adding requires authentication", func() {
		resp := s.do(http.MethodPost, "/api/specifications/1/coreelements", "",
			`{"businessTermId": "BT-1", "cardinality": "1..1"}`)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestElementRoutesScopedToParent() {
	s.seedSpec("Mine")
	s.seedSpecForGroup("Theirs", 2)

	resp := s.do(http.MethodPost, "/api/specifications/2/coreelements", s.otherToken,
		`{"businessTermId": "BT-1", "cardinality": "1..1"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var el models.CoreElement
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&el))

	elementPathUnderMine := "/api/specifications/1/coreelements/" + strconv.Itoa(int(el.ID))
	elementPathUnderTheirs := "/api/specifications/2/coreelements/" + strconv.Itoa(int(el.ID))

	s.Run("a foreign element under my path is not found", func() {
		resp := s.do(http.MethodDelete, elementPathUnderMine, s.ownerToken, "")
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("my element through a foreign path is forbidden", func() {
		resp := s.do(http.MethodDelete, elementPathUnderMine, s.otherToken, "")
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("the element is still deletable under its own parent", func() {
		resp := s.do(http.MethodDelete, elementPathUnderTheirs, s.otherToken, "")
		s.Equal(http.StatusNoContent, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestListPageSizing() {
	s.Run("an explicit zero page size collapses to one", func() {
		resp := s.do(http.MethodGet, "/api/specifications?pageSize=0", "", "")
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var result pagination.PagedResult[models.Specification]
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&result))
		s.Equal(1, result.PageSize)
	})

	s.Run("an absent page size gets the default", func() {
		resp := s.do(http.MethodGet, "/api/specifications", "", "")
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var result pagination.PagedResult[models.Specification]
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&result))
		s.Equal(pagination.DefaultPageSize, result.PageSize)
	})
}

func (s *HandlerSuite) TestAdditionalRequirementConflict() {
	s.seedSpec("Keyed")
	body := `{"businessTermId": "AR-1", "businessTermName": "Extra", "level": "1", "cardinality": "0..1"}`

	resp := s.do(http.MethodPost, "/api/specifications/1/additionalrequirements", s.ownerToken, body)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/specifications/1/additionalrequirements", s.ownerToken, body)
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *HandlerSuite) TestHealthz() {
	resp := s.do(http.MethodGet, "/healthz", "", "")
	s.Equal(http.StatusOK, resp.StatusCode)
}
