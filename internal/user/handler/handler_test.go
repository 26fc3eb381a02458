package handler_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"specregistry/internal/token"
	httptransport "specregistry/internal/transport/http"
	"specregistry/internal/user/handler"
	"specregistry/internal/user/models"
	"specregistry/internal/user/service"
	"specregistry/internal/user/store"
	"specregistry/pkg/domain"
)

// AccountRoutesSuite drives the account routes through the full router so
// the admin guards and token plumbing are exercised too.
type AccountRoutesSuite struct {
	suite.Suite
	users   *store.MemoryStore
	service *service.Service
	server  *httptest.Server

	adminToken string
	userToken  string
}

func (s *AccountRoutesSuite) SetupTest() {
	s.users = store.NewMemoryStore()
	tokens := token.NewJWTService("test-signing-key", "specregistry-test", time.Hour)
	s.service = service.New(s.users, tokens)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := httptransport.NewRouter(logger, tokens, handler.New(s.service, logger))
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)

	s.adminToken = s.issue(tokens, 100, domain.RoleAdmin)
	s.userToken = s.issue(tokens, 101, domain.RoleUser)
}

func TestAccountRoutesSuite(t *testing.T) {
	suite.Run(t, new(AccountRoutesSuite))
}

func (s *AccountRoutesSuite) issue(tokens *token.JWTService, userID domain.UserID, role domain.Role) string {
	signed, _, err := tokens.Issue(userID, role, nil)
	s.Require().NoError(err)
	return signed
}

func (s *AccountRoutesSuite) do(method, path, bearer, body string) *http.Response {
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

func (s *AccountRoutesSuite) decode(resp *http.Response, into any) {
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
}

const registerBody = `{"email":"account@example.org","name":"Account","password":"long enough"}`
const loginBody = `{"email":"account@example.org","password":"long enough"}`

func (s *AccountRoutesSuite) TestRegisterAndLogin() {
	resp := s.do(http.MethodPost, "/api/users/register", "", registerBody)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created models.User
	s.decode(resp, &created)
	s.True(created.Active)

	s.Run("login yields a token pair", func() {
		resp := s.do(http.MethodPost, "/api/users/login", "", loginBody)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var tokenResp models.TokenResponse
		s.decode(resp, &tokenResp)
		s.NotEmpty(tokenResp.AccessToken)
		s.NotEmpty(tokenResp.RefreshToken)
	})

	s.Run("wrong password is unauthorized", func() {
		resp := s.do(http.MethodPost, "/api/users/login", "", `{"email":"account@example.org","password":"wrong password"}`)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("duplicate registration conflicts", func() {
		resp := s.do(http.MethodPost, "/api/users/register", "", registerBody)
		s.Equal(http.StatusConflict, resp.StatusCode)
	})
}

func (s *AccountRoutesSuite) TestRefresh() {
	s.do(http.MethodPost, "/api/users/register", "", registerBody)
	resp := s.do(http.MethodPost, "/api/users/login", "", loginBody)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var first models.TokenResponse
	s.decode(resp, &first)

	s.Run("a valid refresh token rotates", func() {
		resp := s.do(http.MethodPost, "/api/users/refresh", "", `{"refreshToken":"`+first.RefreshToken+`"}`)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var second models.TokenResponse
		s.decode(resp, &second)
		s.NotEqual(first.RefreshToken, second.RefreshToken)
	})

	s.Run("the spent token is rejected", func() {
		resp := s.do(http.MethodPost, "/api/users/refresh", "", `{"refreshToken":"`+first.RefreshToken+`"}`)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})
}

func (s *AccountRoutesSuite) TestAdminAccountRoutes() {
	resp := s.do(http.MethodPost, "/api/users/register", "", registerBody)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var created models.User
	s.decode(resp, &created)

	s.Run("listing requires admin", func() {
		s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/users/", s.userToken, "").StatusCode)
		s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/", "", "").StatusCode)
		s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/users/", s.adminToken, "").StatusCode)
	})

	s.Run("admins change roles", func() {
		resp := s.do(http.MethodPut, "/api/users/1/role", s.adminToken, `{"role":"Admin"}`)
		s.Equal(http.StatusNoContent, resp.StatusCode)
	})

	s.Run("unknown roles are a bad request", func() {
		resp := s.do(http.MethodPut, "/api/users/1/role", s.adminToken, `{"role":"Superuser"}`)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("admins deactivate accounts", func() {
		resp := s.do(http.MethodPut, "/api/users/1/active", s.adminToken, `{"active":false}`)
		s.Require().Equal(http.StatusNoContent, resp.StatusCode)

		resp = s.do(http.MethodPost, "/api/users/login", "", loginBody)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("admins delete accounts", func() {
		resp := s.do(http.MethodDelete, "/api/users/1", s.adminToken, "")
		s.Require().Equal(http.StatusNoContent, resp.StatusCode)

		resp = s.do(http.MethodGet, "/api/users/1", s.adminToken, "")
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})
}
