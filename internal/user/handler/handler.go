// Package handler exposes account registration and authentication over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"specregistry/internal/platform/middleware"
	"specregistry/internal/user/models"
	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/platform/httputil"
)

// Service is the account operation surface the handler depends on.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
	Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenResponse, error)
	Profile(ctx context.Context) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id domain.UserID) (*models.User, error)
	AssignToGroup(ctx context.Context, id domain.UserID, groupID *domain.UserGroupID) error
	ChangeRole(ctx context.Context, id domain.UserID, role string) error
	SetActive(ctx context.Context, id domain.UserID, active bool) error
	Delete(ctx context.Context, id domain.UserID) error
}

// Handler handles account endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an account Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the account routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.With(middleware.RequireUser).Get("/me", h.handleProfile)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", h.handleList)
			r.Get("/{userId}", h.handleGet)
			r.Delete("/{userId}", h.handleDelete)
			r.Put("/{userId}/group", h.handleAssignGroup)
			r.Put("/{userId}/role", h.handleChangeRole)
			r.Put("/{userId}/active", h.handleSetActive)
		})
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[models.RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}
	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err, "failed to register account")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[models.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	token, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err, "failed to authenticate")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, token)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Profile(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to load profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[models.RefreshRequest](w, r, h.logger)
	if !ok {
		return
	}
	token, err := h.service.Refresh(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err, "failed to refresh token")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, token)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to list accounts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "failed to load account")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err, "failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[changeRoleRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.ChangeRole(r.Context(), id, req.Role); err != nil {
		h.writeError(w, r, err, "failed to change role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[setActiveRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.SetActive(r.Context(), id, req.Active); err != nil {
		h.writeError(w, r, err, "failed to update account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignGroupRequest struct {
	UserGroupID *int `json:"userGroupId"`
}

func (h *Handler) handleAssignGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[assignGroupRequest](w, r, h.logger)
	if !ok {
		return
	}
	var groupID *domain.UserGroupID
	if req.UserGroupID != nil {
		gid := domain.UserGroupID(*req.UserGroupID)
		groupID = &gid
	}
	if err := h.service.AssignToGroup(r.Context(), id, groupID); err != nil {
		h.writeError(w, r, err, "failed to assign user to group")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userID(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	raw := chi.URLParam(r, "userId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user id must be a positive integer"))
		return 0, false
	}
	return domain.UserID(id), true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg, "error", err)
	}
	httputil.WriteError(w, err)
}
