// Package handler exposes user group management over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"specregistry/internal/platform/middleware"
	specmodels "specregistry/internal/specification/models"
	usermodels "specregistry/internal/user/models"
	"specregistry/internal/usergroup/models"
	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/platform/httputil"
)

// Service is the group operation surface the handler depends on.
type Service interface {
	Create(ctx context.Context, group *models.UserGroup) (*models.UserGroup, error)
	Update(ctx context.Context, id domain.UserGroupID, group *models.UserGroup) (*models.UserGroup, error)
	Delete(ctx context.Context, id domain.UserGroupID) error
	List(ctx context.Context) ([]models.UserGroup, error)
	Get(ctx context.Context, id domain.UserGroupID) (*models.UserGroup, error)
	Specifications(ctx context.Context, id domain.UserGroupID) ([]specmodels.Specification, error)
	Users(ctx context.Context, id domain.UserGroupID) ([]usermodels.User, error)
}

// Handler handles group endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a group Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the group routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/usergroups", func(r chi.Router) {
		r.With(middleware.RequireAdmin).Post("/", h.handleCreate)
		r.With(middleware.RequireAdmin).Put("/{groupId}", h.handleUpdate)
		r.With(middleware.RequireAdmin).Delete("/{groupId}", h.handleDelete)
		r.With(middleware.RequireAdmin).Get("/{groupId}/users", h.handleUsers)
		r.With(middleware.RequireUser).Get("/", h.handleList)
		r.With(middleware.RequireUser).Get("/{groupId}", h.handleGet)
		r.With(middleware.RequireUser).Get("/{groupId}/specifications", h.handleSpecifications)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	group, ok := httputil.Decode[models.UserGroup](w, r, h.logger)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), &group)
	if err != nil {
		h.writeError(w, r, err, "failed to create group")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	group, ok := httputil.Decode[models.UserGroup](w, r, h.logger)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), id, &group)
	if err != nil {
		h.writeError(w, r, err, "failed to update group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err, "failed to delete group")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	members, err := h.service.Users(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "failed to list group members")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to list groups")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	group, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "failed to load group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

func (h *Handler) handleSpecifications(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	items, err := h.service.Specifications(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "failed to list group specifications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg, "error", err)
	}
	httputil.WriteError(w, err)
}

func groupID(w http.ResponseWriter, r *http.Request) (domain.UserGroupID, bool) {
	raw := chi.URLParam(r, "groupId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "group id must be a positive integer"))
		return 0, false
	}
	return domain.UserGroupID(id), true
}
