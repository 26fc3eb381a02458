// Package handler exposes the specification API over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"specregistry/internal/platform/middleware"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/httputil"
)

// Service is the specification operation surface the handler depends on.
type Service interface {
	List(ctx context.Context, filter models.ListFilter) (pagination.PagedResult[models.Specification], error)
	ListMine(ctx context.Context) ([]models.Specification, error)
	Get(ctx context.Context, id domain.SpecificationID, pages models.ChildPages) (*models.SpecificationDetails, error)
	Create(ctx context.Context, spec *models.Specification) (*models.Specification, error)
	Update(ctx context.Context, spec *models.Specification) (*models.Specification, error)
	Delete(ctx context.Context, id domain.SpecificationID) error
	AssignToGroup(ctx context.Context, id domain.SpecificationID, groupID *domain.UserGroupID) (*models.Specification, error)

	ListCoreElements(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.CoreElement], error)
	AddCoreElement(ctx context.Context, el *models.CoreElement) (*models.CoreElement, error)
	UpdateCoreElement(ctx context.Context, specID domain.SpecificationID, el *models.CoreElement) (*models.CoreElement, error)
	DeleteCoreElement(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) error

	ListExtensionElements(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.ExtensionElement], error)
	AddExtensionElement(ctx context.Context, el *models.ExtensionElement) (*models.ExtensionElement, error)
	UpdateExtensionElement(ctx context.Context, specID domain.SpecificationID, el *models.ExtensionElement) (*models.ExtensionElement, error)
	DeleteExtensionElement(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) error

	ListAdditionalRequirements(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.AdditionalRequirement], error)
	AddAdditionalRequirement(ctx context.Context, req *models.AdditionalRequirement) (*models.AdditionalRequirement, error)
	UpdateAdditionalRequirement(ctx context.Context, req *models.AdditionalRequirement) (*models.AdditionalRequirement, error)
	DeleteAdditionalRequirement(ctx context.Context, specID domain.SpecificationID, businessTermID string) error
}

// Handler handles specification endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a specification Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the specification routes. Reads are open; every mutation
// requires an authenticated caller and the group-assignment route an admin.
func (h *Handler) Register(r chi.Router) {
	r.Route("/specifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(middleware.RequireUser).Get("/mine", h.handleListMine)
		r.With(middleware.RequireUser).Post("/", h.handleCreate)

		r.Route("/{specificationId}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.With(middleware.RequireUser).Put("/", h.handleUpdate)
			r.With(middleware.RequireUser).Delete("/", h.handleDelete)
			r.With(middleware.RequireAdmin).Put("/group", h.handleAssignGroup)

			r.Get("/coreelements", h.handleListCoreElements)
			r.With(middleware.RequireUser).Post("/coreelements", h.handleAddCoreElement)
			r.With(middleware.RequireUser).Put("/coreelements/{elementId}", h.handleUpdateCoreElement)
			r.With(middleware.RequireUser).Delete("/coreelements/{elementId}", h.handleDeleteCoreElement)

			r.Get("/extensionelements", h.handleListExtensionElements)
			r.With(middleware.RequireUser).Post("/extensionelements", h.handleAddExtensionElement)
			r.With(middleware.RequireUser).Put("/extensionelements/{elementId}", h.handleUpdateExtensionElement)
			r.With(middleware.RequireUser).Delete("/extensionelements/{elementId}", h.handleDeleteExtensionElement)

			r.Get("/additionalrequirements", h.handleListAdditionalRequirements)
			r.With(middleware.RequireUser).Post("/additionalrequirements", h.handleAddAdditionalRequirement)
			r.With(middleware.RequireUser).Put("/additionalrequirements/{businessTermId}", h.handleUpdateAdditionalRequirement)
			r.With(middleware.RequireUser).Delete("/additionalrequirements/{businessTermId}", h.handleDeleteAdditionalRequirement)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err, "failed to list specifications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMine(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to list own specifications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	pages := models.ChildPages{
		Core:                   pageFromQuery(r, "corePageNumber", "corePageSize"),
		Extension:              pageFromQuery(r, "extensionPageNumber", "extensionPageSize"),
		AdditionalRequirements: pageFromQuery(r, "requirementPageNumber", "requirementPageSize"),
	}
	details, err := h.service.Get(r.Context(), id, pages)
	if err != nil {
		h.writeError(w, r, err, "failed to load specification")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	spec, ok := httputil.Decode[models.Specification](w, r, h.logger)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), &spec)
	if err != nil {
		h.writeError(w, r, err, "failed to create specification")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	spec, ok := httputil.Decode[models.Specification](w, r, h.logger)
	if !ok {
		return
	}
	spec.ID = id
	updated, err := h.service.Update(r.Context(), &spec)
	if err != nil {
		h.writeError(w, r, err, "failed to update specification")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err, "failed to delete specification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignGroupRequest struct {
	UserGroupID *int `json:"userGroupId"`
}

func (h *Handler) handleAssignGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
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
	updated, err := h.service.AssignToGroup(r.Context(), id, groupID)
	if err != nil {
		h.writeError(w, r, err, "failed to assign specification to group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg, "error", err)
	}
	httputil.WriteError(w, err)
}

func specificationID(w http.ResponseWriter, r *http.Request) (domain.SpecificationID, bool) {
	raw := chi.URLParam(r, "specificationId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "specification id must be a positive integer"))
		return 0, false
	}
	return domain.SpecificationID(id), true
}

func elementID(w http.ResponseWriter, r *http.Request) (domain.ElementID, bool) {
	raw := chi.URLParam(r, "elementId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "element id must be a positive integer"))
		return 0, false
	}
	return domain.ElementID(id), true
}

// pageFromQuery reads paging parameters. An absent size gets the default; a
// size the caller spelled out is kept, clamped to at least one, so requesting
// zero items yields the smallest page rather than the default.
func pageFromQuery(r *http.Request, numberKey, sizeKey string) pagination.Params {
	size := pagination.DefaultPageSize
	if r.URL.Query().Has(sizeKey) {
		size = httputil.QueryInt(r, sizeKey, pagination.DefaultPageSize)
		if size < 1 {
			size = 1
		}
	}
	return pagination.Params{
		PageNumber: httputil.QueryInt(r, numberKey, 1),
		PageSize:   size,
	}
}

func filterFromQuery(r *http.Request) models.ListFilter {
	q := r.URL.Query()
	filter := models.ListFilter{
		Page:                    pageFromQuery(r, "pageNumber", "pageSize"),
		SearchTerm:              q.Get("searchTerm"),
		SpecificationType:       q.Get("specificationType"),
		Sector:                  q.Get("sector"),
		Country:                 q.Get("country"),
		CoreBusinessTermID:      q.Get("coreBusinessTermId"),
		ExtensionBusinessTermID: q.Get("extensionBusinessTermId"),
		AddReqBusinessTermID:    q.Get("additionalRequirementBusinessTermId"),
	}
	if field, ok := models.ParseSortField(q.Get("sortBy")); ok {
		filter.SortBy = field
	}
	filter.SortOrder = pagination.ParseSortOrder(q.Get("sortOrder"))
	return filter
}
