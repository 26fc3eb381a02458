// Package handler exposes the shared reference models over HTTP. All routes
// are read-only and public.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"specregistry/internal/refmodel/models"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/httputil"
)

// Service is the reference model surface the handler depends on.
type Service interface {
	CoreTerms(ctx context.Context, page pagination.Params) (pagination.PagedResult[models.CoreInvoiceTerm], error)
	ExtensionHeaders(ctx context.Context) ([]models.ExtensionComponentHeader, error)
	ExtensionTerms(ctx context.Context, componentID string) ([]models.ExtensionTerm, error)
}

// Handler handles reference model endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a reference model Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the reference model routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/coreinvoicemodels", h.handleCoreTerms)
	r.Get("/extensionmodels/headers", h.handleExtensionHeaders)
	r.Get("/extensionmodels/elements/{extensionComponentId}", h.handleExtensionTerms)
}

func (h *Handler) handleCoreTerms(w http.ResponseWriter, r *http.Request) {
	page := pagination.Params{
		PageNumber: httputil.QueryInt(r, "pageNumber", 1),
		PageSize:   httputil.QueryInt(r, "pageSize", pagination.DefaultPageSize),
	}
	result, err := h.service.CoreTerms(r.Context(), page)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list core invoice model", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleExtensionHeaders(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ExtensionHeaders(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list extension headers", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleExtensionTerms(w http.ResponseWriter, r *http.Request) {
	componentID := chi.URLParam(r, "extensionComponentId")
	items, err := h.service.ExtensionTerms(r.Context(), componentID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list extension terms", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}
