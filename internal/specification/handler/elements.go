package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"specregistry/internal/specification/models"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/platform/httputil"
)

func (h *Handler) handleListCoreElements(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListCoreElements(r.Context(), id, pageFromQuery(r, "pageNumber", "pageSize"))
	if err != nil {
		h.writeError(w, r, err, "failed to list core elements")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAddCoreElement(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	el, ok := httputil.Decode[models.CoreElement](w, r, h.logger)
	if !ok {
		return
	}
	el.SpecificationID = id
	created, err := h.service.AddCoreElement(r.Context(), &el)
	if err != nil {
		h.writeError(w, r, err, "failed to add core element")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateCoreElement(w http.ResponseWriter, r *http.Request) {
	specID, ok := specificationID(w, r)
	if !ok {
		return
	}
	id, ok := elementID(w, r)
	if !ok {
		return
	}
	el, ok := httputil.Decode[models.CoreElement](w, r, h.logger)
	if !ok {
		return
	}
	el.ID = id
	updated, err := h.service.UpdateCoreElement(r.Context(), specID, &el)
	if err != nil {
		h.writeError(w, r, err, "failed to update core element")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteCoreElement(w http.ResponseWriter, r *http.Request) {
	specID, ok := specificationID(w, r)
	if !ok {
		return
	}
	id, ok := elementID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCoreElement(r.Context(), specID, id); err != nil {
		h.writeError(w, r, err, "failed to delete core element")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListExtensionElements(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListExtensionElements(r.Context(), id, pageFromQuery(r, "pageNumber", "pageSize"))
	if err != nil {
		h.writeError(w, r, err, "failed to list extension elements")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAddExtensionElement(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	el, ok := httputil.Decode[models.ExtensionElement](w, r, h.logger)
	if !ok {
		return
	}
	el.SpecificationID = id
	created, err := h.service.AddExtensionElement(r.Context(), &el)
	if err != nil {
		h.writeError(w, r, err, "failed to add extension element")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateExtensionElement(w http.ResponseWriter, r *http.Request) {
	specID, ok := specificationID(w, r)
	if !ok {
		return
	}
	id, ok := elementID(w, r)
	if !ok {
		return
	}
	el, ok := httputil.Decode[models.ExtensionElement](w, r, h.logger)
	if !ok {
		return
	}
	el.ID = id
	updated, err := h.service.UpdateExtensionElement(r.Context(), specID, &el)
	if err != nil {
		h.writeError(w, r, err, "failed to update extension element")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteExtensionElement(w http.ResponseWriter, r *http.Request) {
	specID, ok := specificationID(w, r)
	if !ok {
		return
	}
	id, ok := elementID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteExtensionElement(r.Context(), specID, id); err != nil {
		h.writeError(w, r, err, "failed to delete extension element")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAdditionalRequirements(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListAdditionalRequirements(r.Context(), id, pageFromQuery(r, "pageNumber", "pageSize"))
	if err != nil {
		h.writeError(w, r, err, "failed to list additional requirements")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAddAdditionalRequirement(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[models.AdditionalRequirement](w, r, h.logger)
	if !ok {
		return
	}
	req.SpecificationID = id
	created, err := h.service.AddAdditionalRequirement(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err, "failed to add additional requirement")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateAdditionalRequirement(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	termID := chi.URLParam(r, "businessTermId")
	if termID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "business term id is required"))
		return
	}
	req, ok := httputil.Decode[models.AdditionalRequirement](w, r, h.logger)
	if !ok {
		return
	}
	req.SpecificationID = id
	req.BusinessTermID = termID
	updated, err := h.service.UpdateAdditionalRequirement(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err, "failed to update additional requirement")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteAdditionalRequirement(w http.ResponseWriter, r *http.Request) {
	id, ok := specificationID(w, r)
	if !ok {
		return
	}
	termID := chi.URLParam(r, "businessTermId")
	if termID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "business term id is required"))
		return
	}
	if err := h.service.DeleteAdditionalRequirement(r.Context(), id, termID); err != nil {
		h.writeError(w, r, err, "failed to delete additional requirement")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
