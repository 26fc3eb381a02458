package service

import (
	"context"
	"errors"

	"specregistry/internal/audit"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/sentinel"
	"specregistry/pkg/requestcontext"
)

// editableParent loads the parent specification and enforces the write rule.
func (s *Service) editableParent(ctx context.Context, id domain.SpecificationID) (*models.Specification, error) {
	spec, err := s.specs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "specification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load specification")
	}
	if !canEdit(requestcontext.User(ctx), spec) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to edit this specification")
	}
	return spec, nil
}

// --- core elements ---

// requireParent checks that the parent specification exists.
func (s *Service) requireParent(ctx context.Context, id domain.SpecificationID) error {
	exists, err := s.specs.Exists(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load specification")
	}
	if !exists {
		return dErrors.New(dErrors.CodeNotFound, "specification not found")
	}
	return nil
}

// ListCoreElements returns one page of a specification's core elements.
func (s *Service) ListCoreElements(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.CoreElement], error) {
	var zero pagination.PagedResult[models.CoreElement]
	if err := s.requireParent(ctx, specID); err != nil {
		return zero, err
	}
	result, err := s.core.ListBySpecification(ctx, specID, page)
	if err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list core elements")
	}
	return result, nil
}

// AddCoreElement links one core invoice term to the specification.
func (s *Service) AddCoreElement(ctx context.Context, el *models.CoreElement) (*models.CoreElement, error) {
	if _, err := s.editableParent(ctx, el.SpecificationID); err != nil {
		return nil, err
	}
	if err := validateCoreElement(el); err != nil {
		return nil, err
	}
	if err := s.requireCoreTerm(ctx, el.BusinessTermID); err != nil {
		return nil, err
	}

	el.ID = 0
	if err := s.core.Create(ctx, el); err != nil {
		if errors.Is(err, sentinel.ErrForeignKey) {
			return nil, dErrors.New(dErrors.CodeRefNotFound, "core invoice term not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add core element")
	}

	s.touchParent(ctx, el.SpecificationID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionCoreElementAdded,
		SpecificationID: el.SpecificationID,
		BusinessTermID:  el.BusinessTermID,
	})
	s.invalidateListing(ctx)
	return el, nil
}

// UpdateCoreElement rewrites one core element. The element must belong to the
// named specification; an ID under another parent reads as not found.
func (s *Service) UpdateCoreElement(ctx context.Context, specID domain.SpecificationID, el *models.CoreElement) (*models.CoreElement, error) {
	if _, err := s.editableParent(ctx, specID); err != nil {
		return nil, err
	}
	if _, err := s.core.GetForSpecification(ctx, specID, el.ID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "core element not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load core element")
	}
	el.SpecificationID = specID
	if err := validateCoreElement(el); err != nil {
		return nil, err
	}
	if err := s.requireCoreTerm(ctx, el.BusinessTermID); err != nil {
		return nil, err
	}

	if err := s.core.Update(ctx, el); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "core element not found")
		case errors.Is(err, sentinel.ErrForeignKey):
			return nil, dErrors.New(dErrors.CodeRefNotFound, "core invoice term not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update core element")
		}
	}

	s.touchParent(ctx, el.SpecificationID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionCoreElementUpdated,
		SpecificationID: el.SpecificationID,
		BusinessTermID:  el.BusinessTermID,
	})
	s.invalidateListing(ctx)
	return el, nil
}

// DeleteCoreElement unlinks one core element from the named specification. An
// element ID under another parent reads as not found.
func (s *Service) DeleteCoreElement(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) error {
	if _, err := s.editableParent(ctx, specID); err != nil {
		return err
	}
	existing, err := s.core.GetForSpecification(ctx, specID, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "core element not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load core element")
	}

	if err := s.core.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "core element not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete core element")
	}

	s.touchParent(ctx, existing.SpecificationID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionCoreElementDeleted,
		SpecificationID: existing.SpecificationID,
		BusinessTermID:  existing.BusinessTermID,
	})
	s.invalidateListing(ctx)
	return nil
}

func (s *Service) requireCoreTerm(ctx context.Context, businessTermID string) error {
	exists, err := s.refModels.CoreTermExists(ctx, businessTermID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check core invoice term")
	}
	if !exists {
		return dErrors.New(dErrors.CodeRefNotFound, "core invoice term not found")
	}
	return nil
}

// --- extension elements ---

// ListExtensionElements returns one page of a specification's extension
// elements.
func (s *Service) ListExtensionElements(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.ExtensionElement], error) {
	var zero pagination.PagedResult[models.ExtensionElement]
	if err := s.requireParent(ctx, specID); err != nil {
		return zero, err
	}
	result, err := s.extension.ListBySpecification(ctx, specID, page)
	if err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list extension elements")
	}
	return result, nil
}

// AddExtensionElement links one extension model term to the specification.
func (s *Service) AddExtensionElement(ctx context.Context, el *models.ExtensionElement) (*models.ExtensionElement, error) {
	if _, err := s.editableParent(ctx, el.SpecificationID); err != nil {
		return nil, err
	}
	if err := validateExtensionElement(el); err != nil {
		return nil, err
	}
	if err := s.requireExtensionTerm(ctx, el.ExtensionComponentID, el.BusinessTermID); err != nil {
		return nil, err
	}

	el.ID = 0
	if err := s.extension.Create(ctx, el); err != nil {
		if errors.Is(err, sentinel.ErrForeignKey) {
			return nil, dErrors.New(dErrors.CodeRefNotFound, "extension model term not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add extension element")
	}

	s.touchParent(ctx, el.SpecificationID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionExtensionElementAdded,
		SpecificationID: el.SpecificationID,
		BusinessTermID:  el.BusinessTermID,
	})
	s.invalidateListing(ctx)
	return el, nil
}

// UpdateExtensionElement rewrites one extension element. The element must
// belong to the named specification; an ID under another parent reads as not
// found.
func (s *Service) UpdateExtensionElement(ctx context.Context, specID domain.SpecificationID, el *models.ExtensionElement) (*models.ExtensionElement, error) {
	if _, err := s.editableParent(ctx, specID); err != nil {
		return nil, err
	}
	if _, err := s.extension.GetForSpecification(ctx, specID, el.ID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "extension element not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load extension element")
	}
	el.SpecificationID = specID
	if err := validateExtensionElement(el); err != nil {
		return nil, err
	}
	if err := s.requireExtensionTerm(ctx, el.ExtensionComponentID, el.BusinessTermID); err != nil {
		return nil, err
	}

	if err := s.extension.Update(ctx, el); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "extension element not found")
		case errors.Is(err, sentinel.ErrForeignKey):
			return nil, dErrors.New(dErrors.CodeRefNotFound, "extension model term not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update extension element")
		}
	}

	s.touchParent(ctx, el.SpecificationID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionExtensionElementUpdated,
		SpecificationID: el.SpecificationID,
		BusinessTermID:  el.BusinessTermID,
	})
	s.invalidateListing(ctx)
	return el, nil
}

// DeleteExtensionElement unlinks one extension element from the named
// specification. An element ID under another parent reads as not found.
func (s *Service) DeleteExtensionElement(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) error {
	if _, err := s.editableParent(ctx, specID); err != nil {
		return err
	}
	existing, err := s.extension.GetForSpecification(ctx, specID, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "extension element not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load extension element")
	}

	if err := s.extension.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "extension element not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete extension element")
	}

	s.touchParent(ctx, existing.SpecificationID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionExtensionElementDeleted,
		SpecificationID: existing.SpecificationID,
		BusinessTermID:  existing.BusinessTermID,
	})
	s.invalidateListing(ctx)
	return nil
}

func (s *Service) requireExtensionTerm(ctx context.Context, componentID, businessTermID string) error {
	exists, err := s.refModels.ExtensionTermExists(ctx, componentID, businessTermID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check extension model term")
	}
	if !exists {
		return dErrors.New(dErrors.CodeRefNotFound, "extension model term not found")
	}
	return nil
}

// --- additional requirements ---

// ListAdditionalRequirements returns one page of a specification's
// additional requirements.
func (s *Service) ListAdditionalRequirements(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.AdditionalRequirement], error) {
	var zero pagination.PagedResult[models.AdditionalRequirement]
	if err := s.requireParent(ctx, specID); err != nil {
		return zero, err
	}
	result, err := s.addReqs.ListBySpecification(ctx, specID, page)
	if err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list additional requirements")
	}
	return result, nil
}

// AddAdditionalRequirement records a requirement outside the shared models.
// A specification holds at most one requirement per business term.
func (s *Service) AddAdditionalRequirement(ctx context.Context, req *models.AdditionalRequirement) (*models.AdditionalRequirement, error) {
	if _, err := s.editableParent(ctx, req.SpecificationID); err != nil {
		return nil, err
	}
	if err := validateAdditionalRequirement(req); err != nil {
		return nil, err
	}

	if err := s.addReqs.Create(ctx, req); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "a requirement for this business term already exists")
		case errors.Is(err, sentinel.ErrForeignKey):
			return nil, dErrors.New(dErrors.CodeNotFound, "specification not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add additional requirement")
		}
	}

	s.touchParent(ctx, req.SpecificationID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionRequirementAdded,
		SpecificationID: req.SpecificationID,
		BusinessTermID:  req.BusinessTermID,
	})
	s.invalidateListing(ctx)
	return req, nil
}

// UpdateAdditionalRequirement rewrites a requirement identified by its
// natural key.
func (s *Service) UpdateAdditionalRequirement(ctx context.Context, req *models.AdditionalRequirement) (*models.AdditionalRequirement, error) {
	if _, err := s.editableParent(ctx, req.SpecificationID); err != nil {
		return nil, err
	}
	if err := validateAdditionalRequirement(req); err != nil {
		return nil, err
	}

	if err := s.addReqs.Update(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "additional requirement not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update additional requirement")
	}

	s.touchParent(ctx, req.SpecificationID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionRequirementUpdated,
		SpecificationID: req.SpecificationID,
		BusinessTermID:  req.BusinessTermID,
	})
	s.invalidateListing(ctx)
	return req, nil
}

// DeleteAdditionalRequirement removes a requirement by its natural key.
func (s *Service) DeleteAdditionalRequirement(ctx context.Context, specID domain.SpecificationID, businessTermID string) error {
	if _, err := s.editableParent(ctx, specID); err != nil {
		return err
	}

	if err := s.addReqs.Delete(ctx, specID, businessTermID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "additional requirement not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete additional requirement")
	}

	s.touchParent(ctx, specID)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionRequirementDeleted,
		SpecificationID: specID,
		BusinessTermID:  businessTermID,
	})
	s.invalidateListing(ctx)
	return nil
}
