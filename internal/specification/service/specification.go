package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"specregistry/internal/audit"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/sentinel"
	"specregistry/pkg/requestcontext"
)

// List returns the public specification listing. Anonymous and regular
// callers never see submitted or in-progress entries; admins see everything.
// Only the public view is cache-eligible.
func (s *Service) List(ctx context.Context, filter models.ListFilter) (pagination.PagedResult[models.Specification], error) {
	ctx, span := s.tracer.Start(ctx, "specification.List")
	defer span.End()
	start := time.Now()

	user := requestcontext.User(ctx)
	includeHidden := user != nil && user.Role.IsAdmin()

	if !includeHidden && s.cache != nil {
		if result, ok := s.cache.Get(ctx, filter); ok {
			if s.metrics != nil {
				s.metrics.IncrementCacheHit()
				s.metrics.ObserveList(start)
			}
			return result, nil
		}
		if s.metrics != nil {
			s.metrics.IncrementCacheMiss()
		}
	}

	result, err := s.specs.ListPaginated(ctx, filter, includeHidden)
	if err != nil {
		span.RecordError(err)
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list specifications")
	}
	if !includeHidden && s.cache != nil {
		s.cache.Set(ctx, filter, result)
	}
	if s.metrics != nil {
		s.metrics.ObserveList(start)
	}
	return result, nil
}

// ListMine returns every specification owned by the caller's group, ordered
// by identifier. Hidden statuses are included: this is the owner's own view.
// Admins see the whole register, whether or not they belong to a group.
func (s *Service) ListMine(ctx context.Context) ([]models.Specification, error) {
	user := requestcontext.User(ctx)
	if user == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if user.Role.IsAdmin() {
		items, err := s.specs.List(ctx, true)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list specifications")
		}
		return items, nil
	}
	if user.GroupID == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "user is not assigned to a group")
	}
	items, err := s.specs.ListByGroup(ctx, *user.GroupID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list group specifications")
	}
	return items, nil
}

// Get returns one specification with one page of each child collection. The
// three child pages are fetched in parallel.
func (s *Service) Get(ctx context.Context, id domain.SpecificationID, pages models.ChildPages) (*models.SpecificationDetails, error) {
	ctx, span := s.tracer.Start(ctx, "specification.Get")
	defer span.End()
	start := time.Now()

	spec, err := s.specs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "specification not found")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load specification")
	}

	details := &models.SpecificationDetails{Specification: *spec}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details.CoreElements, err = s.core.ListBySpecification(gctx, id, pages.Core)
		return err
	})
	g.Go(func() error {
		var err error
		details.ExtensionElements, err = s.extension.ListBySpecification(gctx, id, pages.Extension)
		return err
	})
	g.Go(func() error {
		var err error
		details.AdditionalRequirements, err = s.addReqs.ListBySpecification(gctx, id, pages.AdditionalRequirements)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load specification elements")
	}

	if s.metrics != nil {
		s.metrics.ObserveGet(start)
	}
	return details, nil
}

// Create registers a new specification. Regular users register into their
// own group; admins may register into any group, or into none.
func (s *Service) Create(ctx context.Context, spec *models.Specification) (*models.Specification, error) {
	ctx, span := s.tracer.Start(ctx, "specification.Create")
	defer span.End()

	user := requestcontext.User(ctx)
	if user == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := validateSpecification(spec); err != nil {
		return nil, err
	}

	if !user.Role.IsAdmin() {
		if user.GroupID == nil {
			return nil, dErrors.New(dErrors.CodeForbidden, "user is not assigned to a group")
		}
		spec.GroupID = user.GroupID
	}

	now := requestcontext.Now(ctx)
	spec.ID = 0
	spec.CreatedAt = now
	spec.ModifiedAt = now
	if spec.RegistrationStatus == "" {
		spec.RegistrationStatus = models.RegistrationSubmitted
	}
	if spec.ImplementationStatus == "" {
		spec.ImplementationStatus = models.ImplementationPlanned
	}

	if err := s.specs.Create(ctx, spec); err != nil {
		if errors.Is(err, sentinel.ErrForeignKey) {
			return nil, dErrors.New(dErrors.CodeRefNotFound, "user group not found")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create specification")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionSpecificationCreated, SpecificationID: spec.ID})
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.invalidateListing(ctx)
	return spec, nil
}

// Update rewrites a specification's descriptive fields. The creation
// timestamp is preserved. An omitted group leaves ownership unchanged; a
// group different from the current owner is an ownership transfer and is
// admin only.
func (s *Service) Update(ctx context.Context, spec *models.Specification) (*models.Specification, error) {
	ctx, span := s.tracer.Start(ctx, "specification.Update")
	defer span.End()

	existing, err := s.specs.GetByID(ctx, spec.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "specification not found")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load specification")
	}
	user := requestcontext.User(ctx)
	if !canEdit(user, existing) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to edit this specification")
	}
	if err := validateSpecification(spec); err != nil {
		return nil, err
	}

	spec.CreatedAt = existing.CreatedAt
	if spec.GroupID == nil {
		spec.GroupID = existing.GroupID
		spec.GroupName = existing.GroupName
	} else if !sameGroup(spec.GroupID, existing.GroupID) {
		if user == nil || !user.Role.IsAdmin() {
			return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may change the owning group")
		}
		spec.GroupName = ""
	}
	spec.ModifiedAt = requestcontext.Now(ctx)

	if err := s.specs.Update(ctx, spec); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "specification not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "specification conflicts with an existing entry")
		case errors.Is(err, sentinel.ErrForeignKey):
			return nil, dErrors.New(dErrors.CodeRefNotFound, "user group not found")
		default:
			span.RecordError(err)
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to save specification")
		}
	}

	s.emit(ctx, audit.Event{Action: audit.ActionSpecificationUpdated, SpecificationID: spec.ID})
	s.invalidateListing(ctx)
	return spec, nil
}

// Delete removes a specification. Core and extension elements block deletion;
// additional requirements do not, they are removed with their parent.
func (s *Service) Delete(ctx context.Context, id domain.SpecificationID) error {
	ctx, span := s.tracer.Start(ctx, "specification.Delete")
	defer span.End()

	existing, err := s.specs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "specification not found")
		}
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load specification")
	}
	if !canEdit(requestcontext.User(ctx), existing) {
		return dErrors.New(dErrors.CodeForbidden, "not allowed to delete this specification")
	}

	hasCore, err := s.specs.HasCoreElements(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check core elements")
	}
	hasExtension, err := s.specs.HasExtensionElements(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check extension elements")
	}
	if hasCore || hasExtension {
		return dErrors.New(dErrors.CodeConflict, "specification still has model elements")
	}

	if err := s.specs.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "specification not found")
		case errors.Is(err, sentinel.ErrForeignKey):
			// An element was added between the check and the delete.
			return dErrors.New(dErrors.CodeConflict, "specification still has model elements")
		default:
			span.RecordError(err)
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete specification")
		}
	}

	s.emit(ctx, audit.Event{Action: audit.ActionSpecificationDeleted, SpecificationID: id})
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	s.invalidateListing(ctx)
	return nil
}

// AssignToGroup moves a specification to another owning group, or clears the
// owner when groupID is nil. Admin only.
func (s *Service) AssignToGroup(ctx context.Context, id domain.SpecificationID, groupID *domain.UserGroupID) (*models.Specification, error) {
	user := requestcontext.User(ctx)
	if user == nil || !user.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may assign specifications to groups")
	}

	existing, err := s.specs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "specification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load specification")
	}

	existing.GroupID = groupID
	existing.GroupName = ""
	existing.ModifiedAt = requestcontext.Now(ctx)

	if err := s.specs.Update(ctx, existing); err != nil {
		if errors.Is(err, sentinel.ErrForeignKey) {
			return nil, dErrors.New(dErrors.CodeRefNotFound, "user group not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign specification")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionSpecificationMoved, SpecificationID: id})
	s.invalidateListing(ctx)
	return existing, nil
}
