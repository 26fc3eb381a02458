// Package service orchestrates specification management: permission checks,
// parent-child consistency, and the translation of store sentinels into
// coded errors.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"specregistry/internal/audit"
	"specregistry/internal/specification/metrics"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/pagination"
	"specregistry/pkg/requestcontext"
)

// SpecificationStore persists specification headers.
type SpecificationStore interface {
	ListPaginated(ctx context.Context, filter models.ListFilter, includeSubmittedAndInProgress bool) (pagination.PagedResult[models.Specification], error)
	List(ctx context.Context, includeSubmittedAndInProgress bool) ([]models.Specification, error)
	ListByGroup(ctx context.Context, groupID domain.UserGroupID) ([]models.Specification, error)
	GetByID(ctx context.Context, id domain.SpecificationID) (*models.Specification, error)
	Exists(ctx context.Context, id domain.SpecificationID) (bool, error)
	HasCoreElements(ctx context.Context, id domain.SpecificationID) (bool, error)
	HasExtensionElements(ctx context.Context, id domain.SpecificationID) (bool, error)
	Create(ctx context.Context, spec *models.Specification) error
	Update(ctx context.Context, spec *models.Specification) error
	Delete(ctx context.Context, id domain.SpecificationID) error
	Touch(ctx context.Context, id domain.SpecificationID, now time.Time) error
}

// CoreElementStore persists core-element children. Single-element lookups are
// scoped to the parent so an ID under a different specification reads as
// absent.
type CoreElementStore interface {
	ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.CoreElement], error)
	GetForSpecification(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) (*models.CoreElement, error)
	Create(ctx context.Context, el *models.CoreElement) error
	Update(ctx context.Context, el *models.CoreElement) error
	Delete(ctx context.Context, id domain.ElementID) error
}

// ExtensionElementStore persists extension-element children. Lookups are
// parent-scoped like CoreElementStore's.
type ExtensionElementStore interface {
	ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.ExtensionElement], error)
	GetForSpecification(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) (*models.ExtensionElement, error)
	Create(ctx context.Context, el *models.ExtensionElement) error
	Update(ctx context.Context, el *models.ExtensionElement) error
	Delete(ctx context.Context, id domain.ElementID) error
}

// AdditionalRequirementStore persists additional-requirement children.
type AdditionalRequirementStore interface {
	ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.AdditionalRequirement], error)
	Get(ctx context.Context, specID domain.SpecificationID, businessTermID string) (*models.AdditionalRequirement, error)
	Create(ctx context.Context, req *models.AdditionalRequirement) error
	Update(ctx context.Context, req *models.AdditionalRequirement) error
	Delete(ctx context.Context, specID domain.SpecificationID, businessTermID string) error
}

// ReferenceModels validates links into the shared reference tables.
type ReferenceModels interface {
	CoreTermExists(ctx context.Context, id string) (bool, error)
	ExtensionTermExists(ctx context.Context, componentID, businessTermID string) (bool, error)
}

// ListingCache caches public listing pages.
type ListingCache interface {
	Get(ctx context.Context, filter models.ListFilter) (pagination.PagedResult[models.Specification], bool)
	Set(ctx context.Context, filter models.ListFilter, result pagination.PagedResult[models.Specification])
	Invalidate(ctx context.Context)
}

// AuditPublisher records mutation events. Publishing is fail-open.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service orchestrates specification management.
type Service struct {
	specs     SpecificationStore
	core      CoreElementStore
	extension ExtensionElementStore
	addReqs   AdditionalRequirementStore
	refModels ReferenceModels

	cache   ListingCache
	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithListingCache(cache ListingCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(specs SpecificationStore, core CoreElementStore, extension ExtensionElementStore, addReqs AdditionalRequirementStore, refModels ReferenceModels, opts ...Option) *Service {
	s := &Service{
		specs:     specs,
		core:      core,
		extension: extension,
		addReqs:   addReqs,
		refModels: refModels,
		tracer:    otel.Tracer("specregistry/specification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// canEdit is the single write-permission rule. Anonymous callers can edit
// nothing, admins can edit everything, and everyone else can edit exactly the
// specifications owned by their group.
func canEdit(user *domain.UserContext, spec *models.Specification) bool {
	if user == nil {
		return false
	}
	if user.Role.IsAdmin() {
		return true
	}
	return spec.OwnedBy(user.GroupID)
}

// sameGroup reports whether two optional group references name the same
// owner.
func sameGroup(a, b *domain.UserGroupID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, event)
	}
}

func (s *Service) invalidateListing(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// touchParent refreshes the parent's modification timestamp after a child
// mutation. Best-effort: a failed touch is logged, never surfaced, since the
// child change itself already committed.
func (s *Service) touchParent(ctx context.Context, id domain.SpecificationID) {
	if err := s.specs.Touch(ctx, id, requestcontext.Now(ctx)); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to touch parent specification",
			"specification_id", id, "error", err)
	}
}
