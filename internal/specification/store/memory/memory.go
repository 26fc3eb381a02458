// Package memory is an in-memory implementation of the specification stores.
// It mirrors the PostgreSQL stores' behavior closely enough for service and
// handler tests, and keeps local runs dependency-free.
//
// One Registry value backs all four store interfaces because the
// child-membership filters and eager term loading cut across collections.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	refstore "specregistry/internal/refmodel/store"
	"specregistry/internal/specification/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/pagination"
	"specregistry/pkg/platform/sentinel"
)

// Registry holds every specification collection in memory.
type Registry struct {
	mu sync.RWMutex

	refModels *refstore.MemoryStore

	specs      map[domain.SpecificationID]models.Specification
	groupNames map[domain.UserGroupID]string

	coreElements      map[domain.ElementID]models.CoreElement
	extensionElements map[domain.ElementID]models.ExtensionElement
	addReqs           map[addReqKey]models.AdditionalRequirement

	nextSpecID    domain.SpecificationID
	nextElementID domain.ElementID
}

type addReqKey struct {
	specID domain.SpecificationID
	termID string
}

// NewRegistry constructs an empty registry backed by the given reference
// models.
func NewRegistry(refModels *refstore.MemoryStore) *Registry {
	return &Registry{
		refModels:         refModels,
		specs:             make(map[domain.SpecificationID]models.Specification),
		groupNames:        make(map[domain.UserGroupID]string),
		coreElements:      make(map[domain.ElementID]models.CoreElement),
		extensionElements: make(map[domain.ElementID]models.ExtensionElement),
		addReqs:           make(map[addReqKey]models.AdditionalRequirement),
		nextSpecID:        1,
		nextElementID:     1,
	}
}

// SeedGroup registers a group name for eager loading. Test setup only.
func (r *Registry) SeedGroup(id domain.UserGroupID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupNames[id] = name
}

// --- specifications ---

func (r *Registry) ListPaginated(_ context.Context, filter models.ListFilter, includeSubmittedAndInProgress bool) (pagination.PagedResult[models.Specification], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.Specification, 0)
	for _, s := range r.specs {
		if r.matches(s, filter, includeSubmittedAndInProgress) {
			items = append(items, r.withGroupName(s))
		}
	}
	sortSpecifications(items, filter)
	return pagination.Paginate(items, filter.Page), nil
}

func (r *Registry) List(_ context.Context, includeSubmittedAndInProgress bool) ([]models.Specification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.Specification, 0)
	for _, s := range r.specs {
		if !includeSubmittedAndInProgress && s.RegistrationStatus.HiddenFromPublic() {
			continue
		}
		items = append(items, r.withGroupName(s))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ModifiedAt.After(items[j].ModifiedAt) })
	return items, nil
}

func (r *Registry) ListByGroup(_ context.Context, groupID domain.UserGroupID) ([]models.Specification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.Specification, 0)
	for _, s := range r.specs {
		if s.GroupID != nil && *s.GroupID == groupID {
			items = append(items, r.withGroupName(s))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Identifier < items[j].Identifier })
	return items, nil
}

func (r *Registry) GetByID(_ context.Context, id domain.SpecificationID) (*models.Specification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.specs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := r.withGroupName(s)
	return &out, nil
}

func (r *Registry) Exists(_ context.Context, id domain.SpecificationID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.specs[id]
	return ok, nil
}

func (r *Registry) HasCoreElements(_ context.Context, id domain.SpecificationID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, el := range r.coreElements {
		if el.SpecificationID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registry) HasExtensionElements(_ context.Context, id domain.SpecificationID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, el := range r.extensionElements {
		if el.SpecificationID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registry) Create(_ context.Context, spec *models.Specification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spec.GroupID != nil {
		if _, ok := r.groupNames[*spec.GroupID]; !ok {
			return sentinel.ErrForeignKey
		}
	}
	spec.ID = r.nextSpecID
	r.nextSpecID++
	r.specs[spec.ID] = *spec
	return nil
}

func (r *Registry) Update(_ context.Context, spec *models.Specification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.specs[spec.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if spec.GroupID != nil {
		if _, ok := r.groupNames[*spec.GroupID]; !ok {
			return sentinel.ErrForeignKey
		}
	}
	r.specs[spec.ID] = *spec
	return nil
}

func (r *Registry) Delete(_ context.Context, id domain.SpecificationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.specs[id]; !ok {
		return sentinel.ErrNotFound
	}
	for _, el := range r.coreElements {
		if el.SpecificationID == id {
			return sentinel.ErrForeignKey
		}
	}
	for _, el := range r.extensionElements {
		if el.SpecificationID == id {
			return sentinel.ErrForeignKey
		}
	}
	delete(r.specs, id)
	for key := range r.addReqs {
		if key.specID == id {
			delete(r.addReqs, key)
		}
	}
	return nil
}

func (r *Registry) Touch(_ context.Context, id domain.SpecificationID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.specs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.ModifiedAt = now
	r.specs[id] = s
	return nil
}

func (r *Registry) withGroupName(s models.Specification) models.Specification {
	if s.GroupID != nil {
		s.GroupName = r.groupNames[*s.GroupID]
	}
	return s
}

func (r *Registry) matches(s models.Specification, filter models.ListFilter, includeSubmittedAndInProgress bool) bool {
	if !includeSubmittedAndInProgress && s.RegistrationStatus.HiddenFromPublic() {
		return false
	}
	if term := filter.SearchTerm; term != "" {
		if !containsFold(s.Name, term) && !containsFold(s.Purpose, term) && !containsFold(s.Sector, term) {
			return false
		}
	}
	if filter.CoreBusinessTermID != "" && !r.hasCoreTermMatch(s.ID, filter.CoreBusinessTermID) {
		return false
	}
	if filter.ExtensionBusinessTermID != "" && !r.hasExtensionTermMatch(s.ID, filter.ExtensionBusinessTermID) {
		return false
	}
	if filter.AddReqBusinessTermID != "" && !r.hasAddReqTermMatch(s.ID, filter.AddReqBusinessTermID) {
		return false
	}
	if filter.SpecificationType != "" && !strings.EqualFold(s.Type, filter.SpecificationType) {
		return false
	}
	if filter.Sector != "" && !strings.EqualFold(s.Sector, filter.Sector) {
		return false
	}
	if filter.Country != "" {
		if s.Country == nil || !strings.EqualFold(*s.Country, filter.Country) {
			return false
		}
	}
	return true
}

func (r *Registry) hasCoreTermMatch(id domain.SpecificationID, term string) bool {
	for _, el := range r.coreElements {
		if el.SpecificationID == id && containsFold(el.BusinessTermID, term) {
			return true
		}
	}
	return false
}

func (r *Registry) hasExtensionTermMatch(id domain.SpecificationID, term string) bool {
	for _, el := range r.extensionElements {
		if el.SpecificationID == id && containsFold(el.BusinessTermID, term) {
			return true
		}
	}
	return false
}

func (r *Registry) hasAddReqTermMatch(id domain.SpecificationID, term string) bool {
	for key := range r.addReqs {
		if key.specID == id && containsFold(key.termID, term) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortSpecifications(items []models.Specification, filter models.ListFilter) {
	asc := filter.SortOrder != pagination.SortDesc
	less := func(a, b models.Specification) bool { return a.ModifiedAt.After(b.ModifiedAt) }

	switch filter.SortBy {
	case models.SortByName:
		less = func(a, b models.Specification) bool { return lessFold(a.Name, b.Name, asc) }
	case models.SortByPurpose:
		less = func(a, b models.Specification) bool { return lessFold(a.Purpose, b.Purpose, asc) }
	case models.SortBySector:
		less = func(a, b models.Specification) bool { return lessFold(a.Sector, b.Sector, asc) }
	case models.SortByCountry:
		less = func(a, b models.Specification) bool { return lessFold(deref(a.Country), deref(b.Country), asc) }
	case models.SortByType:
		less = func(a, b models.Specification) bool { return lessFold(a.Type, b.Type, asc) }
	case models.SortByModified:
		less = func(a, b models.Specification) bool { return lessTime(a.ModifiedAt, b.ModifiedAt, asc) }
	case models.SortByCreated:
		less = func(a, b models.Specification) bool { return lessTime(a.CreatedAt, b.CreatedAt, asc) }
	case models.SortByIdentifier:
		less = func(a, b models.Specification) bool { return lessFold(a.Identifier, b.Identifier, asc) }
	}

	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func lessFold(a, b string, asc bool) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if asc {
		return a < b
	}
	return a > b
}

func lessTime(a, b time.Time, asc bool) bool {
	if asc {
		return a.Before(b)
	}
	return a.After(b)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --- core elements ---

func (r *Registry) ListCoreBySpecification(_ context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.CoreElement], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.CoreElement, 0)
	for _, el := range r.coreElements {
		if el.SpecificationID == specID {
			items = append(items, r.withCoreTerm(el))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Term != nil && b.Term != nil && a.Term.RowPos != b.Term.RowPos {
			return a.Term.RowPos < b.Term.RowPos
		}
		return a.ID < b.ID
	})
	return pagination.Paginate(items, page), nil
}

func (r *Registry) GetCoreForSpecification(_ context.Context, specID domain.SpecificationID, id domain.ElementID) (*models.CoreElement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	el, ok := r.coreElements[id]
	if !ok || el.SpecificationID != specID {
		return nil, sentinel.ErrNotFound
	}
	out := r.withCoreTerm(el)
	return &out, nil
}

func (r *Registry) CreateCore(_ context.Context, el *models.CoreElement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.specs[el.SpecificationID]; !ok {
		return sentinel.ErrForeignKey
	}
	if _, ok := r.refModels.FindCoreTerm(el.BusinessTermID); !ok {
		return sentinel.ErrForeignKey
	}
	el.ID = r.nextElementID
	r.nextElementID++
	r.coreElements[el.ID] = *el
	return nil
}

func (r *Registry) UpdateCore(_ context.Context, el *models.CoreElement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.coreElements[el.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := r.refModels.FindCoreTerm(el.BusinessTermID); !ok {
		return sentinel.ErrForeignKey
	}
	r.coreElements[el.ID] = *el
	return nil
}

func (r *Registry) DeleteCore(_ context.Context, id domain.ElementID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.coreElements[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(r.coreElements, id)
	return nil
}

func (r *Registry) withCoreTerm(el models.CoreElement) models.CoreElement {
	if term, ok := r.refModels.FindCoreTerm(el.BusinessTermID); ok {
		el.Term = &term
	}
	return el
}

// --- extension elements ---

func (r *Registry) ListExtensionBySpecification(_ context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.ExtensionElement], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.ExtensionElement, 0)
	for _, el := range r.extensionElements {
		if el.SpecificationID == specID {
			items = append(items, r.withExtensionTerm(el))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ExtensionComponentID != b.ExtensionComponentID {
			return a.ExtensionComponentID < b.ExtensionComponentID
		}
		if a.BusinessTermID != b.BusinessTermID {
			return a.BusinessTermID < b.BusinessTermID
		}
		return a.ID < b.ID
	})
	return pagination.Paginate(items, page), nil
}

func (r *Registry) GetExtensionForSpecification(_ context.Context, specID domain.SpecificationID, id domain.ElementID) (*models.ExtensionElement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	el, ok := r.extensionElements[id]
	if !ok || el.SpecificationID != specID {
		return nil, sentinel.ErrNotFound
	}
	out := r.withExtensionTerm(el)
	return &out, nil
}

func (r *Registry) CreateExtension(_ context.Context, el *models.ExtensionElement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.specs[el.SpecificationID]; !ok {
		return sentinel.ErrForeignKey
	}
	if _, ok := r.refModels.FindExtensionTerm(el.ExtensionComponentID, el.BusinessTermID); !ok {
		return sentinel.ErrForeignKey
	}
	el.ID = r.nextElementID
	r.nextElementID++
	r.extensionElements[el.ID] = *el
	return nil
}

func (r *Registry) UpdateExtension(_ context.Context, el *models.ExtensionElement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.extensionElements[el.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := r.refModels.FindExtensionTerm(el.ExtensionComponentID, el.BusinessTermID); !ok {
		return sentinel.ErrForeignKey
	}
	r.extensionElements[el.ID] = *el
	return nil
}

func (r *Registry) DeleteExtension(_ context.Context, id domain.ElementID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.extensionElements[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(r.extensionElements, id)
	return nil
}

func (r *Registry) withExtensionTerm(el models.ExtensionElement) models.ExtensionElement {
	if term, ok := r.refModels.FindExtensionTerm(el.ExtensionComponentID, el.BusinessTermID); ok {
		el.Term = &term
	}
	return el
}

// --- additional requirements ---

func (r *Registry) ListAddReqBySpecification(_ context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.AdditionalRequirement], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.AdditionalRequirement, 0)
	for _, req := range r.addReqs {
		if req.SpecificationID == specID {
			items = append(items, req)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].RowPos != items[j].RowPos {
			return items[i].RowPos < items[j].RowPos
		}
		return items[i].BusinessTermID < items[j].BusinessTermID
	})
	return pagination.Paginate(items, page), nil
}

func (r *Registry) GetAddReq(_ context.Context, specID domain.SpecificationID, businessTermID string) (*models.AdditionalRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.addReqs[addReqKey{specID, businessTermID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

func (r *Registry) CreateAddReq(_ context.Context, req *models.AdditionalRequirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.specs[req.SpecificationID]; !ok {
		return sentinel.ErrForeignKey
	}
	key := addReqKey{req.SpecificationID, req.BusinessTermID}
	if _, ok := r.addReqs[key]; ok {
		return sentinel.ErrConflict
	}
	r.addReqs[key] = *req
	return nil
}

func (r *Registry) UpdateAddReq(_ context.Context, req *models.AdditionalRequirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := addReqKey{req.SpecificationID, req.BusinessTermID}
	if _, ok := r.addReqs[key]; !ok {
		return sentinel.ErrNotFound
	}
	r.addReqs[key] = *req
	return nil
}

func (r *Registry) DeleteAddReq(_ context.Context, specID domain.SpecificationID, businessTermID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := addReqKey{specID, businessTermID}
	if _, ok := r.addReqs[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(r.addReqs, key)
	return nil
}

// --- store views ---
//
// The registry keeps one struct so cross-entity rules (delete blocking,
// cascades, child filters) share state, but the service consumes one
// interface per entity. These views rename the child methods onto the
// per-entity shapes.

// CoreElements exposes the registry as a core-element store.
type CoreElements struct{ r *Registry }

func (r *Registry) CoreStore() *CoreElements { return &CoreElements{r} }

func (s *CoreElements) ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.CoreElement], error) {
	return s.r.ListCoreBySpecification(ctx, specID, page)
}

func (s *CoreElements) GetForSpecification(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) (*models.CoreElement, error) {
	return s.r.GetCoreForSpecification(ctx, specID, id)
}

func (s *CoreElements) Create(ctx context.Context, el *models.CoreElement) error {
	return s.r.CreateCore(ctx, el)
}

func (s *CoreElements) Update(ctx context.Context, el *models.CoreElement) error {
	return s.r.UpdateCore(ctx, el)
}

func (s *CoreElements) Delete(ctx context.Context, id domain.ElementID) error {
	return s.r.DeleteCore(ctx, id)
}

// ExtensionElements exposes the registry as an extension-element store.
type ExtensionElements struct{ r *Registry }

func (r *Registry) ExtensionStore() *ExtensionElements { return &ExtensionElements{r} }

func (s *ExtensionElements) ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.ExtensionElement], error) {
	return s.r.ListExtensionBySpecification(ctx, specID, page)
}

func (s *ExtensionElements) GetForSpecification(ctx context.Context, specID domain.SpecificationID, id domain.ElementID) (*models.ExtensionElement, error) {
	return s.r.GetExtensionForSpecification(ctx, specID, id)
}

func (s *ExtensionElements) Create(ctx context.Context, el *models.ExtensionElement) error {
	return s.r.CreateExtension(ctx, el)
}

func (s *ExtensionElements) Update(ctx context.Context, el *models.ExtensionElement) error {
	return s.r.UpdateExtension(ctx, el)
}

func (s *ExtensionElements) Delete(ctx context.Context, id domain.ElementID) error {
	return s.r.DeleteExtension(ctx, id)
}

// AdditionalRequirements exposes the registry as an additional-requirement
// store.
type AdditionalRequirements struct{ r *Registry }

func (r *Registry) AddReqStore() *AdditionalRequirements { return &AdditionalRequirements{r} }

func (s *AdditionalRequirements) ListBySpecification(ctx context.Context, specID domain.SpecificationID, page pagination.Params) (pagination.PagedResult[models.AdditionalRequirement], error) {
	return s.r.ListAddReqBySpecification(ctx, specID, page)
}

func (s *AdditionalRequirements) Get(ctx context.Context, specID domain.SpecificationID, businessTermID string) (*models.AdditionalRequirement, error) {
	return s.r.GetAddReq(ctx, specID, businessTermID)
}

func (s *AdditionalRequirements) Create(ctx context.Context, req *models.AdditionalRequirement) error {
	return s.r.CreateAddReq(ctx, req)
}

func (s *AdditionalRequirements) Update(ctx context.Context, req *models.AdditionalRequirement) error {
	return s.r.UpdateAddReq(ctx, req)
}

func (s *AdditionalRequirements) Delete(ctx context.Context, specID domain.SpecificationID, businessTermID string) error {
	return s.r.DeleteAddReq(ctx, specID, businessTermID)
}
