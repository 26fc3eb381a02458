package store

import (
	"context"
	"sort"
	"sync"

	"specregistry/internal/refmodel/models"
	"specregistry/pkg/pagination"
)

// MemoryStore is an in-memory reference model store for tests and local runs.
// It favors clarity over performance.
type MemoryStore struct {
	mu             sync.RWMutex
	coreTerms      map[string]models.CoreInvoiceTerm
	headers        map[string]models.ExtensionComponentHeader
	extensionTerms []models.ExtensionTerm
}

// NewMemoryStore constructs an empty in-memory reference model store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		coreTerms: make(map[string]models.CoreInvoiceTerm),
		headers:   make(map[string]models.ExtensionComponentHeader),
	}
}

// SeedCoreTerms loads core-model entries. Test setup only.
func (s *MemoryStore) SeedCoreTerms(terms ...models.CoreInvoiceTerm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range terms {
		s.coreTerms[t.ID] = t
	}
}

// SeedExtensionComponents loads a header and its terms. Test setup only.
func (s *MemoryStore) SeedExtensionComponents(header models.ExtensionComponentHeader, terms ...models.ExtensionTerm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers[header.ID] = header
	s.extensionTerms = append(s.extensionTerms, terms...)
}

func (s *MemoryStore) ListCoreTerms(_ context.Context, page pagination.Params) (pagination.PagedResult[models.CoreInvoiceTerm], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.CoreInvoiceTerm, 0, len(s.coreTerms))
	for _, t := range s.coreTerms {
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].RowPos < items[j].RowPos })
	return pagination.Paginate(items, page), nil
}

func (s *MemoryStore) ListExtensionHeaders(_ context.Context) ([]models.ExtensionComponentHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.ExtensionComponentHeader, 0, len(s.headers))
	for _, h := range s.headers {
		items = append(items, h)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemoryStore) ListExtensionTerms(_ context.Context, componentID string) ([]models.ExtensionTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.ExtensionTerm, 0)
	for _, t := range s.extensionTerms {
		if t.ExtensionComponentID == componentID {
			items = append(items, t)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].BusinessTermID < items[j].BusinessTermID })
	return items, nil
}

func (s *MemoryStore) CoreTermExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.coreTerms[id]
	return ok, nil
}

func (s *MemoryStore) ExtensionTermExists(_ context.Context, componentID, businessTermID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.extensionTerms {
		if t.ExtensionComponentID == componentID && t.BusinessTermID == businessTermID {
			return true, nil
		}
	}
	return false, nil
}

// FindCoreTerm returns the core-model entry for an ID, if present.
func (s *MemoryStore) FindCoreTerm(id string) (models.CoreInvoiceTerm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.coreTerms[id]
	return t, ok
}

// FindExtensionTerm returns the extension-model entry for a composite key, if
// present.
func (s *MemoryStore) FindExtensionTerm(componentID, businessTermID string) (models.ExtensionTerm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.extensionTerms {
		if t.ExtensionComponentID == componentID && t.BusinessTermID == businessTermID {
			return t, true
		}
	}
	return models.ExtensionTerm{}, false
}
