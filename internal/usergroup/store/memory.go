package store

import (
	"context"
	"sort"
	"sync"

	"specregistry/internal/usergroup/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/platform/sentinel"
)

// MemoryStore is an in-memory group store for tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	groups   map[domain.UserGroupID]models.UserGroup
	names    map[string]domain.UserGroupID
	nextID   domain.UserGroupID
	refCheck func(domain.UserGroupID) bool
}

// NewMemoryStore constructs an empty in-memory group store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups: make(map[domain.UserGroupID]models.UserGroup),
		names:  make(map[string]domain.UserGroupID),
		nextID: 1,
	}
}

func (s *MemoryStore) Create(_ context.Context, group *models.UserGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.names[group.Name]; ok {
		return sentinel.ErrConflict
	}
	group.ID = s.nextID
	s.nextID++
	s.groups[group.ID] = *group
	s.names[group.Name] = group.ID
	return nil
}

// SetReferenceCheck installs the predicate Delete consults to mirror the
// foreign key constraints the database enforces.
func (s *MemoryStore) SetReferenceCheck(check func(domain.UserGroupID) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refCheck = check
}

func (s *MemoryStore) Update(_ context.Context, group *models.UserGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.groups[group.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if other, taken := s.names[group.Name]; taken && other != group.ID {
		return sentinel.ErrConflict
	}
	delete(s.names, current.Name)
	s.names[group.Name] = group.ID
	group.CreatedAt = current.CreatedAt
	s.groups[group.ID] = *group
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id domain.UserGroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.refCheck != nil && s.refCheck(id) {
		return sentinel.ErrForeignKey
	}
	delete(s.names, group.Name)
	delete(s.groups, id)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id domain.UserGroupID) (*models.UserGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &group, nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.UserGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.UserGroup, 0, len(s.groups))
	for _, group := range s.groups {
		items = append(items, group)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *MemoryStore) Exists(_ context.Context, id domain.UserGroupID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.groups[id]
	return ok, nil
}
