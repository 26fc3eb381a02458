package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"specregistry/internal/user/models"
	"specregistry/pkg/domain"
	"specregistry/pkg/platform/sentinel"
)

// MemoryStore is an in-memory user store for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[domain.UserID]models.User
	emails map[string]domain.UserID
	nextID domain.UserID
}

// NewMemoryStore constructs an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[domain.UserID]models.User),
		emails: make(map[string]domain.UserID),
		nextID: 1,
	}
}

func (s *MemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[user.Email]; ok {
		return sentinel.ErrConflict
	}
	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = *user
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) FindByRefreshToken(_ context.Context, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.RefreshToken != nil && *user.RefreshToken == token {
			u := user
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *MemoryStore) ListByGroup(_ context.Context, groupID domain.UserGroupID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for _, user := range s.users {
		if user.GroupID != nil && *user.GroupID == groupID {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *MemoryStore) AssignToGroup(_ context.Context, id domain.UserID, groupID *domain.UserGroupID) error {
	return s.update(id, func(user *models.User) { user.GroupID = groupID })
}

func (s *MemoryStore) UpdateRole(_ context.Context, id domain.UserID, role domain.Role) error {
	return s.update(id, func(user *models.User) { user.Role = role })
}

func (s *MemoryStore) SetActive(_ context.Context, id domain.UserID, active bool) error {
	return s.update(id, func(user *models.User) { user.Active = active })
}

func (s *MemoryStore) SaveRefreshToken(_ context.Context, id domain.UserID, token *string, expiresAt *time.Time) error {
	return s.update(id, func(user *models.User) {
		user.RefreshToken = token
		user.RefreshTokenExpiry = expiresAt
	})
}

func (s *MemoryStore) StampLogin(_ context.Context, id domain.UserID, at time.Time) error {
	return s.update(id, func(user *models.User) {
		t := at
		user.LastLogin = &t
	})
}

func (s *MemoryStore) Delete(_ context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.emails, user.Email)
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) update(id domain.UserID, apply func(user *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	apply(&user)
	s.users[id] = user
	return nil
}
