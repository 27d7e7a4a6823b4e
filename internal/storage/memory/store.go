// Package memory provides a process-local UserStore used by tests and by
// deployments started with store=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/reward-auth/internal/models"
	"github.com/hongminglow/reward-auth/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in a map guarded by a single mutex.
type Store struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*models.User
	now    func() time.Time
}

// NewUserStore returns an empty store.
func NewUserStore() *Store {
	return &Store{users: make(map[string]*models.User), now: time.Now}
}

// FindByIdentity returns a copy of the stored user.
func (s *Store) FindByIdentity(_ context.Context, identity string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[identity]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return *u, nil
}

// CreateUser inserts user, rejecting an identity that is already present.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Identity]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.nextID++
	user.ID = s.nextID
	user.LoginCount = 0
	user.RecommendCount = 0
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	stored := user
	s.users[user.Identity] = &stored
	return user, nil
}

func (s *Store) IncrementLoginCount(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementLoginCount(identity)
}

func (s *Store) IncrementRecommendCount(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[identity]
	if !ok {
		return storage.ErrNotFound
	}
	u.RecommendCount++
	return nil
}

func (s *Store) TouchLastLogin(_ context.Context, identity string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchLastLogin(identity, at)
}

// RecordLogin applies the attendance decision and timestamp update as one step.
func (s *Store) RecordLogin(_ context.Context, identity string, at time.Time, due storage.AttendanceFunc) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[identity]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if due != nil && due(*u) {
		if err := s.incrementLoginCount(identity); err != nil {
			return models.User{}, err
		}
	}
	if err := s.touchLastLogin(identity, at); err != nil {
		return models.User{}, err
	}
	return *u, nil
}

func (s *Store) incrementLoginCount(identity string) error {
	u, ok := s.users[identity]
	if !ok {
		return storage.ErrNotFound
	}
	u.LoginCount++
	return nil
}

// lastLoginAt never moves backwards.
func (s *Store) touchLastLogin(identity string, at time.Time) error {
	u, ok := s.users[identity]
	if !ok {
		return storage.ErrNotFound
	}
	if at.After(u.LastLoginAt) {
		u.LastLoginAt = at
	}
	return nil
}
