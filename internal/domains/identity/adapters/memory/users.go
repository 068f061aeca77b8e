package memory

import (
	"context"
	"sync"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

// UserRepository keeps accounts in process memory.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneUser(user)
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return cloneUser(stored), nil
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}
