package memory

import (
	"context"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

type ModuleRepository struct {
	db *DB
}

func NewModuleRepository(db *DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

func (r *ModuleRepository) GetByID(_ context.Context, moduleID int64) (*entities.Module, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.modules[moduleID]
	if !ok {
		return nil, repository.ErrModuleNotFound
	}
	c := *m
	return &c, nil
}

// Upsert registers or replaces a module definition.
func (r *ModuleRepository) Upsert(_ context.Context, m *entities.Module) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c := *m
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.db.now()
	}
	r.db.modules[m.ID] = &c
	return nil
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(_ context.Context, userID int64) (*entities.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// Save inserts a user or renames an existing one. It reports whether the user was created.
func (r *UserRepository) Save(_ context.Context, user *entities.User) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.users[user.ID]
	if ok {
		existing.Username = user.Username
		return false, nil
	}

	u := *user
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.db.now()
	}
	r.db.users[u.ID] = &u
	return true, nil
}
