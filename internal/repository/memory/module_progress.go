package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

type ModuleProgressRepository struct {
	db *DB
}

func NewModuleProgressRepository(db *DB) *ModuleProgressRepository {
	return &ModuleProgressRepository{db: db}
}

func cloneModuleProgress(p *entities.ModuleProgress) *entities.ModuleProgress {
	c := *p
	c.CompletionDate = copyTime(p.CompletionDate)
	return &c
}

func (r *ModuleProgressRepository) Upsert(_ context.Context, p *entities.ModuleProgress) (*entities.ModuleProgress, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.checkRefs(p.UserID, p.ModuleID); err != nil {
		return nil, fmt.Errorf("upsert module progress: %w", err)
	}

	if !r.db.hasLessons(p.UserID, p.ModuleID) {
		return nil, repository.ErrProgressNotFound
	}

	key := pairKey{p.UserID, p.ModuleID}
	next := p.Merge(r.db.progress[key], r.db.now())
	r.db.progress[key] = next

	return cloneModuleProgress(next), nil
}

func (r *ModuleProgressRepository) Get(_ context.Context, userID, moduleID int64) (*entities.ModuleProgress, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.progress[pairKey{userID, moduleID}]
	if !ok {
		return nil, repository.ErrModuleProgressNotFound
	}
	return cloneModuleProgress(p), nil
}

func (r *ModuleProgressRepository) DeleteOrphan(_ context.Context, userID, moduleID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := pairKey{userID, moduleID}
	if _, ok := r.db.progress[key]; !ok || r.db.hasLessons(userID, moduleID) {
		return false, nil
	}
	delete(r.db.progress, key)
	return true, nil
}

func (r *ModuleProgressRepository) ListByUser(_ context.Context, userID int64) ([]*entities.ModuleProgress, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*entities.ModuleProgress, 0)
	for k, p := range r.db.progress {
		if k.userID == userID {
			out = append(out, cloneModuleProgress(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleID < out[j].ModuleID })

	return out, nil
}
