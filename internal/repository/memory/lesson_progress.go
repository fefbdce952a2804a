package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

type LessonProgressRepository struct {
	db *DB
}

func NewLessonProgressRepository(db *DB) *LessonProgressRepository {
	return &LessonProgressRepository{db: db}
}

func cloneLesson(p *entities.LessonProgress) *entities.LessonProgress {
	c := *p
	c.QuizScore = copyInt(p.QuizScore)
	c.CompletedAt = copyTime(p.CompletedAt)
	return &c
}

// Upsert inserts or replaces the unit record keyed by (user, module, lesson).
func (r *LessonProgressRepository) Upsert(_ context.Context, p *entities.LessonProgress) (*entities.LessonProgress, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.checkRefs(p.UserID, p.ModuleID); err != nil {
		return nil, fmt.Errorf("upsert lesson progress: %w", err)
	}

	key := lessonKey{p.UserID, p.ModuleID, p.LessonID}
	next := p.Merge(r.db.lessons[key], r.db.now())
	next.QuizScore = copyInt(p.QuizScore)
	r.db.lessons[key] = next

	return cloneLesson(next), nil
}

func (r *LessonProgressRepository) Get(_ context.Context, userID, moduleID int64, lessonID string) (*entities.LessonProgress, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.lessons[lessonKey{userID, moduleID, lessonID}]
	if !ok {
		return nil, repository.ErrProgressNotFound
	}
	return cloneLesson(p), nil
}

func (r *LessonProgressRepository) ListByModule(_ context.Context, userID, moduleID int64) ([]*entities.LessonProgress, error) {
	return r.list(func(k lessonKey) bool { return k.userID == userID && k.moduleID == moduleID }), nil
}

func (r *LessonProgressRepository) ListByUser(_ context.Context, userID int64) ([]*entities.LessonProgress, error) {
	return r.list(func(k lessonKey) bool { return k.userID == userID }), nil
}

func (r *LessonProgressRepository) list(match func(lessonKey) bool) []*entities.LessonProgress {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*entities.LessonProgress, 0)
	for k, p := range r.db.lessons {
		if match(k) {
			out = append(out, cloneLesson(p))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ModuleID != out[j].ModuleID {
			return out[i].ModuleID < out[j].ModuleID
		}
		return out[i].LessonID < out[j].LessonID
	})
	return out
}
