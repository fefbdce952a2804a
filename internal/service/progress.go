package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

// UpdateLessonInput is a single progress event for one unit of a module.
// Kind may be left empty; it is then taken from the module manifest.
type UpdateLessonInput struct {
	UserID    int64
	ModuleID  int64
	LessonID  string
	Kind      entities.UnitKind
	Completed bool
	TimeSpent int
	QuizScore *int
}

// ModuleProgressDetails is the module aggregate together with its unit records.
// ModuleProgress is nil when the user never touched the module.
type ModuleProgressDetails struct {
	ModuleProgress *entities.ModuleProgress   `json:"moduleProgress"`
	LessonProgress []*entities.LessonProgress `json:"lessonProgress"`
}

type ProgressService struct {
	tr       Transactor
	lessons  LessonProgressRepository
	progress ModuleProgressRepository
	modules  ModuleRepository
	log      *zap.Logger
}

func NewProgressService(
	tr Transactor,
	lessons LessonProgressRepository,
	progress ModuleProgressRepository,
	modules ModuleRepository,
	log *zap.Logger,
) *ProgressService {
	return &ProgressService{
		tr:       tr,
		lessons:  lessons,
		progress: progress,
		modules:  modules,
		log:      log.Named("progress"),
	}
}

// UpdateLessonProgress stores a unit record and refreshes the module aggregate.
// The unit write is authoritative: if the aggregate cannot be refreshed the
// failure is logged and the next read of the module repairs it.
func (s *ProgressService) UpdateLessonProgress(ctx context.Context, in UpdateLessonInput) (*entities.LessonProgress, error) {
	p := entities.NewLessonProgress(in.UserID, in.ModuleID, in.LessonID, in.Kind, in.Completed, in.TimeSpent, in.QuizScore)

	// Field checks run before any lookup so malformed input never reaches storage.
	provisional := *p
	if provisional.Kind == "" {
		provisional.Kind = guessKind(in.QuizScore)
	}
	if err := provisional.Validate(); err != nil {
		return nil, err
	}

	module, err := s.module(ctx, in.ModuleID)
	if err != nil {
		return nil, err
	}

	kind, err := resolveKind(module.Content, in.LessonID, in.Kind, in.QuizScore)
	if err != nil {
		return nil, err
	}
	p.Kind = kind

	if err := p.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.lessons.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}

	if _, err := s.recompute(ctx, in.UserID, module); err != nil {
		s.log.Warn("recompute module progress",
			zap.Int64("user_id", in.UserID),
			zap.Int64("module_id", in.ModuleID),
			zap.Error(err),
		)
	}

	return stored, nil
}

// Compute returns the aggregate for the pair without writing anything.
func (s *ProgressService) Compute(ctx context.Context, userID, moduleID int64) (entities.ModuleProgressSummary, error) {
	module, err := s.module(ctx, moduleID)
	if err != nil {
		return entities.ModuleProgressSummary{}, err
	}

	records, err := s.lessons.ListByModule(ctx, userID, moduleID)
	if err != nil {
		return entities.ModuleProgressSummary{}, err
	}

	return entities.ComputeModuleProgress(module.Content, records), nil
}

// Recompute rebuilds and stores the module aggregate from the unit records.
// It returns nil when the pair has no unit records.
func (s *ProgressService) Recompute(ctx context.Context, userID, moduleID int64) (*entities.ModuleProgress, error) {
	module, err := s.module(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	return s.recompute(ctx, userID, module)
}

// recompute holds the unit records locked while the aggregate is written, so a
// reset either waits for it or leaves nothing to summarize.
func (s *ProgressService) recompute(ctx context.Context, userID int64, module *entities.Module) (*entities.ModuleProgress, error) {
	var stored *entities.ModuleProgress

	err := s.tr.WithinTx(ctx, func(ctx context.Context) error {
		records, err := s.lessons.ListByModule(ctx, userID, module.ID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		summary := entities.ComputeModuleProgress(module.Content, records)

		stored, err = s.progress.Upsert(ctx, entities.NewModuleProgress(userID, module.ID, summary, time.Now()))
		if errors.Is(err, repository.ErrProgressNotFound) {
			stored = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// GetModuleProgress returns the aggregate and unit records of a module. A
// stored aggregate that disagrees with the unit records is rewritten, and one
// left without unit records is dropped.
func (s *ProgressService) GetModuleProgress(ctx context.Context, userID, moduleID int64) (*ModuleProgressDetails, error) {
	records, err := s.lessons.ListByModule(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}

	stored, err := s.progress.Get(ctx, userID, moduleID)
	if err != nil && !errors.Is(err, repository.ErrModuleProgressNotFound) {
		return nil, err
	}

	details := &ModuleProgressDetails{
		ModuleProgress: stored,
		LessonProgress: records,
	}

	if len(records) == 0 {
		details.ModuleProgress = nil
		if stored != nil {
			s.dropOrphan(ctx, userID, moduleID)
		}
		return details, nil
	}

	module, err := s.module(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	summary := entities.ComputeModuleProgress(module.Content, records)
	if stored != nil && stored.Matches(summary) {
		return details, nil
	}

	healed, err := s.recompute(ctx, userID, module)
	if err != nil {
		s.log.Warn("repair module progress",
			zap.Int64("user_id", userID),
			zap.Int64("module_id", moduleID),
			zap.Error(err),
		)
		return details, nil
	}
	if healed == nil {
		return details, nil
	}

	s.log.Info("module progress repaired",
		zap.Int64("user_id", userID),
		zap.Int64("module_id", moduleID),
		zap.Int("percent", healed.ProgressPercentage),
	)
	details.ModuleProgress = healed

	return details, nil
}

func (s *ProgressService) dropOrphan(ctx context.Context, userID, moduleID int64) {
	deleted, err := s.progress.DeleteOrphan(ctx, userID, moduleID)
	if err != nil {
		s.log.Warn("drop orphan module progress",
			zap.Int64("user_id", userID),
			zap.Int64("module_id", moduleID),
			zap.Error(err),
		)
		return
	}
	if deleted {
		s.log.Info("orphan module progress dropped",
			zap.Int64("user_id", userID),
			zap.Int64("module_id", moduleID),
		)
	}
}

func (s *ProgressService) GetLessonProgress(ctx context.Context, userID, moduleID int64, lessonID string) (*entities.LessonProgress, error) {
	return s.lessons.Get(ctx, userID, moduleID, lessonID)
}

func (s *ProgressService) ListUserProgress(ctx context.Context, userID int64) ([]*entities.ModuleProgress, error) {
	return s.progress.ListByUser(ctx, userID)
}

func (s *ProgressService) ListUserLessonProgress(ctx context.Context, userID int64) ([]*entities.LessonProgress, error) {
	return s.lessons.ListByUser(ctx, userID)
}

// module loads a module for a write path; a missing module is a bad reference.
func (s *ProgressService) module(ctx context.Context, moduleID int64) (*entities.Module, error) {
	m, err := s.modules.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrModuleNotFound) {
			return nil, fmt.Errorf("%w: module %d", repository.ErrReference, moduleID)
		}
		return nil, err
	}
	return m, nil
}

// resolveKind decides whether a unit is a lesson or a quiz. The manifest is
// authoritative; units it does not list are quizzes only when a score is sent.
func resolveKind(manifest entities.Manifest, unitID string, requested entities.UnitKind, score *int) (entities.UnitKind, error) {
	kind, ok := manifest.UnitKind(unitID)
	if !ok {
		if requested != "" {
			return requested, nil
		}
		return guessKind(score), nil
	}

	if requested != "" && requested != kind {
		return "", fmt.Errorf("%w: unit %q is a %s, not a %s", entities.ErrInvalidProgressInput, unitID, kind, requested)
	}

	return kind, nil
}

func guessKind(score *int) entities.UnitKind {
	if score != nil {
		return entities.UnitQuiz
	}
	return entities.UnitLesson
}
