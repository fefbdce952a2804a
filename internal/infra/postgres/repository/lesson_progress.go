package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/infra/postgres"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

const lessonProgressColumns = `
	user_id, module_id, lesson_id, kind, completed, time_spent,
	quiz_score, completed_at, updated_at`

// LessonProgressRepository provides access to unit-level progress.
type LessonProgressRepository struct {
	db postgres.DBTX
}

func NewLessonProgressRepository(db postgres.DBTX) *LessonProgressRepository {
	return &LessonProgressRepository{db: db}
}

// Upsert creates or replaces the record of a single unit. completed_at is
// written once and kept by every later upsert.
func (r *LessonProgressRepository) Upsert(ctx context.Context, p *entities.LessonProgress) (*entities.LessonProgress, error) {
	query := `
		INSERT INTO lesson_progress (
			user_id, module_id, lesson_id, kind, completed, time_spent,
			quiz_score, completed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, CASE WHEN $5::boolean THEN now() END, now())
		ON CONFLICT (user_id, module_id, lesson_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			completed = EXCLUDED.completed,
			time_spent = EXCLUDED.time_spent,
			quiz_score = EXCLUDED.quiz_score,
			completed_at = COALESCE(lesson_progress.completed_at, EXCLUDED.completed_at),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + lessonProgressColumns

	row := postgres.Conn(ctx, r.db).QueryRow(
		ctx,
		query,
		p.UserID,
		p.ModuleID,
		p.LessonID,
		string(p.Kind),
		p.Completed,
		p.TimeSpent,
		p.QuizScore,
	)

	stored, err := scanLessonProgress(row)
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("upsert lesson progress: %w", err))
	}

	return stored, nil
}

func (r *LessonProgressRepository) Get(ctx context.Context, userID, moduleID int64, lessonID string) (*entities.LessonProgress, error) {
	query := `
		SELECT ` + lessonProgressColumns + `
		FROM lesson_progress
		WHERE user_id = $1 AND module_id = $2 AND lesson_id = $3
	`

	p, err := scanLessonProgress(postgres.Conn(ctx, r.db).QueryRow(ctx, query, userID, moduleID, lessonID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrProgressNotFound
		}
		return nil, postgres.Classify(fmt.Errorf("get lesson progress: %w", err))
	}

	return p, nil
}

// ListByModule returns every unit record of the user for a module. Inside a
// transaction the rows are read FOR SHARE: a reset deleting them waits for
// the transaction, and rows removed by a reset that committed first are skipped.
func (r *LessonProgressRepository) ListByModule(ctx context.Context, userID, moduleID int64) ([]*entities.LessonProgress, error) {
	query := `
		SELECT ` + lessonProgressColumns + `
		FROM lesson_progress
		WHERE user_id = $1 AND module_id = $2
		ORDER BY lesson_id
	`
	if postgres.InTx(ctx) {
		query += ` FOR SHARE`
	}

	return r.list(ctx, "list module lesson progress", query, userID, moduleID)
}

// ListByUser returns every unit record of the user across modules.
func (r *LessonProgressRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.LessonProgress, error) {
	query := `
		SELECT ` + lessonProgressColumns + `
		FROM lesson_progress
		WHERE user_id = $1
		ORDER BY module_id, lesson_id
	`

	return r.list(ctx, "list user lesson progress", query, userID)
}

func (r *LessonProgressRepository) list(ctx context.Context, op, query string, args ...any) ([]*entities.LessonProgress, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	out := make([]*entities.LessonProgress, 0)
	for rows.Next() {
		p, err := scanLessonProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson progress: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(fmt.Errorf("%s: %w", op, err))
	}

	return out, nil
}

func scanLessonProgress(row pgx.Row) (*entities.LessonProgress, error) {
	var (
		p    entities.LessonProgress
		kind string
	)

	err := row.Scan(
		&p.UserID,
		&p.ModuleID,
		&p.LessonID,
		&kind,
		&p.Completed,
		&p.TimeSpent,
		&p.QuizScore,
		&p.CompletedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Kind = entities.UnitKind(kind)
	return &p, nil
}
