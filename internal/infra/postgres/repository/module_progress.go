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

const moduleProgressColumns = `
	user_id, module_id, progress_percentage, completed, completion_date,
	total_time_spent, lessons_completed, quizzes_completed, last_accessed`

// ModuleProgressRepository stores the per-module aggregate.
type ModuleProgressRepository struct {
	db postgres.DBTX
}

func NewModuleProgressRepository(db postgres.DBTX) *ModuleProgressRepository {
	return &ModuleProgressRepository{db: db}
}

// Upsert writes the aggregate only while the pair still has unit records;
// otherwise it returns repository.ErrProgressNotFound.
func (r *ModuleProgressRepository) Upsert(ctx context.Context, p *entities.ModuleProgress) (*entities.ModuleProgress, error) {
	query := `
		INSERT INTO module_progress (
			user_id, module_id, progress_percentage, completed, completion_date,
			total_time_spent, lessons_completed, quizzes_completed, last_accessed
		)
		SELECT $1::bigint, $2::bigint, $3::integer, $4::boolean, CASE WHEN $4::boolean THEN now() END,
			$5::bigint, $6::integer, $7::integer, now()
		WHERE EXISTS (
			SELECT 1 FROM lesson_progress
			WHERE user_id = $1 AND module_id = $2
			FOR SHARE
		)
		ON CONFLICT (user_id, module_id) DO UPDATE SET
			progress_percentage = EXCLUDED.progress_percentage,
			completed = EXCLUDED.completed,
			completion_date = COALESCE(module_progress.completion_date, EXCLUDED.completion_date),
			total_time_spent = EXCLUDED.total_time_spent,
			lessons_completed = EXCLUDED.lessons_completed,
			quizzes_completed = EXCLUDED.quizzes_completed,
			last_accessed = EXCLUDED.last_accessed
		RETURNING ` + moduleProgressColumns

	row := postgres.Conn(ctx, r.db).QueryRow(
		ctx,
		query,
		p.UserID,
		p.ModuleID,
		p.ProgressPercentage,
		p.Completed,
		p.TotalTimeSpent,
		p.LessonsCompleted,
		p.QuizzesCompleted,
	)

	stored, err := scanModuleProgress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrProgressNotFound
		}
		return nil, postgres.Classify(fmt.Errorf("upsert module progress: %w", err))
	}

	return stored, nil
}

func (r *ModuleProgressRepository) DeleteOrphan(ctx context.Context, userID, moduleID int64) (bool, error) {
	query := `
		DELETE FROM module_progress
		WHERE user_id = $1 AND module_id = $2
		  AND NOT EXISTS (
			SELECT 1 FROM lesson_progress
			WHERE user_id = $1 AND module_id = $2
		  )
	`

	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, userID, moduleID)
	if err != nil {
		return false, postgres.Classify(fmt.Errorf("delete orphan module progress: %w", err))
	}

	return tag.RowsAffected() > 0, nil
}

func (r *ModuleProgressRepository) Get(ctx context.Context, userID, moduleID int64) (*entities.ModuleProgress, error) {
	query := `
		SELECT ` + moduleProgressColumns + `
		FROM module_progress
		WHERE user_id = $1 AND module_id = $2
	`

	p, err := scanModuleProgress(postgres.Conn(ctx, r.db).QueryRow(ctx, query, userID, moduleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrModuleProgressNotFound
		}
		return nil, postgres.Classify(fmt.Errorf("get module progress: %w", err))
	}

	return p, nil
}

func (r *ModuleProgressRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.ModuleProgress, error) {
	query := `
		SELECT ` + moduleProgressColumns + `
		FROM module_progress
		WHERE user_id = $1
		ORDER BY module_id
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("list module progress: %w", err))
	}
	defer rows.Close()

	out := make([]*entities.ModuleProgress, 0)
	for rows.Next() {
		p, err := scanModuleProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan module progress: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(fmt.Errorf("list module progress: %w", err))
	}

	return out, nil
}

func scanModuleProgress(row pgx.Row) (*entities.ModuleProgress, error) {
	var p entities.ModuleProgress

	err := row.Scan(
		&p.UserID,
		&p.ModuleID,
		&p.ProgressPercentage,
		&p.Completed,
		&p.CompletionDate,
		&p.TotalTimeSpent,
		&p.LessonsCompleted,
		&p.QuizzesCompleted,
		&p.LastAccessed,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
