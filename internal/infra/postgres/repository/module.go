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

// ModuleRepository reads module definitions. Upsert is only used to seed the catalog.
type ModuleRepository struct {
	db postgres.DBTX
}

func NewModuleRepository(db postgres.DBTX) *ModuleRepository {
	return &ModuleRepository{db: db}
}

func (r *ModuleRepository) GetByID(ctx context.Context, moduleID int64) (*entities.Module, error) {
	query := `
		SELECT id, title, description, content, difficulty_level, estimated_duration, created_at
		FROM modules
		WHERE id = $1
	`

	var m entities.Module
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, moduleID).Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Content,
		&m.DifficultyLevel,
		&m.EstimatedDuration,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrModuleNotFound
		}
		return nil, postgres.Classify(fmt.Errorf("get module: %w", err))
	}

	return &m, nil
}

// Upsert writes a module with an explicit id and moves the id sequence past it.
func (r *ModuleRepository) Upsert(ctx context.Context, m *entities.Module) error {
	query := `
		INSERT INTO modules (id, title, description, content, difficulty_level, estimated_duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			difficulty_level = EXCLUDED.difficulty_level,
			estimated_duration = EXCLUDED.estimated_duration
	`

	db := postgres.Conn(ctx, r.db)
	_, err := db.Exec(ctx, query, m.ID, m.Title, m.Description, m.Content, m.DifficultyLevel, m.EstimatedDuration)
	if err != nil {
		return postgres.Classify(fmt.Errorf("upsert module: %w", err))
	}

	_, err = db.Exec(ctx, `SELECT setval(pg_get_serial_sequence('modules', 'id'), (SELECT MAX(id) FROM modules))`)
	if err != nil {
		return postgres.Classify(fmt.Errorf("sync module id sequence: %w", err))
	}

	return nil
}
