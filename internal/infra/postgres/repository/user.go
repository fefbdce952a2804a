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

// UserRepository reads users registered by the authentication service.
type UserRepository struct {
	db postgres.DBTX
}

func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Save inserts a user or renames an existing one. It reports whether the row was created.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) (bool, error) {
	query := `
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username
		RETURNING (xmax = 0) AS created
	`

	var created bool
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, user.ID, user.Username).Scan(&created)
	if err != nil {
		return false, postgres.Classify(fmt.Errorf("save user: %w", err))
	}

	return created, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	query := `
		SELECT id, username, created_at
		FROM users
		WHERE id = $1
	`

	var user entities.User
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, postgres.Classify(fmt.Errorf("get user: %w", err))
	}

	return &user, nil
}
