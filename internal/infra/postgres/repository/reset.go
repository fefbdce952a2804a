package repository

import (
	"context"
	"fmt"

	"github.com/aliskhannn/vc-progress/internal/infra/postgres"
)

type ResetRepository struct {
	db postgres.DBTX
}

func NewResetRepository(db postgres.DBTX) *ResetRepository {
	return &ResetRepository{db: db}
}

// ResetModule deletes every progress row and the certificate of the pair.
// Run it through Transactor.WithinTx so the three deletes commit together.
// Unit records go first: a recompute holding them locked finishes before the
// aggregate and certificate deletes see its writes.
func (s *ResetRepository) ResetModule(ctx context.Context, userID, moduleID int64) error {
	db := postgres.Conn(ctx, s.db)

	if _, err := db.Exec(ctx, `DELETE FROM lesson_progress WHERE user_id = $1 AND module_id = $2`, userID, moduleID); err != nil {
		return postgres.Classify(fmt.Errorf("delete lesson_progress: %w", err))
	}
	if _, err := db.Exec(ctx, `DELETE FROM module_progress WHERE user_id = $1 AND module_id = $2`, userID, moduleID); err != nil {
		return postgres.Classify(fmt.Errorf("delete module_progress: %w", err))
	}
	if _, err := db.Exec(ctx, `DELETE FROM certificates WHERE user_id = $1 AND module_id = $2`, userID, moduleID); err != nil {
		return postgres.Classify(fmt.Errorf("delete certificates: %w", err))
	}

	return nil
}
