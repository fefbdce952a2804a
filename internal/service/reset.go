package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
)

type ResetService struct {
	tr    Transactor
	reset ResetRepository
	log   *zap.Logger
}

func NewResetService(
	tr Transactor,
	reset ResetRepository,
	log *zap.Logger,
) *ResetService {
	return &ResetService{
		tr:    tr,
		reset: reset,
		log:   log.Named("reset"),
	}
}

// ResetModuleProgress wipes the unit records, the aggregate and the
// certificate of the pair in one transaction. Resetting an untouched module succeeds.
func (s *ResetService) ResetModuleProgress(ctx context.Context, userID, moduleID int64) error {
	if userID <= 0 || moduleID <= 0 {
		return fmt.Errorf("%w: user and module ids must be positive", entities.ErrInvalidProgressInput)
	}

	err := s.tr.WithinTx(ctx, func(ctx context.Context) error {
		return s.reset.ResetModule(ctx, userID, moduleID)
	})
	if err != nil {
		return fmt.Errorf("reset module progress: %w", err)
	}

	s.log.Info("module progress reset",
		zap.Int64("user_id", userID),
		zap.Int64("module_id", moduleID),
	)

	return nil
}
