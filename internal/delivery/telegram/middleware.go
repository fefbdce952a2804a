package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/vc-progress/internal/repository"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling turns handler errors into a user-facing reply. Only
// unexpected failures are logged as errors.
func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrCertificateNotFound):
			h.send(newPlainMessage(chatID, msgCertificateNotFound))
		case errors.Is(err, repository.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
			h.logger.Warn("storage unavailable", zap.Int64("chat_id", chatID), zap.Error(err))
			h.send(newPlainMessage(chatID, msgTryLater))
		default:
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.send(newPlainMessage(chatID, msgInternalError))
		}
		return nil
	}
}
