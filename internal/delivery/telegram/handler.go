package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Handler struct {
	bot          Bot
	logger       *zap.Logger
	verifier     CertificateVerifier
	queryTimeout time.Duration
}

func NewHandler(
	bot Bot,
	logger *zap.Logger,
	verifier CertificateVerifier,
	queryTimeout time.Duration,
) *Handler {
	return &Handler{
		bot:          bot,
		logger:       logger.Named("telegram"),
		verifier:     verifier,
		queryTimeout: queryTimeout,
	}
}

// Run polls for updates until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		h.logger.Debug("update without message")
		return
	}

	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}

	chatID := update.Message.Chat.ID
	h.logger.Debug("update received",
		zap.Int64("chat_id", chatID),
		zap.String("text", update.Message.Text),
	)

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			h.send(newMessage(chatID, welcomeMarkdownV2()))

		case "help":
			h.send(newMessage(chatID, helpMarkdownV2()))

		case "verify":
			_ = h.withErrorHandling(h.verifyHandler(update.Message.CommandArguments()))(ctx, chatID)

		default:
			h.send(newPlainMessage(chatID, msgUnknownCommand))
		}

		return
	}

	// A bare certificate code is treated as /verify <code>.
	text := strings.TrimSpace(update.Message.Text)
	if strings.HasPrefix(strings.ToUpper(text), certificatePrefix) {
		_ = h.withErrorHandling(h.verifyHandler(text))(ctx, chatID)
		return
	}

	h.send(newPlainMessage(chatID, msgUnknownCommand))
}

func (h *Handler) verifyHandler(code string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if strings.TrimSpace(code) == "" {
			h.send(newPlainMessage(chatID, msgUseVerify))
			return nil
		}

		v, err := h.verifier.Verify(ctx, code)
		if err != nil {
			return err
		}

		h.send(newMessage(chatID, formatVerifiedCertificate(v)))
		return nil
	}
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}
