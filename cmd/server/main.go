package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/vc-progress/internal/config"
	httpapi "github.com/aliskhannn/vc-progress/internal/delivery/http"
	httpH "github.com/aliskhannn/vc-progress/internal/delivery/http/handlers"
	"github.com/aliskhannn/vc-progress/internal/delivery/telegram"
	"github.com/aliskhannn/vc-progress/internal/logger"
	"github.com/aliskhannn/vc-progress/internal/repository"
	"github.com/aliskhannn/vc-progress/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("server stopped with error", zap.Error(err))
	}
	lg.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.ModulesJSONPath != "" {
		if err := seedCatalog(ctx, st, cfg.ModulesJSONPath); err != nil {
			return err
		}
		lg.Info("catalog seeded", zap.String("path", cfg.ModulesJSONPath))
	}

	progressService := service.NewProgressService(st.tx, st.lessons, st.progress, st.modules, lg)
	certificateService := service.NewCertificateService(st.tx, st.lessons, st.progress, st.certificates, st.users, st.modules, lg)
	resetService := service.NewResetService(st.tx, st.reset, lg)

	server := httpapi.NewServer(cfg.HTTP.Addr, cfg.HTTP.ShutdownTimeout, httpapi.RouterConfig{
		Logger:             lg,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		QueryTimeout:       cfg.DB.QueryTimeout,
		ProgressHandler:    httpH.NewProgressHandler(progressService, resetService),
		CertificateHandler: httpH.NewCertificateHandler(certificateService),
		HealthHandler:      httpH.NewHealthHandler(st.pinger),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })

	if cfg.TelegramAPIToken != "" {
		bot, err := newBot(cfg.TelegramAPIToken, lg)
		if err != nil {
			return err
		}
		handler := telegram.NewHandler(bot, lg, certificateService, cfg.DB.QueryTimeout)
		g.Go(func() error { return handler.Run(ctx) })
	} else {
		lg.Info("TELEGRAM_API_TOKEN not set, verification bot disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func seedCatalog(ctx context.Context, st *store, path string) error {
	catalog, err := repository.LoadCatalog(path)
	if err != nil {
		return err
	}

	for _, u := range catalog.Users {
		if _, err := st.userSeeder.Save(ctx, u); err != nil {
			return err
		}
	}
	for _, m := range catalog.Modules {
		if err := st.moduleSeeder.Upsert(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

func newBot(token string, lg *zap.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	commands := []tgbotapi.BotCommand{
		{
			Command:     "verify",
			Description: "Verify a certificate code",
		},
		{
			Command:     "help",
			Description: "Help",
		},
	}

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	lg.Info("authorized on telegram", zap.String("account", bot.Self.UserName))
	return bot, nil
}
