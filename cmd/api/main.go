package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/api"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/config"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/ledger"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/logging"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/notify"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func main() {
	setupConfig()
	logging.Init()

	cfg := config.New()

	db, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	store := storage.New(db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	initCtx, migrateCancel := context.WithTimeout(ctx, 10*time.Second)
	defer migrateCancel()

	if err := store.Migrate(initCtx); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	var notifier ledger.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL, cfg.WebhookTimeout)
	}

	svc, err := ledger.New(cfg, store, notifier)
	if err != nil {
		logrus.Fatalf("Failed to create ledger: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	api.NewService(cfg, svc).Register(e)

	go func() {
		if err := e.Start(cfg.APIListen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Failed to shut down server: %v", err)
	}
}

func setupConfig() {
	viper.SetDefault("api_listen", ":8080")
	config.SetupCommon()
	viper.MustBindEnv("api_jwt_secret")
}
