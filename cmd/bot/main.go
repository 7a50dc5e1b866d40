package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/bot"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/config"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/ledger"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/logging"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/notify"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/telebot.v4"
)

func main() {
	setupConfig()
	logging.Init()

	cfg := config.New()
	logrus.Debugf("config: %+v", cfg)

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

	globalState, err := store.GetOrCreateGlobalState(initCtx)
	if err != nil {
		logrus.Fatalf("Failed to get or create global state: %v", err)
	}

	var notifier ledger.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL, cfg.WebhookTimeout)
	}

	svc, err := ledger.New(cfg, store, notifier)
	if err != nil {
		logrus.Fatalf("Failed to create ledger: %v", err)
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token: cfg.TelegramToken,
		Poller: &telebot.LongPoller{
			Timeout:        10 * time.Second,
			LastUpdateID:   globalState.LastUpdateID,
			AllowedUpdates: []string{"message", "callback_query"},
		},
	})
	if err != nil {
		logrus.Fatalf("Failed to create bot: %v", err)
	}

	handler, err := bot.New(cfg, svc, store)
	if err != nil {
		logrus.Fatalf("Failed to create handler: %v", err)
	}
	handler.Register(tb)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Infof("Logged in as %s", tb.Me.Username)
		tb.Start()
	}()

	<-ctx.Done()

	tb.Stop()

	logrus.Info("waiting for services to finish")
	wg.Wait()
}

func setupConfig() {
	viper.SetDefault("bot_handle_timeout", "10s")
	viper.SetDefault("admin_cache_size", 1024)
	viper.SetDefault("admin_cache_ttl", "1m")
	viper.SetDefault("commands_per_minute", 20)
	config.SetupCommon()
	viper.MustBindEnv("telegram_token")
	viper.MustBindEnv("admin_ids")
}
