package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken    string        `mapstructure:"telegram_token"`
	BotHandleTimeout time.Duration `mapstructure:"bot_handle_timeout"`
	AdminIDs         []int64       `mapstructure:"admin_ids"`
	AdminCacheSize   int           `mapstructure:"admin_cache_size"`
	AdminCacheTTL    time.Duration `mapstructure:"admin_cache_ttl"`
	CommandsPerMin   int           `mapstructure:"commands_per_minute"`

	DailyBonus   int64         `mapstructure:"daily_bonus"`
	Timezone     string        `mapstructure:"timezone"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`

	DatabaseDriver string `mapstructure:"database_driver"`
	DatabaseDSN    string `mapstructure:"database_dsn"`

	APIListen    string `mapstructure:"api_listen"`
	APIJWTSecret string `mapstructure:"api_jwt_secret"`

	WebhookURL     string        `mapstructure:"webhook_url"`
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
}

func New() *Config {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		logrus.Fatalf("unmarshalling config: %v", err)
	}
	return cfg
}

// Location resolves the reference timezone used to decide calendar days.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func SetupCommon() {
	viper.SetDefault("daily_bonus", 10)
	viper.SetDefault("timezone", "UTC")
	viper.SetDefault("store_timeout", "5s")
	viper.SetDefault("database_driver", "postgres")
	viper.SetDefault("webhook_timeout", "5s")
	viper.SetEnvPrefix("LEDGERBOT")

	viper.MustBindEnv("database_dsn")
	viper.MustBindEnv("webhook_url")
	viper.AutomaticEnv()
}
