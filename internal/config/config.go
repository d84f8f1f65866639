// Package config provides configuration management for the price monitor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
	"github.com/iD01t/CryptoPulse/internal/models"
)

// MinRefreshInterval is the floor enforced on the polling cadence to
// respect vendor rate limits.
const MinRefreshInterval = 10 * time.Second

// Config holds all application configuration.
type Config struct {
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Alerts        AlertsConfig       `mapstructure:"alerts"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// MonitorConfig holds polling configuration.
type MonitorConfig struct {
	Asset           string        `mapstructure:"asset"`            // logical id, e.g. "bitcoin"
	VsCurrency      string        `mapstructure:"vs_currency"`      // e.g. "usd"
	Provider        string        `mapstructure:"provider"`         // preferred primary provider
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // polling cadence
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`        // read cache freshness window
	AlertHistory    int           `mapstructure:"alert_history"`    // alert ring capacity
}

// AlertsConfig holds alert rule configuration.
type AlertsConfig struct {
	Drop        RuleConfig `mapstructure:"price_drop"`
	Rise        RuleConfig `mapstructure:"price_rise"`
	VolumeSpike RuleConfig `mapstructure:"volume_spike"`
}

// RuleConfig is one enabled/threshold pair.
type RuleConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Threshold float64 `mapstructure:"threshold"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	MinInterval time.Duration  `mapstructure:"min_interval"` // debounce window
	Webhook     WebhookConfig  `mapstructure:"webhook"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig holds webhook backend configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram backend configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cryptopulse"
	}
	return filepath.Join(home, ".cryptopulse")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := createTemplateConfig(configDir); werr != nil {
				return nil, fmt.Errorf("writing config template: %w", werr)
			}
		} else {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.asset", "bitcoin")
	v.SetDefault("monitor.vs_currency", "usd")
	v.SetDefault("monitor.provider", string(models.ProviderCoinGecko))
	v.SetDefault("monitor.refresh_interval", "60s")
	v.SetDefault("monitor.cache_ttl", "30s")
	v.SetDefault("monitor.alert_history", 100)

	v.SetDefault("alerts.price_drop.enabled", true)
	v.SetDefault("alerts.price_drop.threshold", 2.0)
	v.SetDefault("alerts.price_rise.enabled", false)
	v.SetDefault("alerts.price_rise.threshold", 5.0)
	v.SetDefault("alerts.volume_spike.enabled", false)
	v.SetDefault("alerts.volume_spike.threshold", 50.0)

	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.min_interval", "6s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CRYPTOPULSE_ASSET"); v != "" {
		cfg.Monitor.Asset = v
	}
	if v := os.Getenv("CRYPTOPULSE_VS_CURRENCY"); v != "" {
		cfg.Monitor.VsCurrency = v
	}
	if v := os.Getenv("CRYPTOPULSE_PROVIDER"); v != "" {
		cfg.Monitor.Provider = v
	}
	if v := os.Getenv("CRYPTOPULSE_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
		cfg.Notifications.Webhook.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
}

// Validate validates the configuration, clamping the refresh interval to the
// enforced floor rather than rejecting it.
func (c *Config) Validate() error {
	if c.Monitor.Asset == "" {
		return fmt.Errorf("%w: monitor.asset must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Monitor.VsCurrency == "" {
		return fmt.Errorf("%w: monitor.vs_currency must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Monitor.RefreshInterval < MinRefreshInterval {
		c.Monitor.RefreshInterval = MinRefreshInterval
	}
	if c.Monitor.CacheTTL <= 0 {
		c.Monitor.CacheTTL = 30 * time.Second
	}
	if c.Monitor.AlertHistory <= 0 {
		c.Monitor.AlertHistory = 100
	}
	if c.Alerts.Drop.Enabled && c.Alerts.Drop.Threshold <= 0 {
		return fmt.Errorf("%w: alerts.price_drop.threshold must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Alerts.Rise.Enabled && c.Alerts.Rise.Threshold <= 0 {
		return fmt.Errorf("%w: alerts.price_rise.threshold must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Alerts.VolumeSpike.Enabled && c.Alerts.VolumeSpike.Threshold <= 0 {
		return fmt.Errorf("%w: alerts.volume_spike.threshold must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Notifications.MinInterval <= 0 {
		c.Notifications.MinInterval = 6 * time.Second
	}
	return nil
}

// Rules converts the alert configuration into the monitor's rule set.
func (c *Config) Rules() models.AlertRules {
	return models.AlertRules{
		Drop:        models.AlertRule{Enabled: c.Alerts.Drop.Enabled, ThresholdPct: c.Alerts.Drop.Threshold},
		Rise:        models.AlertRule{Enabled: c.Alerts.Rise.Enabled, ThresholdPct: c.Alerts.Rise.Threshold},
		VolumeSpike: models.AlertRule{Enabled: c.Alerts.VolumeSpike.Enabled, ThresholdPct: c.Alerts.VolumeSpike.Threshold},
	}
}
