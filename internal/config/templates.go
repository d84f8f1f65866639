package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# CryptoPulse Configuration

[monitor]
# Logical asset id to track, e.g. "bitcoin"
asset = "bitcoin"
# Quote currency
vs_currency = "usd"
# Preferred primary provider: coingecko, binance, cryptocompare
provider = "coingecko"
# Polling cadence (minimum 10s)
refresh_interval = "60s"
# Read cache freshness window
cache_ttl = "30s"
# Number of recent alerts retained in memory
alert_history = 100

[alerts.price_drop]
enabled = true
# Tick-to-tick drop in percent that raises an alert
threshold = 2.0

[alerts.price_rise]
enabled = false
threshold = 5.0

[alerts.volume_spike]
enabled = false
threshold = 50.0

[notifications]
# Enable notifications
enabled = true
# Minimum interval between notifications (debounce window)
min_interval = "6s"

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
# Write a rotating log file under the config directory
file = true
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
