package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iD01t/CryptoPulse/internal/config"
	"github.com/iD01t/CryptoPulse/internal/logging"
	"github.com/iD01t/CryptoPulse/internal/models"
	"github.com/iD01t/CryptoPulse/internal/monitor"
	"github.com/iD01t/CryptoPulse/internal/notify"
	"github.com/iD01t/CryptoPulse/internal/provider"
	"github.com/iD01t/CryptoPulse/internal/store"
	"github.com/iD01t/CryptoPulse/pkg/utils"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the price monitor",
		Long: `Start polling the configured asset. Providers are rotated with
automatic blacklisting on failure; alerts fire on tick-to-tick changes
and fan out through the notification backends. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, app)
		},
	}
	cmd.Flags().String("asset", "", "override the configured asset id")
	cmd.Flags().Duration("interval", 0, "override the refresh interval")
	return cmd
}

func runMonitor(cmd *cobra.Command, app *App) error {
	output := NewOutput(cmd)
	cfg := app.Config

	settings := monitor.Settings{
		AssetID:              cfg.Monitor.Asset,
		VsCurrency:           cfg.Monitor.VsCurrency,
		Primary:              models.ParseProvider(cfg.Monitor.Provider),
		Interval:             cfg.Monitor.RefreshInterval,
		Rules:                cfg.Rules(),
		NotificationsEnabled: cfg.Notifications.Enabled,
		AlertHistory:         cfg.Monitor.AlertHistory,
	}
	if asset, _ := cmd.Flags().GetString("asset"); asset != "" {
		settings.AssetID = asset
	}
	if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
		settings.Interval = interval
	}

	registry := provider.NewRegistry([]provider.Adapter{
		provider.NewCoinGeckoAdapter(),
		provider.NewBinanceAdapter(),
		provider.NewCryptoCompareAdapter(),
	}, settings.Primary, app.Logger)
	cache := provider.NewReadCache(cfg.Monitor.CacheTTL)

	dispatcher := notify.NewDispatcher([]notify.Backend{
		notify.NewDesktopBackend(),
		notify.NewWebhookBackend(cfg.Notifications.Webhook.Enabled, cfg.Notifications.Webhook.URL),
		notify.NewTelegramBackend(cfg.Notifications.Telegram.Enabled,
			cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID),
		notify.NewTerminalBackend(),
	}, cfg.Notifications.MinInterval, app.Logger)

	var archive *store.SQLiteStore
	dbPath := filepath.Join(config.DefaultConfigDir(), "cryptopulse.db")
	archive, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("alert archive unavailable, continuing without it")
		archive = nil
	} else {
		defer archive.Close()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	obs := monitor.Observers{
		OnStatus: func(s models.Status) {
			switch s.Severity {
			case models.SeverityConnected:
				output.Success("* %s", s.Text)
			case models.SeverityDegraded, models.SeverityPaused:
				output.Warning("* %s", s.Text)
			case models.SeverityFailed:
				output.Error("* %s", s.Text)
			default:
				output.Dim("* %s", s.Text)
			}
		},
		OnReading: func(r models.Reading) {
			logging.LogReading(app.Logger, cfg.Monitor.Provider, r.Symbol, r.Price, r.ChangePct)
			line := output.Green(utils.FormatPrice(r.Price))
			if r.ChangePct < 0 {
				line = output.Red(utils.FormatPrice(r.Price))
			}
			output.Printf("%s  %s  %s", r.Symbol, line, utils.FormatPercent(r.ChangePct))
			if r.HasVolume() {
				output.Printf("  vol %s", utils.FormatVolume(*r.Volume))
			}
			output.Println()
		},
		OnAlert: func(e models.AlertEvent) {
			logging.LogAlert(app.Logger, string(e.Kind), e.Message)
			if settings.NotificationsEnabled {
				go func() {
					dispatcher.Notify(ctx, "CryptoPulse: "+alertTitle(e.Kind), e.Message)
				}()
			}
			if archive != nil {
				go func() {
					if err := archive.SaveAlert(context.Background(), e); err != nil {
						app.Logger.Warn().Err(err).Msg("failed to archive alert")
					}
				}()
			}
		},
	}

	m := monitor.New(registry, cache, settings, obs, app.Logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		output.Warning("shutting down...")
		cancel()
	}()

	output.Info("monitoring %s/%s every %s (primary: %s)",
		settings.AssetID, settings.VsCurrency, settings.Interval, settings.Primary)
	m.Run(ctx)

	if archive != nil {
		snap := dispatcher.StatsSnapshot()
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer saveCancel()
		archive.SaveStatsSnapshot(saveCtx, store.StatsSnapshot{
			TotalAttempts: snap.TotalAttempts,
			Successes:     snap.Successes,
			Failures:      snap.Failures,
			Debounced:     snap.Debounced,
			Forced:        snap.Forced,
			TakenAt:       time.Now(),
		})
	}
	return nil
}

func alertTitle(kind models.AlertKind) string {
	switch kind {
	case models.AlertPriceDrop:
		return "Price Drop"
	case models.AlertPriceRise:
		return "Price Rise"
	case models.AlertVolumeSpike:
		return "Volume Spike"
	default:
		return "Alert"
	}
}
