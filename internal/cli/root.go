package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iD01t/CryptoPulse/internal/config"
	"github.com/iD01t/CryptoPulse/internal/logging"
)

// Version information
const (
	Version   = "1.0.0"
	BuildDate = "2026-09-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "cryptopulse",
		Short: "CryptoPulse - crypto price monitor with alerts",
		Long: `CryptoPulse polls cryptocurrency prices from multiple providers with
automatic failover, evaluates tick-to-tick alert rules, and delivers
notifications across desktop, webhook, Telegram, and terminal backends.

Use 'cryptopulse run' to start monitoring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.cryptopulse)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newCheckCmd(app))
	rootCmd.AddCommand(newAlertsCmd(app))
	rootCmd.AddCommand(newStatsCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("CryptoPulse v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			output.Info("Monitor")
			output.Printf("  asset:            %s\n", app.Config.Monitor.Asset)
			output.Printf("  vs currency:      %s\n", app.Config.Monitor.VsCurrency)
			output.Printf("  provider:         %s\n", app.Config.Monitor.Provider)
			output.Printf("  refresh interval: %s\n", app.Config.Monitor.RefreshInterval)
			output.Info("Alerts")
			output.Printf("  price drop:   enabled=%v threshold=%.1f%%\n",
				app.Config.Alerts.Drop.Enabled, app.Config.Alerts.Drop.Threshold)
			output.Printf("  price rise:   enabled=%v threshold=%.1f%%\n",
				app.Config.Alerts.Rise.Enabled, app.Config.Alerts.Rise.Threshold)
			output.Printf("  volume spike: enabled=%v threshold=%.1f%%\n",
				app.Config.Alerts.VolumeSpike.Enabled, app.Config.Alerts.VolumeSpike.Threshold)
			output.Info("Notifications")
			output.Printf("  enabled:      %v\n", app.Config.Notifications.Enabled)
			output.Printf("  min interval: %s\n", app.Config.Notifications.MinInterval)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			NewOutput(cmd).Println(config.DefaultConfigDir())
		},
	})

	return cmd
}
