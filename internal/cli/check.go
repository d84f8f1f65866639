package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/iD01t/CryptoPulse/internal/logging"
	"github.com/iD01t/CryptoPulse/internal/models"
	"github.com/iD01t/CryptoPulse/internal/provider"
	"github.com/iD01t/CryptoPulse/pkg/utils"
)

func newCheckCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch the current price once and exit",
		Long: `Perform a single fetch through the provider rotation without
starting the monitoring loop. Useful for verifying connectivity and
provider health.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, app)
		},
	}
	cmd.Flags().String("asset", "", "override the configured asset id")
	return cmd
}

func runCheck(cmd *cobra.Command, app *App) error {
	output := NewOutput(cmd)
	cfg := app.Config

	assetID := cfg.Monitor.Asset
	if asset, _ := cmd.Flags().GetString("asset"); asset != "" {
		assetID = asset
	}
	primary := models.ParseProvider(cfg.Monitor.Provider)

	registry := provider.NewRegistry([]provider.Adapter{
		provider.NewCoinGeckoAdapter(),
		provider.NewBinanceAdapter(),
		provider.NewCryptoCompareAdapter(),
	}, primary, app.Logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	for _, a := range registry.Ordered() {
		output.Dim("trying %s...", a.Provider())
		start := time.Now()
		reading, err := a.Fetch(ctx, assetID, cfg.Monitor.VsCurrency)
		logging.LogFetch(app.Logger, string(a.Provider()), time.Since(start), err)
		if err != nil {
			output.Warning("%s: %v", a.Provider(), err)
			continue
		}
		if verr := reading.Validate(time.Now()); verr != nil {
			output.Warning("%s: rejected: %v", a.Provider(), verr)
			continue
		}

		if output.IsJSON() {
			return output.JSON(map[string]interface{}{
				"provider":   string(a.Provider()),
				"symbol":     reading.Symbol,
				"price":      reading.Price,
				"change_pct": reading.ChangePct,
				"timestamp":  reading.Timestamp,
			})
		}
		output.Success("%s  %s  %s  (via %s)",
			reading.Symbol,
			utils.FormatPrice(reading.Price),
			utils.FormatPercent(reading.ChangePct),
			a.Provider())
		return nil
	}

	output.Error("all providers failed for %s", assetID)
	return nil
}
