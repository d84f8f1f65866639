package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iD01t/CryptoPulse/internal/config"
	"github.com/iD01t/CryptoPulse/internal/store"
)

func newAlertsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show archived alerts",
		Long:  "List recent alerts from the on-disk archive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			n, _ := cmd.Flags().GetInt("limit")

			dbPath := filepath.Join(config.DefaultConfigDir(), "cryptopulse.db")
			archive, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				output.Error("opening alert archive: %v", err)
				return err
			}
			defer archive.Close()

			events, err := archive.RecentAlerts(cmd.Context(), n)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(events)
			}
			if len(events) == 0 {
				output.Dim("no alerts recorded")
				return nil
			}
			for _, e := range events {
				output.Printf("%s  %s %s\n",
					e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
					output.Yellow(string(e.Kind)),
					e.Message)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of alerts to show")
	return cmd
}
