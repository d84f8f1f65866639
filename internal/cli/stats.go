package cli

import (
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iD01t/CryptoPulse/internal/config"
	"github.com/iD01t/CryptoPulse/internal/store"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show notification statistics",
		Long:  "Display the most recent notification dispatch counters from the archive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			dbPath := filepath.Join(config.DefaultConfigDir(), "cryptopulse.db")
			archive, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				output.Error("opening archive: %v", err)
				return err
			}
			defer archive.Close()

			snap, err := archive.LatestStatsSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if snap == nil {
				output.Dim("no statistics recorded yet")
				return nil
			}
			if output.IsJSON() {
				return output.JSON(snap)
			}
			output.Info("Notification statistics (as of %s)",
				snap.TakenAt.Local().Format("2006-01-02 15:04:05"))
			output.Printf("  attempts:  %d\n", snap.TotalAttempts)
			output.Printf("  delivered: %s\n", output.Green(strconv.FormatUint(snap.Successes, 10)))
			output.Printf("  failed:    %s\n", output.Red(strconv.FormatUint(snap.Failures, 10)))
			output.Printf("  debounced: %d\n", snap.Debounced)
			output.Printf("  forced:    %d\n", snap.Forced)
			return nil
		},
	}
}
