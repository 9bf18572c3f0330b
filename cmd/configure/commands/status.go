package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tracking status and today's totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gateway, err := openGateway(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := gateway.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
				}
			}()

			settings := models.DefaultSettings()
			if _, err := store.GetJSON(ctx, gateway, store.KeySettings, settings); err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			fmt.Printf("Tracking enabled: %t\n", settings.TrackingEnabled)

			var daily models.DailyStats
			found, err := store.GetJSON(ctx, gateway, store.KeyDailyStats, &daily)
			if err != nil {
				return fmt.Errorf("load daily stats: %w", err)
			}
			if !found {
				fmt.Println("No tracking data for today")
			} else {
				fmt.Printf("Today (%s): %s across %d domains, %d sessions\n",
					daily.Date, formatDuration(daily.TotalTime), len(daily.Domains), daily.SessionCount())
			}

			var historical models.HistoricalData
			found, err = store.GetJSON(ctx, gateway, store.KeyHistoricalData, &historical)
			if err != nil {
				return fmt.Errorf("load historical data: %w", err)
			}
			if found {
				fmt.Printf("All time: %s, %d sessions", formatDuration(historical.AllTime.TotalTime), historical.AllTime.SessionCount)
				if historical.AllTime.FirstTrackingDate != "" {
					fmt.Printf(" (since %s)", historical.AllTime.FirstTrackingDate)
				}
				fmt.Println()
				fmt.Printf("Archived weeks: %d\n", len(historical.WeeklyStats))
			}

			return nil
		},
	}
}
