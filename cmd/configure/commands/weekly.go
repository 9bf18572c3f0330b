package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
)

// NewWeeklyCmd creates the weekly command
func NewWeeklyCmd() *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Show archived weekly totals, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if weeks < 1 {
				return fmt.Errorf("--weeks must be at least 1")
			}

			ctx := context.Background()
			gateway, err := openGateway(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = gateway.Close() }()

			var historical models.HistoricalData
			found, err := store.GetJSON(ctx, gateway, store.KeyHistoricalData, &historical)
			if err != nil {
				return fmt.Errorf("load historical data: %w", err)
			}
			if !found || len(historical.WeeklyStats) == 0 {
				fmt.Println("No archived weeks")
				return nil
			}

			// Week keys are ISO dates, so lexicographic order is
			// chronological order.
			keys := make([]string, 0, len(historical.WeeklyStats))
			for k := range historical.WeeklyStats {
				keys = append(keys, k)
			}
			sort.Sort(sort.Reverse(sort.StringSlice(keys)))
			if len(keys) > weeks {
				keys = keys[:weeks]
			}

			for _, k := range keys {
				week := historical.WeeklyStats[k]
				fmt.Printf("Week of %s: %s, %d sessions\n",
					week.WeekStart, formatDuration(week.TotalTime), week.SessionCount)
				days := make([]string, 0, len(week.DailyBreakdown))
				for d := range week.DailyBreakdown {
					days = append(days, d)
				}
				sort.Strings(days)
				for _, d := range days {
					fmt.Printf("  %s: %s\n", d, formatDuration(week.DailyBreakdown[d]))
				}
			}

			return nil
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 4, "Number of recent weeks to show")
	return cmd
}
