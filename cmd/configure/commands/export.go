package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var format string
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all persisted tracking data",
		Long:  "Dump settings, today's stats and the historical archive as JSON or YAML. The in-memory current session is only visible to the running service and is not included.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (json or yaml)", format)
			}

			ctx := context.Background()
			gateway, err := openGateway(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = gateway.Close() }()

			snapshot := models.ExportSnapshot{ExportedAt: time.Now().UTC()}

			settings := models.DefaultSettings()
			if _, err := store.GetJSON(ctx, gateway, store.KeySettings, settings); err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			snapshot.Settings = settings

			var daily models.DailyStats
			if found, err := store.GetJSON(ctx, gateway, store.KeyDailyStats, &daily); err != nil {
				return fmt.Errorf("load daily stats: %w", err)
			} else if found {
				snapshot.DailyStats = &daily
			}

			var historical models.HistoricalData
			if found, err := store.GetJSON(ctx, gateway, store.KeyHistoricalData, &historical); err != nil {
				return fmt.Errorf("load historical data: %w", err)
			} else if found {
				snapshot.HistoricalData = &historical
			}

			var encoded []byte
			switch format {
			case "yaml":
				encoded, err = yaml.Marshal(&snapshot)
			default:
				encoded, err = json.MarshalIndent(&snapshot, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}

			if output == "" {
				fmt.Println(string(encoded))
				return nil
			}
			if err := os.WriteFile(output, encoded, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Printf("Exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	cmd.Flags().StringVar(&output, "output", "", "Write to file instead of stdout")
	return cmd
}
