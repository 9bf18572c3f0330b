package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
)

// NewToggleCmd creates the toggle command
func NewToggleCmd() *cobra.Command {
	var enable, disable bool
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Toggle tracking on or off",
		Long:  "Flip the tracking flag, or force it with --enable/--disable. A running service picks the change up on its next settings load.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}

			ctx := context.Background()
			gateway, err := openGateway(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = gateway.Close() }()

			settings := models.DefaultSettings()
			if _, err := store.GetJSON(ctx, gateway, store.KeySettings, settings); err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			switch {
			case enable:
				settings.TrackingEnabled = true
			case disable:
				settings.TrackingEnabled = false
			default:
				settings.TrackingEnabled = !settings.TrackingEnabled
			}

			if err := gateway.Set(ctx, store.KeySettings, settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}

			fmt.Printf("Tracking enabled: %t\n", settings.TrackingEnabled)
			return nil
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "Turn tracking on")
	cmd.Flags().BoolVar(&disable, "disable", false, "Turn tracking off")
	return cmd
}
