package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabwatch/tabwatch/internal/store"
)

// NewClearCmd creates the clear command
func NewClearCmd() *cobra.Command {
	var all, yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete tracked data",
		Long:  "Delete today's stats and the historical archive. Settings survive unless --all is given. This cannot be undone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete without --yes")
			}

			ctx := context.Background()
			gateway, err := openGateway(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = gateway.Close() }()

			if all {
				if err := gateway.ClearAll(ctx); err != nil {
					return fmt.Errorf("clear store: %w", err)
				}
				fmt.Println("All data cleared, including settings")
				return nil
			}

			if err := gateway.Remove(ctx, store.KeyDailyStats); err != nil {
				return fmt.Errorf("remove daily stats: %w", err)
			}
			if err := gateway.Remove(ctx, store.KeyHistoricalData); err != nil {
				return fmt.Errorf("remove historical data: %w", err)
			}
			fmt.Println("Tracking data cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also delete settings")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
