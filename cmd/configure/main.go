package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabwatch/tabwatch/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "tabwatch-configure",
		Short: "Inspection tool for tabwatch tracking data",
		Long:  "CLI tool for inspecting and managing tracked browsing data in the local store",
	}

	rootCmd.AddCommand(commands.NewStatusCmd())
	rootCmd.AddCommand(commands.NewToggleCmd())
	rootCmd.AddCommand(commands.NewWeeklyCmd())
	rootCmd.AddCommand(commands.NewExportCmd())
	rootCmd.AddCommand(commands.NewClearCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
