package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command of the one-shot screening CLI.
var rootCmd = &cobra.Command{
	Use:   "screen",
	Short: "CANSLIM screening from the command line",
	Long: `screen runs the CANSLIM evaluation once against the configured ClickHouse
tables, or prints the effective criteria, without starting the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
