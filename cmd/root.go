package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"butcherdesk/internal/config"
	"butcherdesk/internal/logger"
)

var version = "1.0.0"

// appConfig is the configuration loaded by main. Commands that need it go
// through requireConfig so a failed load surfaces as a command error rather
// than a panic.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "butcherdesk",
	Short: "butcherdesk - admin tooling for the butchers counter",
	Long: `butcherdesk is the admin companion to the shop's Sage ERP: it pulls the
day's sales invoices, reconciles them into per-customer butchers lists of
fresh produce, and keeps the product catalog and sales reports that the
counter staff work from.

Configuration comes from the environment (a .env file is read on startup);
see the individual command help for the variables each one needs.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("butcherdesk executed")

		fmt.Println("butcherdesk - butchers counter admin tooling")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute(cfg *config.Config) {
	appConfig = cfg
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func requireConfig() (*config.Config, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("configuration not loaded; check the environment and .env file")
	}
	return appConfig, nil
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
