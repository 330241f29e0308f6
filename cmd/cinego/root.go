package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "cinego",
	Short: "CLI client for the cinego movie metadata gateway",
	Long: `cinego - CLI client for the cinego movie metadata gateway

Look up movie metadata through a running cinegod daemon, browse
what the gateway has cached, and check daemon status.

Run 'cinegod' to start the server daemon.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("cinego {{.Version}}\n")
}
