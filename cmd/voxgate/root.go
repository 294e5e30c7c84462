package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voxgate",
	Short: "Admin backend and metered proxy for voice and AI providers",
	Long: `Voxgate fronts speech-to-text and chat-completion providers with
user accounts, per-user quotas, and a usage ledger.

Quick start:
  voxgate seed-admin   # Create the first admin account
  voxgate serve        # Start the API server

Management:
  voxgate version      # Print version information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "voxgate.yaml", "config file path")
}
