package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/voxway/voxgate/bootstrap"
	"github.com/voxway/voxgate/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the Voxgate API server.

The server will:
  - Load configuration from voxgate.yaml (or --config)
  - Or load configuration from VOXGATE_* environment variables
  - Connect to the database
  - Serve the auth, STT, chat, and admin APIs
  - Reload rates, CORS origins and log level on config file edits
    or SIGHUP (file-based configuration only)

Environment variables (for Docker deployments):
  VOXGATE_AUTH_JWT_SECRET       - Token signing secret (required)
  VOXGATE_DATABASE_DSN          - Database path (default: voxgate.db)
  VOXGATE_SERVER_PORT           - Server port (default: 8080)
  VOXGATE_OPENROUTER_API_KEY    - OpenRouter API key
  VOXGATE_ELEVENLABS_API_KEY    - ElevenLabs API key
  VOXGATE_SPEECHMATICS_API_KEY  - Speechmatics API key
  VOXGATE_LOG_LEVEL             - Log level: debug, info, warn, error

Examples:
  voxgate serve
  voxgate serve --config /etc/voxgate/config.yaml

  # Docker (env vars only):
  VOXGATE_AUTH_JWT_SECRET=... voxgate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// A local .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}

	a, err := bootstrap.New(cfg, version)
	if err != nil {
		return err
	}

	// Hot reload needs a file to watch; env-only deployments change
	// settings by restarting.
	if _, statErr := os.Stat(cfgFile); cfgFile != "" && statErr == nil {
		holder, err := config.NewHolder(cfgFile, a.Logger)
		if err != nil {
			return err
		}
		holder.OnChange(a.ApplyConfig)
		if err := holder.WatchFile(); err != nil {
			return err
		}
		holder.WatchSignals()
		defer holder.Stop()
	}

	return a.Run()
}
