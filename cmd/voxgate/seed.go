package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/voxway/voxgate/bootstrap"
	"github.com/voxway/voxgate/config"
)

var (
	seedEmail    string
	seedPassword string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create or update the admin account",
	Long: `Create the admin account, or reset its password if it already
exists. The account is activated and given generous quotas.

Credentials are taken from --email/--password, then from the ADMIN_EMAIL
and ADMIN_PASSWORD environment variables, then from built-in defaults.

Examples:
  voxgate seed-admin
  voxgate seed-admin --email ops@example.com --password s3cret
  ADMIN_EMAIL=ops@example.com voxgate seed-admin`,
	RunE: runSeedAdmin,
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "admin email")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "admin password")
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	email := seedEmail
	if email == "" {
		email = os.Getenv("ADMIN_EMAIL")
	}
	password := seedPassword
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}

	a, err := bootstrap.New(cfg, version)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	u, err := a.SeedAdmin(context.Background(), email, password)
	if err != nil {
		return err
	}

	fmt.Printf("Admin user created/updated:\n")
	fmt.Printf("  Email: %s\n", u.Email)
	fmt.Printf("  ID:    %s\n", u.ID)
	return nil
}
