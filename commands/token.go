package commands

import (
	"fmt"
	"os"
	"time"

	"leadflow-backend/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	Subject string
	TTL     time.Duration
	Secret  string
}

// NewTokenCommand mints bearer tokens for CRM services and operators.
func NewTokenCommand() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token",
		Example: `  leadflow token --subject crm-sync
  leadflow token --subject ops --ttl 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Secret == "" {
				_ = godotenv.Load()
				opts.Secret = os.Getenv("JWT_SECRET")
			}
			token, err := utils.GenerateToken(opts.Subject, opts.Secret, opts.TTL)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "", "token subject (required)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 30*24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "signing secret (defaults to JWT_SECRET)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

// NewSecretCommand prints a fresh random value for JWT_SECRET.
func NewSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a JWT signing secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), utils.GenerateJWTSecret())
			return err
		},
	}
}
