package main

import (
	"fmt"
	"time"

	"leadsync_backend/internal/webhook"
	"leadsync_backend/platform/httpkit"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token SUBJECT",
	Short: "Mint an admin access token for the admin API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		token, err := httpkit.IssueAccessToken(cfg, args[0], []string{httpkit.RoleAdmin}, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var keyCmd = &cobra.Command{
	Use:   "webhook-key",
	Short: "Generate a webhook API key and the hash to configure",
	Long: `Generate a webhook API key.

Give the key to the form system (X-Webhook-API-Key header) and put the
hash in WEBHOOK_API_KEYS so the plaintext never sits in server config.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		plaintext, hash, err := webhook.GenerateAPIKey()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "key:  %s\nhash: %s\n", plaintext, hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd, keyCmd)
}
