// Package cli implements the relayctl commands: a thin operator/dev client
// for the relay API plus a token minter for environments where the operator
// holds the shared signing secret.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	relayURL    string
	bearerToken string
)

var rootCmd = &cobra.Command{
	Use:               "relayctl",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Client for the opaque-envelope relay",
	Long: `relayctl is a development and operations client for the envelope relay.

It can mint bearer tokens (given the shared signing secret), push envelopes,
poll a recipient queue, ack envelopes, and query service health.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&relayURL, "relay-url",
		envOr("RELAY_URL", "http://localhost:8080"), "Base URL of the relay")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token",
		os.Getenv("RELAY_TOKEN"), "Bearer token (defaults to RELAY_TOKEN)")

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(healthCmd)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
