package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/darklock/relay/internal/auth"
	"github.com/darklock/relay/internal/config"
)

var (
	tokenSecret string
	tokenUser   string
	tokenTTL    time.Duration
)

// tokenCmd mints a bearer token the relay will accept. In production tokens
// come from the identity service; this exists for development and for
// operators who hold the shared secret.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a user id",
	Long: `Mint a bearer token signed with the shared relay secret.

The secret is read from --secret or RELAY_SIGNING_SECRET. The resulting token
authenticates as the given user id until it expires.

Example:
  relayctl token --user u_42 --ttl 1h`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret",
		os.Getenv("RELAY_SIGNING_SECRET"), "Shared signing secret")
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id the token authenticates as")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")

	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	if len(tokenSecret) < config.MinSigningSecretLength {
		return fmt.Errorf("signing secret must be at least %d characters", config.MinSigningSecretLength)
	}

	token, err := auth.MintToken(tokenSecret, tokenUser, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}

	fmt.Println(token)
	return nil
}
