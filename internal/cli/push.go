package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/darklock/relay/internal/relay"
)

var (
	pushRecipients []string
	pushSender     string
)

var pushCmd = &cobra.Command{
	Use:   "push <ciphertext>",
	Short: "Push an opaque envelope to one or more recipients",
	Long: `Push a ciphertext envelope to the relay.

The ciphertext is passed through opaque - the relay neither decodes nor
validates it. With several --to flags, one independently ack-able envelope is
created per recipient.

Example:
  relayctl push --to u_42 "BASE64CIPHERTEXT"`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringSliceVar(&pushRecipients, "to", nil, "Recipient id (repeatable)")
	pushCmd.Flags().StringVar(&pushSender, "from", "", "Sender id (optional, display-only)")

	_ = pushCmd.MarkFlagRequired("to")
}

func runPush(cmd *cobra.Command, args []string) error {
	req := relay.PushRequest{Ciphertext: args[0]}

	if len(pushRecipients) == 1 {
		req.RecipientID = pushRecipients[0]
	} else {
		req.RecipientIDs = pushRecipients
	}
	if pushSender != "" {
		req.SenderID = &pushSender
	}

	var resp relay.PushResponse
	if err := doJSON(http.MethodPost, "/envelopes", req, &resp); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	return printJSON(resp)
}
