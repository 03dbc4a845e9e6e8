package cli

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/darklock/relay/internal/relay"
)

var ackCmd = &cobra.Command{
	Use:   "ack <envelope-id> [envelope-id...]",
	Short: "Acknowledge delivered envelopes",
	Long: `Acknowledge one or more envelopes so the relay can retire them.

Acking is idempotent: re-acking an already-acked envelope reports acked=false
and is not an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAck,
}

func runAck(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		var resp relay.AckResponse
		if err := doJSON(http.MethodPost, "/envelopes/"+args[0]+"/ack", nil, &resp); err != nil {
			return fmt.Errorf("ack failed: %w", err)
		}
		return printJSON(resp)
	}

	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return fmt.Errorf("invalid envelope id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}

	var resp relay.AckBatchResponse
	if err := doJSON(http.MethodPost, "/envelopes/ack", relay.AckBatchRequest{EnvelopeIDs: ids}, &resp); err != nil {
		return fmt.Errorf("ack failed: %w", err)
	}
	return printJSON(resp)
}
