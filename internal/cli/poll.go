package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/darklock/relay/internal/relay"
)

var pollLimit int

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "List pending envelopes for the token's recipient",
	Long: `List pending envelopes, oldest first.

The recipient is always the bearer token's subject; there is no way to poll
another recipient's queue.`,
	RunE: runPoll,
}

func init() {
	pollCmd.Flags().IntVar(&pollLimit, "limit", 0, "Maximum envelopes to return (0 = server default)")
}

func runPoll(cmd *cobra.Command, args []string) error {
	path := "/envelopes"
	if pollLimit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, pollLimit)
	}

	var resp relay.PollResponse
	if err := doJSON(http.MethodGet, path, nil, &resp); err != nil {
		return fmt.Errorf("poll failed: %w", err)
	}

	return printJSON(resp)
}
