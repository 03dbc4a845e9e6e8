package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/darklock/relay/internal/relay"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query relay health and backlog depth",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp relay.HealthResponse
		if err := doJSON(http.MethodGet, "/health", nil, &resp); err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		return printJSON(resp)
	},
}
