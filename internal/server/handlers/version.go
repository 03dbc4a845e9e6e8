package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/darklock/relay/internal/version"
)

type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	Service   string `json:"service"`
}

// HandleVersion returns the version and build information for the service.
func HandleVersion() http.HandlerFunc {
	// Pre-create the response to avoid allocating on every request
	v := version.Get()
	response := VersionResponse{
		Version:   v.Version,
		GitCommit: v.GitCommit,
		BuildDate: v.BuildDate,
		Service:   "relay-server",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode version", http.StatusInternalServerError)
			return
		}
	}
}
