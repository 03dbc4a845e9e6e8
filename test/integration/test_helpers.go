//go:build integration

// functions that are useful in integration tests

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/darklock/relay/internal/auth"
)

// mintToken creates a bearer token the in-process server will accept.
func mintToken(t *testing.T, userID string) string {
	t.Helper()

	token, err := auth.MintToken(testSigningSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("Failed to mint token: %v", err)
	}
	return token
}

// doRequest sends an authenticated JSON request to the in-process server and
// decodes the response body into out (if out is non-nil). It returns the
// status code and raw body for error-path assertions.
func doRequest(t *testing.T, env *testEnv, token, method, path string, body any, out any) (int, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, env.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(respBody, out); err != nil {
			t.Fatalf("Failed to decode response %s: %v", string(respBody), err)
		}
	}

	return resp.StatusCode, respBody
}
