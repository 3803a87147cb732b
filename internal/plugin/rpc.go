// Package plugin implements the launcher host protocol: the host runs
// the binary with one JSON-RPC request argument and reads a JSON
// response from stdout.
package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/flowhttp/forwarder/models"
)

// Request is the JSON-RPC call the host passes as the sole argument.
// Settings, when present, override the settings file for this cycle.
type Request struct {
	Method     string         `json:"method"`
	Parameters []any          `json:"parameters"`
	Settings   map[string]any `json:"settings"`
}

// Response wraps result rows for the host.
type Response struct {
	Result []models.Result `json:"result"`
}

// LooksLikeRequest reports whether the argument is a host RPC call
// rather than a CLI invocation.
func LooksLikeRequest(arg string) bool {
	return strings.HasPrefix(strings.TrimSpace(arg), "{")
}

// ParseRequest decodes the host argument.
func ParseRequest(arg string) (*Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(arg), &req); err != nil {
		return nil, fmt.Errorf("failed to parse RPC request: %w", err)
	}
	if req.Method == "" {
		return nil, fmt.Errorf("RPC request has no method")
	}
	return &req, nil
}

// WriteResults prints the response the host expects. The result key is
// always present, even for zero rows.
func WriteResults(w io.Writer, results []models.Result) error {
	if results == nil {
		results = []models.Result{}
	}
	data, err := json.Marshal(Response{Result: results})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
