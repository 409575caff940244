// Package cmd test utilities.
//
// Commands are tested end to end through Execute against a mock HTTP
// server. The main pieces are:
//
//   - routeHandler: a chainable HTTP handler routing requests to mock responses
//   - setupTestEnvWithHandler: environment setup with automatic cleanup
//   - captureStdout / captureStderr: output capture utilities
//   - jsonResponse: helper for creating JSON response handlers
//
// A minimal command test looks like:
//
//	func TestMyCommand(t *testing.T) {
//	    handler := newRouteHandler().
//	        On("GET", "/p1/companies/1/channels", jsonResponse(200, `{"status":"ok","data":{"channels":[]}}`))
//
//	    setupTestEnvWithHandler(t, handler)
//
//	    output := captureStdout(t, func() {
//	        if err := Execute(context.Background(), []string{"channels", "list"}); err != nil {
//	            t.Fatalf("command failed: %v", err)
//	        }
//	    })
//	    // Assert on output...
//	}
package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

// captureStdout executes a function and captures its stdout output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// captureStderr executes a function and captures its stderr output.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	_ = w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testEnv provides access to the mock server backing a test.
type testEnv struct {
	t      *testing.T
	server *httptest.Server
}

// setupTestEnvWithHandler creates a mock server and points the CLI at it
// via environment variables. All values are restored on cleanup.
//
// The function sets:
//   - PACT_BASE_URL to the test server URL
//   - PACT_API_TOKEN to "test-token"
//   - PACT_COMPANY_ID to "1"
//   - PACT_TESTING to skip URL validation for localhost
//   - PACT_OUTPUT to "text" so tests get text output by default
//   - PACT_NO_CACHE so list commands never serve stale cached data
func setupTestEnvWithHandler(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("PACT_BASE_URL", server.URL)
	t.Setenv("PACT_API_TOKEN", "test-token")
	t.Setenv("PACT_COMPANY_ID", "1")
	t.Setenv("PACT_TESTING", "1")
	t.Setenv("PACT_OUTPUT", "text")
	t.Setenv("PACT_NO_CACHE", "1")
	t.Setenv("PACT_CACHE_DIR", t.TempDir())

	return &testEnv{t: t, server: server}
}

// jsonResponse creates an http.HandlerFunc returning a JSON response.
func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// routeHandler routes requests by exact "METHOD PATH" combination and
// returns 404 when no route matches.
type routeHandler struct {
	routes map[string]http.HandlerFunc
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: make(map[string]http.HandlerFunc)}
}

// On registers a handler for the given HTTP method and path.
func (rh *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	rh.routes[method+" "+path] = handler
	return rh
}

func (rh *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	if handler, ok := rh.routes[key]; ok {
		handler(w, r)
		return
	}
	http.NotFound(w, r)
}

// decodeItems parses JSON list output and returns the items array.
// List commands with -o json emit {"items": [...]}.
func decodeItems(t *testing.T, output string) []map[string]any {
	t.Helper()
	var wrapper struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(output), &wrapper); err != nil {
		t.Fatalf("output is not valid JSON: %v, output: %s", err, output)
	}
	return wrapper.Items
}

// envelopeOK wraps a data payload in the platform's response envelope.
func envelopeOK(data string) string {
	return `{"status": "ok", "data": ` + data + `}`
}
