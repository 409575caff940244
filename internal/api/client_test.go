package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompanyPath(t *testing.T) {
	client := newTestClient("https://api.example.com", "token")

	tests := []struct {
		companyID int
		path      string
		want      string
	}{
		{1, "/channels", "https://api.example.com/p1/companies/1/channels"},
		{42, "channels", "https://api.example.com/p1/companies/42/channels"},
		{7, "", "https://api.example.com/p1/companies/7"},
	}
	for _, tt := range tests {
		if got := client.companyPath(tt.companyID, tt.path); got != tt.want {
			t.Errorf("companyPath(%d, %q) = %q, want %q", tt.companyID, tt.path, got, tt.want)
		}
	}

	if got, want := client.apiPath("/companies"), "https://api.example.com/p1/companies"; got != want {
		t.Errorf("apiPath(/companies) = %q, want %q", got, want)
	}
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	client := New("https://api.example.com/", "token")
	if client.BaseURL != "https://api.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.BaseURL)
	}
}

func TestDoUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","data":{"external_id":12,"provider":"viber"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")
	var ch Channel
	if err := client.do(context.Background(), http.MethodGet, server.URL+"/p1/companies/1/channels/12", nil, &ch); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ch.ID != 12 || ch.Provider != "viber" {
		t.Errorf("Expected unwrapped channel, got %+v", ch)
	}
}

func TestDoAcceptsUnwrappedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"external_id":12,"provider":"viber"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")
	var ch Channel
	if err := client.do(context.Background(), http.MethodGet, server.URL+"/x", nil, &ch); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ch.ID != 12 {
		t.Errorf("Expected ID 12, got %d", ch.ID)
	}
}

func TestAPIErrorFromResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-123")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"channel not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")
	_, err := client.Channels().List(context.Background(), 1, ListOptions{})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != "channel not found" {
		t.Errorf("Expected sanitized body 'channel not found', got %s", apiErr.Body)
	}
	if apiErr.RequestID != "req-123" {
		t.Errorf("Expected request ID 'req-123', got %s", apiErr.RequestID)
	}
	if !IsNotFoundError(err) {
		t.Error("Expected IsNotFoundError to be true")
	}
}

func TestUnauthorizedBecomesAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token revoked"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")
	_, err := client.Channels().List(context.Background(), 1, ListOptions{})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError, got %T: %v", err, err)
	}
	if authErr.Reason != "token revoked" {
		t.Errorf("Expected sanitized reason 'token revoked', got %q", authErr.Reason)
	}
	if !IsAuthError(err) {
		t.Error("Expected IsAuthError to be true")
	}
}

func TestSanitizeErrorBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"bad token"}`, "bad token"},
		{"message field", `{"message":"nope"}`, "nope"},
		{"non-json redacted", `secret-token-abc`, "API request failed (response body redacted for security)"},
		{"unrecognized fields redacted", `{"token":"secret"}`, "API request failed (response body redacted for security)"},
		{
			"validation errors",
			`{"error":"invalid","errors":{"token":["can't be blank"],"provider":"unknown"}}`,
			"invalid\nValidation errors:\n  provider: unknown\n  token: can't be blank",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeErrorBody(tt.body); got != tt.want {
				t.Errorf("sanitizeErrorBody(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestIdempotencyKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Header.Get("Idempotency-Key") != "key-1" {
			t.Errorf("Expected idempotency key on POST, got %q", r.Header.Get("Idempotency-Key"))
		}
		if r.Method == http.MethodGet && r.Header.Get("Idempotency-Key") != "" {
			t.Errorf("Expected no idempotency key on GET, got %q", r.Header.Get("Idempotency-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","data":{"channels":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")
	client.IdempotencyKey = "key-1"
	ctx := context.Background()
	if _, err := client.Channels().List(ctx, 1, ListOptions{}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, err := client.Channels().CreateByToken(ctx, 1, "telegram", "tok"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestDoRawUsesAPIRoot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p1/companies/1/channels" {
			t.Errorf("Expected path /p1/companies/1/channels, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")
	body, _, status, err := client.DoRaw(context.Background(), http.MethodGet, "/companies/1/channels", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if !strings.Contains(string(body), "ok") {
		t.Errorf("Expected raw body, got %s", body)
	}
}

func TestBaseURLValidationRejected(t *testing.T) {
	client := New("ftp://pact.example.com", "token")
	_, err := client.Channels().List(context.Background(), 1, ListOptions{})
	if err == nil {
		t.Fatal("Expected URL validation error, got nil")
	}
	if !strings.Contains(err.Error(), "URL validation failed") {
		t.Errorf("Expected URL validation failure, got %v", err)
	}
}
