package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/pact-im/pact-cli/internal/api"
	"github.com/pact-im/pact-cli/internal/config"
)

// withFlags swaps the global flag state for the duration of a test.
func withFlags(t *testing.T, f rootFlags) {
	t.Helper()
	original := flags
	flags = f
	t.Cleanup(func() { flags = original })
}

func TestNewClient_Defaults(t *testing.T) {
	withFlags(t, rootFlags{})

	client := newClient(config.ClientConfig{BaseURL: "https://api.pact.im", Token: "tok"})

	if client.UserAgent != "pact-cli/"+version {
		t.Errorf("unexpected user agent: %q", client.UserAgent)
	}
	if client.IdempotencyKey != "" || client.IdempotencyKeyFunc != nil {
		t.Error("no idempotency key expected by default")
	}
}

func TestNewClient_Timeout(t *testing.T) {
	withFlags(t, rootFlags{Timeout: 5 * time.Second})

	client := newClient(config.ClientConfig{BaseURL: "https://api.pact.im", Token: "tok"})

	if client.HTTP.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", client.HTTP.Timeout)
	}
}

func TestNewClient_IdempotencyKeyLiteral(t *testing.T) {
	withFlags(t, rootFlags{IdempotencyKey: "fixed-key-1"})

	client := newClient(config.ClientConfig{BaseURL: "https://api.pact.im", Token: "tok"})

	if client.IdempotencyKey != "fixed-key-1" {
		t.Errorf("expected literal key, got %q", client.IdempotencyKey)
	}
	if client.IdempotencyKeyFunc != nil {
		t.Error("literal key must not install a generator")
	}
}

func TestNewClient_IdempotencyKeyAuto(t *testing.T) {
	withFlags(t, rootFlags{IdempotencyKey: "auto"})

	client := newClient(config.ClientConfig{BaseURL: "https://api.pact.im", Token: "tok"})

	if client.IdempotencyKey != "" {
		t.Errorf("auto mode must not set a fixed key, got %q", client.IdempotencyKey)
	}
	if client.IdempotencyKeyFunc == nil {
		t.Fatal("auto mode must install a generator")
	}
	first := client.IdempotencyKeyFunc()
	second := client.IdempotencyKeyFunc()
	if !strings.HasPrefix(first, "pactcli_") {
		t.Errorf("unexpected key format: %q", first)
	}
	if first == second {
		t.Error("generated keys must be unique per request")
	}
}

func TestApplyRetryOverrides(t *testing.T) {
	withFlags(t, rootFlags{
		MaxRateLimitRetries:    7,
		MaxRateLimitRetriesSet: true,
		RateLimitDelay:         250 * time.Millisecond,
		RateLimitDelaySet:      true,
	})

	client := newClient(config.ClientConfig{BaseURL: "https://api.pact.im", Token: "tok"})

	if client.RetryConfig.MaxRateLimitRetries != 7 {
		t.Errorf("expected 7 rate limit retries, got %d", client.RetryConfig.MaxRateLimitRetries)
	}
	if client.RetryConfig.RateLimitBaseDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms base delay, got %v", client.RetryConfig.RateLimitBaseDelay)
	}

	// Flags that were not set keep the client defaults.
	untouched := api.New("https://api.pact.im", "tok")
	if client.RetryConfig.Max5xxRetries != untouched.RetryConfig.Max5xxRetries {
		t.Errorf("5xx retries must stay at default, got %d", client.RetryConfig.Max5xxRetries)
	}
	if client.RetryConfig.ServerErrorRetryDelay != untouched.RetryConfig.ServerErrorRetryDelay {
		t.Errorf("server error delay must stay at default, got %v", client.RetryConfig.ServerErrorRetryDelay)
	}
}

func TestGetCompanyID_NotSet(t *testing.T) {
	withFlags(t, rootFlags{})
	t.Setenv("PACT_API_TOKEN", "tok")
	t.Setenv("PACT_COMPANY_ID", "")

	_, err := getCompanyID()
	if err == nil || !strings.Contains(err.Error(), "company ID not set") {
		t.Errorf("expected missing company error, got: %v", err)
	}
}

func TestGetCompanyID_FlagOverridesEnv(t *testing.T) {
	withFlags(t, rootFlags{Company: 9})
	t.Setenv("PACT_API_TOKEN", "tok")
	t.Setenv("PACT_COMPANY_ID", "4")

	id, err := getCompanyID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 9 {
		t.Errorf("expected flag to win, got %d", id)
	}
}

func TestGetClient_NoToken(t *testing.T) {
	withFlags(t, rootFlags{})
	t.Setenv("PACT_API_TOKEN", "")
	withEmptyKeyring(t)

	_, err := getClient()
	if err == nil || !strings.Contains(err.Error(), "API token not configured") {
		t.Errorf("expected token error, got: %v", err)
	}
}
