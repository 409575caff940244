package cmd

import (
	"fmt"

	"github.com/pact-im/pact-cli/internal/api"
	"github.com/pact-im/pact-cli/internal/config"
)

// getClient builds an API client from saved credentials, environment
// variables, and the global --base-url/--token overrides.
func getClient() (*api.Client, error) {
	cfg, err := config.ResolveClientConfig(flags.BaseURL, flags.Token, flags.Company)
	if err != nil {
		return nil, err
	}
	return newClient(cfg), nil
}

func newClient(cfg config.ClientConfig) *api.Client {
	client := api.New(cfg.BaseURL, cfg.Token)
	if flags.Timeout > 0 {
		client.HTTP.Timeout = flags.Timeout
	}
	client.UserAgent = "pact-cli/" + version

	switch flags.IdempotencyKey {
	case "":
	case "auto":
		client.IdempotencyKeyFunc = newIdempotencyKey
	default:
		client.IdempotencyKey = flags.IdempotencyKey
	}

	applyRetryOverrides(client)
	return client
}

// applyRetryOverrides copies only the retry flags the user actually set
// onto the client, leaving env/default values for the rest.
func applyRetryOverrides(client *api.Client) {
	cfg := client.RetryConfig
	changed := false

	if flags.MaxRateLimitRetriesSet {
		cfg.MaxRateLimitRetries = flags.MaxRateLimitRetries
		changed = true
	}
	if flags.Max5xxRetriesSet {
		cfg.Max5xxRetries = flags.Max5xxRetries
		changed = true
	}
	if flags.RateLimitDelaySet {
		cfg.RateLimitBaseDelay = flags.RateLimitDelay
		changed = true
	}
	if flags.ServerErrorDelaySet {
		cfg.ServerErrorRetryDelay = flags.ServerErrorDelay
		changed = true
	}

	if changed {
		client.SetRetryConfig(cfg)
	}
}

// getCompanyID resolves the company scope from --company, PACT_COMPANY_ID,
// or the saved profile.
func getCompanyID() (int, error) {
	cfg, err := config.ResolveClientConfig(flags.BaseURL, flags.Token, flags.Company)
	if err != nil {
		return 0, err
	}
	if cfg.CompanyID <= 0 {
		return 0, fmt.Errorf("company ID not set (use --company, PACT_COMPANY_ID, or 'pact auth login --company')")
	}
	return cfg.CompanyID, nil
}
