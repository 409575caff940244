package config

import (
	"errors"
	"fmt"
	"strings"
)

// ClientConfig contains resolved API client settings.
type ClientConfig struct {
	BaseURL   string
	Token     string
	CompanyID int
}

// ResolveClientConfig resolves client settings from the stored account with
// flag overrides applied on top.
func ResolveClientConfig(baseURLOverride, tokenOverride string, companyOverride int) (ClientConfig, error) {
	var cfg ClientConfig

	account, err := LoadAccount()
	switch {
	case err == nil:
		cfg.BaseURL = account.BaseURL
		cfg.Token = account.APIToken
		cfg.CompanyID = account.CompanyID
	case !errors.Is(err, ErrNotConfigured):
		// A malformed environment (e.g. bad PACT_COMPANY_ID) must not be
		// reported as a missing token.
		return ClientConfig{}, err
	}

	if baseURLOverride != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURLOverride, "/")
	}
	if tokenOverride != "" {
		cfg.Token = tokenOverride
	}
	if companyOverride > 0 {
		cfg.CompanyID = companyOverride
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Token == "" {
		return ClientConfig{}, fmt.Errorf("API token not configured (set PACT_API_TOKEN, use --token, or run 'pact auth login')")
	}

	return cfg, nil
}
