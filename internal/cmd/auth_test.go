package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"

	"github.com/pact-im/pact-cli/internal/config"
)

// withEmptyKeyring points config at a fresh in-memory keyring per call.
func withEmptyKeyring(t *testing.T) {
	t.Helper()
	cleanup := config.SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return keyring.NewArrayKeyring(nil), nil
	})
	t.Cleanup(cleanup)
}

// withPersistentKeyring points config at one in-memory keyring shared across
// calls, so writes in one command are visible to the next.
func withPersistentKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	cleanup := config.SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(cleanup)
}

// clearAuthEnv blanks the environment variables that would otherwise win
// over keyring-stored credentials.
func clearAuthEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PACT_API_TOKEN", "")
	t.Setenv("PACT_BASE_URL", "")
	t.Setenv("PACT_COMPANY_ID", "")
	t.Setenv("PACT_PROFILE", "")
}

func TestAuthLogin_MissingToken(t *testing.T) {
	withEmptyKeyring(t)
	clearAuthEnv(t)

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login"})
	})

	if err == nil || !strings.Contains(err.Error(), "--token is required") {
		t.Errorf("expected missing token error, got: %v", err)
	}
}

func TestAuthLogin_InvalidURL(t *testing.T) {
	withEmptyKeyring(t)
	clearAuthEnv(t)

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login", "--token", "tok", "--url", "ftp://example.com"})
	})

	if err == nil || !strings.Contains(err.Error(), "invalid URL") {
		t.Errorf("expected URL validation error, got: %v", err)
	}
}

func TestAuthLoginAndStatus(t *testing.T) {
	withPersistentKeyring(t)
	clearAuthEnv(t)

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{
			"auth", "login", "--token", "secret-token-abcdef", "--company", "42",
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
	})

	if !strings.Contains(output, "saved successfully") {
		t.Errorf("expected save confirmation, got: %s", output)
	}
	if !strings.Contains(output, "Company ID: 42") {
		t.Errorf("expected company in output, got: %s", output)
	}

	status := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status"}); err != nil {
			t.Fatalf("status failed: %v", err)
		}
	})

	if !strings.Contains(status, "Authenticated") {
		t.Errorf("expected authenticated status, got: %s", status)
	}
	if strings.Contains(status, "secret-token-abcdef") {
		t.Errorf("token must be masked, got: %s", status)
	}
	if !strings.Contains(status, "secr") {
		t.Errorf("expected masked token prefix, got: %s", status)
	}
}

func TestAuthStatus_NotConfigured(t *testing.T) {
	withEmptyKeyring(t)
	clearAuthEnv(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status"}); err != nil {
			t.Fatalf("status failed: %v", err)
		}
	})

	if !strings.Contains(output, "Not authenticated.") {
		t.Errorf("expected not-authenticated message, got: %s", output)
	}
}

func TestAuthStatus_NotConfiguredJSON(t *testing.T) {
	withEmptyKeyring(t)
	clearAuthEnv(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status", "-o", "json"}); err != nil {
			t.Fatalf("status failed: %v", err)
		}
	})

	var payload map[string]any
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		t.Fatalf("status JSON invalid: %v, output: %s", err, output)
	}
	if payload["authenticated"] != false {
		t.Errorf("expected authenticated false, got %v", payload["authenticated"])
	}
}

func TestAuthStatus_EnvSource(t *testing.T) {
	withEmptyKeyring(t)
	clearAuthEnv(t)
	t.Setenv("PACT_API_TOKEN", "env-token-12345678")
	t.Setenv("PACT_COMPANY_ID", "7")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status", "-o", "json"}); err != nil {
			t.Fatalf("status failed: %v", err)
		}
	})

	var payload map[string]any
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		t.Fatalf("status JSON invalid: %v, output: %s", err, output)
	}
	if payload["source"] != "env" {
		t.Errorf("expected env source, got %v", payload["source"])
	}
	if payload["company_id"] != float64(7) {
		t.Errorf("expected company 7, got %v", payload["company_id"])
	}
	if token, _ := payload["api_token"].(string); strings.Contains(token, "env-token-12345678") {
		t.Errorf("token must be masked, got %q", token)
	}
}

func TestAuthLogin_EnvFile(t *testing.T) {
	withPersistentKeyring(t)
	clearAuthEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "PACT_API_TOKEN=file-token-abcdef\nPACT_COMPANY_ID=11\nPACT_BASE_URL=https://pact.example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "login", "--env-file", path, "--allow-private"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
	})

	if !strings.Contains(output, "Base URL: https://pact.example.com") {
		t.Errorf("expected base URL from env file, got: %s", output)
	}
	if !strings.Contains(output, "Company ID: 11") {
		t.Errorf("expected company from env file, got: %s", output)
	}

	account, err := config.LoadProfile("default")
	if err != nil {
		t.Fatalf("profile not saved: %v", err)
	}
	if account.APIToken != "file-token-abcdef" || account.CompanyID != 11 {
		t.Errorf("unexpected saved account: %+v", account)
	}
}

func TestAuthLogin_EnvFileInvalidCompany(t *testing.T) {
	withEmptyKeyring(t)
	clearAuthEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PACT_API_TOKEN=tok\nPACT_COMPANY_ID=banana\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login", "--env-file", path})
	})

	if err == nil || !strings.Contains(err.Error(), "invalid PACT_COMPANY_ID") {
		t.Errorf("expected env-file company error, got: %v", err)
	}
}

func TestAuthLogin_EnvFileMissing(t *testing.T) {
	withEmptyKeyring(t)
	clearAuthEnv(t)

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login", "--env-file", "/nonexistent/.env"})
	})

	if err == nil || !strings.Contains(err.Error(), "failed to read --env-file") {
		t.Errorf("expected read error, got: %v", err)
	}
}

func TestAuthLogout(t *testing.T) {
	withPersistentKeyring(t)
	clearAuthEnv(t)

	_ = captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "login", "--token", "tok12345"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
	})

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "logout"}); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
	})

	if !strings.Contains(output, "removed successfully") {
		t.Errorf("expected removal confirmation, got: %s", output)
	}

	if _, err := config.LoadProfile("default"); err != config.ErrNotConfigured {
		t.Errorf("expected profile gone, got: %v", err)
	}
}

func TestAuthProfiles(t *testing.T) {
	withPersistentKeyring(t)
	clearAuthEnv(t)

	for _, profile := range []string{"default", "staging"} {
		_ = captureStdout(t, func() {
			err := Execute(context.Background(), []string{
				"auth", "login", "--token", "tok-" + profile, "--profile", profile,
			})
			if err != nil {
				t.Fatalf("login %s failed: %v", profile, err)
			}
		})
	}

	list := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "profiles", "list"}); err != nil {
			t.Fatalf("profiles list failed: %v", err)
		}
	})

	if !strings.Contains(list, "default") || !strings.Contains(list, "staging") {
		t.Errorf("expected both profiles, got: %s", list)
	}
	// staging was saved last and is therefore current.
	if !strings.Contains(list, "* staging") {
		t.Errorf("expected staging marked current, got: %s", list)
	}

	use := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "profiles", "use", "default"}); err != nil {
			t.Fatalf("profiles use failed: %v", err)
		}
	})
	if !strings.Contains(use, "Switched to profile default") {
		t.Errorf("expected switch confirmation, got: %s", use)
	}
}

func TestAuthProfilesUse_NotFound(t *testing.T) {
	withEmptyKeyring(t)
	clearAuthEnv(t)

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "profiles", "use", "ghost"})
	})

	if err == nil || !strings.Contains(err.Error(), `profile "ghost" not found`) {
		t.Errorf("expected not-found error, got: %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdefg", "*******"},
		{"abcd1234", "abcd1234"},
		{"abcd12345", "abcd*2345"},
		{"1234567890abcdef", "1234********cdef"},
	}
	for _, tt := range tests {
		if got := maskToken(tt.token); got != tt.want {
			t.Errorf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}
