package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pact-im/pact-cli/internal/config"
	"github.com/pact-im/pact-cli/internal/validation"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage authentication credentials",
		Long:    "Configure and manage Pact API authentication credentials stored securely in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthProfilesCmd())

	return cmd
}

// newAuthLoginCmd creates the auth login command
func newAuthLoginCmd() *cobra.Command {
	var (
		url       string
		token     string
		companyID int
		profile   string
		envFile   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save API credentials to the OS keychain",
		Long: strings.TrimSpace(`
Save Pact authentication credentials securely to your OS keychain.

You'll need:
- API Token: generate one in your Pact company settings
- Company ID: the company the token belongs to (optional, can be passed per command)

The base URL defaults to the hosted platform and only needs changing for
self-hosted installations.
`),
		Example: strings.TrimSpace(`
  # Save a token for the default profile
  pact auth login --token YOUR_API_TOKEN --company 42

  # Save to a named profile against a self-hosted installation
  pact auth login --token YOUR_API_TOKEN --company 42 --url https://pact.example.com --profile staging

  # Load credentials from a .env file
  pact auth login --env-file .env
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				envVars, err := loadAuthEnvFile(envFile)
				if err != nil {
					return err
				}
				applyAuthEnvFileRuntimeVars(envVars)

				if url == "" {
					url = strings.TrimSpace(envVars["PACT_BASE_URL"])
				}
				if token == "" {
					token = strings.TrimSpace(envVars["PACT_API_TOKEN"])
				}
				if companyID <= 0 {
					rawCompanyID := strings.TrimSpace(envVars["PACT_COMPANY_ID"])
					if rawCompanyID != "" {
						id, err := strconv.Atoi(rawCompanyID)
						if err != nil || id <= 0 {
							return fmt.Errorf("invalid PACT_COMPANY_ID in %q: must be a positive integer", envFile)
						}
						companyID = id
					}
				}
				if !cmd.Flags().Changed("profile") {
					if envProfile := strings.TrimSpace(envVars["PACT_PROFILE"]); envProfile != "" {
						profile = envProfile
					}
				}
			}

			if token == "" {
				return fmt.Errorf("--token is required")
			}
			if url == "" {
				url = config.DefaultBaseURL
			}
			url = strings.TrimSuffix(url, "/")

			// Validate URL to prevent SSRF attacks
			if err := validation.ValidateBaseURL(url); err != nil {
				return fmt.Errorf("invalid URL: %w", err)
			}

			account := config.Account{
				BaseURL:   url,
				APIToken:  token,
				CompanyID: companyID,
			}

			if err := config.SaveProfile(profile, account); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Authentication credentials saved successfully!")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Base URL: %s\n", url)
			if companyID > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Company ID: %d\n", companyID)
			}
			if profile != "" && profile != "default" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Profile: %s\n", profile)
			}

			return nil
		}),
	}

	cmd.Flags().StringVar(&url, "url", "", "Pact base URL (defaults to "+config.DefaultBaseURL+")")
	cmd.Flags().StringVar(&token, "token", "", "API access token (required)")
	cmd.Flags().IntVar(&companyID, "company", 0, "Default company ID for this profile")
	cmd.Flags().StringVar(&profile, "profile", "default", "Profile name to save credentials under")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load PACT_* values from a .env file")
	flagAlias(cmd.Flags(), "profile", "pf")
	flagAlias(cmd.Flags(), "env-file", "env")

	return cmd
}

func loadAuthEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("--env-file requires a file path")
	}

	envVars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read --env-file %q: %w", path, err)
	}

	return envVars, nil
}

// applyAuthEnvFileRuntimeVars copies keyring settings from --env-file into
// the process environment when they are not already exported.
func applyAuthEnvFileRuntimeVars(envVars map[string]string) {
	keys := []string{
		"PACT_KEYRING_BACKEND",
		"PACT_KEYRING_PASSWORD",
		"PACT_CREDENTIALS_DIR",
	}

	for _, key := range keys {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		value := strings.TrimSpace(envVars[key])
		if value == "" {
			continue
		}
		_ = os.Setenv(key, value)
	}
}

// newAuthStatusCmd creates the auth status command
func newAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current authentication configuration",
		Long:  "Display the currently saved authentication configuration (API token is masked for security).",
		Example: strings.TrimSpace(`
  # Check authentication status
  pact auth status

  # JSON output for scripting
  pact auth status --json
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			usingEnv := strings.TrimSpace(os.Getenv("PACT_API_TOKEN")) != ""

			account, err := config.LoadAccount()
			if err != nil {
				if err == config.ErrNotConfigured {
					if isJSON(cmd) {
						return printJSON(cmd, map[string]any{
							"authenticated": false,
							"message":       "Not authenticated. Run 'pact auth login' to configure credentials.",
						})
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'pact auth login' to configure credentials.")
					return nil
				}
				return fmt.Errorf("failed to load credentials: %w", err)
			}

			var profile string
			if !usingEnv {
				if current, err := config.CurrentProfile(); err == nil {
					profile = current
				}
			}

			if isJSON(cmd) {
				payload := map[string]any{
					"authenticated": true,
					"base_url":      account.BaseURL,
					"company_id":    account.CompanyID,
					"api_token":     maskToken(account.APIToken),
					"source":        map[bool]string{true: "env", false: "keychain"}[usingEnv],
				}
				if profile != "" {
					payload["profile"] = profile
				}
				return printJSON(cmd, payload)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Authenticated")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Base URL: %s\n", account.BaseURL)
			if account.CompanyID > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Company ID: %d\n", account.CompanyID)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  API Token: %s\n", maskToken(account.APIToken))
			if profile != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Profile: %s\n", profile)
			}
			if usingEnv {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  Source: env")
			}

			return nil
		}),
	}

	return cmd
}

// newAuthLogoutCmd creates the auth logout command
func newAuthLogoutCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove credentials from keychain",
		Long:  "Delete the stored authentication credentials from your OS keychain.",
		Example: strings.TrimSpace(`
  # Remove stored credentials
  pact auth logout
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if profile == "" {
				current, err := config.CurrentProfile()
				if err == nil {
					profile = current
				}
			}

			if profile == "" && !config.HasAccount() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No credentials found.")
				return nil
			}

			if err := config.DeleteProfile(profile); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}

			if profile == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed successfully.")
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %s removed successfully.\n", profile)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Profile name to remove (defaults to current)")
	flagAlias(cmd.Flags(), "profile", "pf")

	return cmd
}

// newAuthProfilesCmd creates the auth profiles command with subcommands
func newAuthProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "List and switch between saved profiles",
	}

	cmd.AddCommand(newAuthProfilesListCmd())
	cmd.AddCommand(newAuthProfilesUseCmd())

	return cmd
}

func newAuthProfilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved profiles",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}

			current, _ := config.CurrentProfile()

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"profiles": profiles,
					"current":  current,
				})
			}

			if len(profiles) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No profiles saved. Run 'pact auth login' to create one.")
				return nil
			}

			for _, name := range profiles {
				marker := " "
				if name == current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		}),
	}
}

func newAuthProfilesUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])

			// Verify the profile exists before switching.
			if _, err := config.LoadProfile(name); err != nil {
				if err == config.ErrNotConfigured {
					return fmt.Errorf("profile %q not found", name)
				}
				return fmt.Errorf("failed to load profile %q: %w", name, err)
			}

			if err := config.SetCurrentProfile(name); err != nil {
				return fmt.Errorf("failed to switch profile: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %s\n", name)
			return nil
		}),
	}
}

// maskToken masks an API token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
