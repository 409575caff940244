package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pact-im/pact-cli/internal/api"
	"github.com/pact-im/pact-cli/internal/debug"
	"github.com/pact-im/pact-cli/internal/dryrun"
	"github.com/pact-im/pact-cli/internal/iocontext"
	"github.com/pact-im/pact-cli/internal/outfmt"
	"github.com/pact-im/pact-cli/internal/validation"
)

// rootFlags holds all global flag values. Execute resets it before every
// run so commands can be executed repeatedly within one process (tests).
type rootFlags struct {
	Output      string
	JSON        bool
	Query       string
	JQ          string
	CompactJSON bool
	Template    string

	Quiet   bool
	Silent  bool
	Yes     bool
	NoInput bool

	Debug        bool
	DryRun       bool
	AllowPrivate bool

	Timeout time.Duration

	BaseURL string
	Token   string
	Company int

	IdempotencyKey string

	MaxRateLimitRetries    int
	MaxRateLimitRetriesSet bool
	Max5xxRetries          int
	Max5xxRetriesSet       bool
	RateLimitDelay         time.Duration
	RateLimitDelaySet      bool
	ServerErrorDelay       time.Duration
	ServerErrorDelaySet    bool
}

var flags rootFlags

// Execute runs the CLI with the given arguments and returns the resulting
// error. The caller maps it to an exit code via ExitCode.
func Execute(ctx context.Context, args []string) error {
	flags = rootFlags{}
	loadPactEnv()

	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pact",
		Short: "Manage Pact channels, conversations, and messages",
		Long: strings.TrimSpace(`
pact is a command-line client for the Pact messaging platform.

Connect messaging channels (WhatsApp, Instagram, Telegram, and others),
open conversations with end users, and send and read messages, all scoped
to a company. Credentials are stored in the OS keychain; JSON output and
jq-style filtering make it scriptable.
`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			mode := flags.Output
			if mode == "" {
				mode = strings.TrimSpace(os.Getenv("PACT_OUTPUT"))
			}
			if flags.JSON {
				mode = "json"
			}
			if mode != "" {
				parsed, err := outfmt.Parse(mode)
				if err != nil {
					return api.NewEnumValidationError("output", mode, []string{"text", "json", "jsonl", "ndjson"})
				}
				ctx = outfmt.WithMode(ctx, parsed)
			}
			if flags.CompactJSON {
				ctx = outfmt.WithCompact(ctx, true)
			}
			if query := getJQQuery(); query != "" {
				ctx = outfmt.WithQuery(ctx, query)
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				ctx = outfmt.WithTemplate(ctx, tmpl)
			}

			streams := iocontext.DefaultIO()
			if flags.Silent {
				streams = &iocontext.IO{Out: io.Discard, ErrOut: io.Discard, In: os.Stdin}
			} else if flags.Quiet {
				streams = &iocontext.IO{Out: os.Stdout, ErrOut: io.Discard, In: os.Stdin}
			}
			ctx = iocontext.WithIO(ctx, streams)

			debug.SetupLogger(flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)

			if flags.DryRun {
				ctx = dryrun.WithDryRun(ctx, true)
			}

			if flags.AllowPrivate || envBool("PACT_ALLOW_PRIVATE") {
				validation.SetAllowPrivate(true)
			}

			// Record which retry overrides were set explicitly so the
			// client factory only copies those.
			flags.MaxRateLimitRetriesSet = flagOrAliasChanged(cmd, "max-rate-limit-retries")
			flags.Max5xxRetriesSet = flagOrAliasChanged(cmd, "max-5xx-retries")
			flags.RateLimitDelaySet = flagOrAliasChanged(cmd, "rate-limit-delay")
			flags.ServerErrorDelaySet = flagOrAliasChanged(cmd, "server-error-delay")

			cmd.SetContext(ctx)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", "", "Output format: text, json, or jsonl")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVar(&flags.Query, "query", "", "jq expression applied to JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "jq expression applied to JSON output (takes precedence over --query)")
	pf.BoolVar(&flags.CompactJSON, "compact-json", false, "Emit compact JSON instead of indented")
	pf.StringVar(&flags.Template, "template", "", "Go template applied to JSON output (@path reads a file)")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress progress and informational stderr output")
	pf.BoolVar(&flags.Silent, "silent", false, "Suppress all output")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Assume yes for confirmation prompts")
	pf.BoolVar(&flags.NoInput, "no-input", false, "Fail instead of prompting for input")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging to stderr")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Preview write operations without executing them")
	pf.BoolVar(&flags.AllowPrivate, "allow-private", false, "Allow base URLs on private networks")
	pf.DurationVar(&flags.Timeout, "timeout", api.DefaultTimeout, "HTTP request timeout")
	pf.StringVar(&flags.BaseURL, "base-url", "", "API base URL (overrides saved credentials)")
	pf.StringVar(&flags.Token, "token", "", "API token (overrides saved credentials)")
	pf.IntVarP(&flags.Company, "company", "c", 0, "Company ID for company-scoped commands")
	pf.StringVar(&flags.IdempotencyKey, "idempotency-key", "", "Idempotency key for write requests ('auto' to generate)")
	pf.IntVar(&flags.MaxRateLimitRetries, "max-rate-limit-retries", api.DefaultMaxRateLimitRetries, "Max retries after 429 responses")
	pf.IntVar(&flags.Max5xxRetries, "max-5xx-retries", api.DefaultMax5xxRetries, "Max retries after 5xx responses")
	pf.DurationVar(&flags.RateLimitDelay, "rate-limit-delay", api.DefaultRateLimitBaseDelay, "Base delay between rate limit retries")
	pf.DurationVar(&flags.ServerErrorDelay, "server-error-delay", api.DefaultServerErrorRetryDelay, "Delay between server error retries")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "dry-run", "dr")
	flagAlias(pf, "idempotency-key", "ik")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newChannelsCmd())
	root.AddCommand(newCompaniesCmd())
	root.AddCommand(newConversationsCmd())
	root.AddCommand(newMessagesCmd())
	root.AddCommand(newJobsCmd())
	root.AddCommand(newAPICmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadPactEnv copies PACT_* settings from ~/.pact/.env into the process
// environment. Exported variables always win over the file.
func loadPactEnv() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	path := filepath.Join(home, ".pact", ".env")
	envVars, err := godotenv.Read(path)
	if err != nil {
		return
	}
	for key, value := range envVars {
		if !strings.HasPrefix(key, "PACT_") {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		_ = os.Setenv(key, value)
	}
}

func envBool(key string) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return false
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return enabled
}
