package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pact-im/pact-cli/internal/api"
	"github.com/pact-im/pact-cli/internal/dryrun"
	"github.com/pact-im/pact-cli/internal/iocontext"
	"github.com/pact-im/pact-cli/internal/outfmt"
)

// errAlreadyHandled marks errors whose message was already printed by RunE.
// The binary's main() still needs the error for the exit code, but must not
// print it a second time.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err  error
	code int
}

func (e *handledError) Error() string { return e.err.Error() }
func (e *handledError) Unwrap() error { return errAlreadyHandled }

// RunE wraps a command's run function so errors are printed exactly once,
// as text with suggestions or as a structured JSON object depending on the
// output mode.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}

		streams := iocontext.GetIO(cmd.Context())
		if isJSON(cmd) {
			structured := api.StructuredErrorFromError(err)
			_ = outfmt.WriteJSON(streams.ErrOut, map[string]any{"error": structured})
		} else {
			HandleError(streams.ErrOut, err)
		}

		return &handledError{err: err, code: ExitCode(err)}
	}
}

// getJQQuery returns the active jq expression; --jq wins over --query.
func getJQQuery() string {
	if flags.JQ != "" {
		return flags.JQ
	}
	return flags.Query
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

// printJSON writes v as JSON to the context output stream, applying any
// active jq query and compact setting.
func printJSON(cmd *cobra.Command, v any) error {
	ctx := cmd.Context()
	streams := iocontext.GetIO(ctx)
	if tmpl := outfmt.GetTemplate(ctx); tmpl != "" {
		filtered, err := outfmt.ApplyQuery(v, outfmt.GetQuery(ctx))
		if err != nil {
			return err
		}
		return outfmt.WriteTemplate(streams.Out, filtered, tmpl)
	}
	if outfmt.IsJSONL(ctx) {
		filtered, err := outfmt.ApplyQuery(v, outfmt.GetQuery(ctx))
		if err != nil {
			return err
		}
		return outfmt.WriteJSONLines(streams.Out, filtered)
	}
	return outfmt.WriteJSONFiltered(streams.Out, v, outfmt.GetQuery(ctx), outfmt.IsCompact(ctx))
}

func printAction(cmd *cobra.Command, action, resource string, id any, name string) {
	if flags.Quiet || isJSON(cmd) {
		return
	}

	streams := iocontext.GetIO(cmd.Context())
	message := fmt.Sprintf("%s %s", action, resource)
	if id != nil {
		if value, ok := id.(string); !ok || value != "" {
			message = fmt.Sprintf("%s %v", message, id)
		}
	}
	if name != "" {
		message = fmt.Sprintf("%s: %s", message, name)
	}
	_, _ = fmt.Fprintln(streams.Out, message)
}

// cmdContext returns the command context
func cmdContext(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

func newTabWriterFromCmd(cmd *cobra.Command) *tabwriter.Writer {
	streams := iocontext.GetIO(cmd.Context())
	return tabwriter.NewWriter(streams.Out, 0, 4, 2, ' ', 0)
}

func maybeDryRun(cmd *cobra.Command, preview *dryrun.Preview) (bool, error) {
	if !dryrun.IsEnabled(cmd.Context()) {
		return false, nil
	}
	if preview == nil {
		preview = &dryrun.Preview{}
	}
	if isJSON(cmd) {
		payload := map[string]any{
			"dry_run":     true,
			"operation":   preview.Operation,
			"resource":    preview.Resource,
			"description": preview.Description,
			"details":     preview.Details,
			"warnings":    preview.Warnings,
		}
		return true, printJSON(cmd, payload)
	}

	streams := iocontext.GetIO(cmd.Context())
	preview.Write(streams.Out)
	return true, nil
}

func anyFlagChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if flagOrAliasChanged(cmd, name) {
			return true
		}
	}
	return false
}

func boolPtrIfChanged(cmd *cobra.Command, flag string, value bool) *bool {
	if flagOrAliasChanged(cmd, flag) {
		return &value
	}
	return nil
}

// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed. This lets aliases satisfy Cobra's
// MarkFlagRequired check transparently.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// flagAlias registers a hidden alias for an existing flag.
// Both flags share the same underlying Value, so setting either one sets both.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	canonical := fs.Lookup(name)
	if canonical == nil {
		return
	}
	aliasFlag := &pflag.Flag{
		Name:        alias,
		Usage:       fmt.Sprintf("Alias for --%s", name),
		Value:       &aliasBridgeValue{Value: canonical.Value, canonical: canonical},
		DefValue:    canonical.DefValue,
		NoOptDefVal: canonical.NoOptDefVal,
		Hidden:      true,
		Annotations: map[string][]string{"alias-for": {name}},
	}
	fs.AddFlag(aliasFlag)
}

// flagOrAliasChanged reports whether the named flag or any of its aliases
// was set on the command line.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	changed := false
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == name {
			changed = true
			return
		}
		if targets, ok := f.Annotations["alias-for"]; ok {
			for _, target := range targets {
				if target == name {
					changed = true
					return
				}
			}
		}
	})
	return changed
}

type confirmOptions struct {
	Prompt              string
	Expected            string
	CancelMessage       string
	Force               bool
	RequireForceForJSON bool
}

func confirmAction(cmd *cobra.Command, opts confirmOptions) (bool, error) {
	if flags.Yes {
		opts.Force = true
	}
	if flags.NoInput && !opts.Force {
		return false, fmt.Errorf("confirmation required but --no-input is set (use --yes to proceed)")
	}
	if opts.RequireForceForJSON && isJSON(cmd) && !opts.Force {
		return false, fmt.Errorf("--yes flag is required when using --output json")
	}
	if opts.Force {
		return true, nil
	}

	streams := iocontext.GetIO(cmd.Context())
	out := streams.Out
	if opts.Prompt != "" {
		_, _ = fmt.Fprint(out, opts.Prompt)
	}

	reader := bufio.NewReader(streams.In)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(out, opts.CancelMessage)
		}
		return false, nil
	}

	response = strings.TrimSpace(strings.ToLower(response))
	expected := strings.TrimSpace(strings.ToLower(opts.Expected))
	if expected == "" {
		expected = "y"
	}
	if response != expected {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(out, opts.CancelMessage)
		}
		return false, nil
	}

	return true, nil
}

// parseIDArg parses a positional resource id, rejecting non-numeric and
// negative values before any request is built.
func parseIDArg(input, resource string) (int, error) {
	input = strings.TrimSpace(input)
	id, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID %q: must be a number", resource, input)
	}
	if id < 0 {
		return 0, fmt.Errorf("invalid %s ID %d: must not be negative", resource, id)
	}
	return id, nil
}

// parseIDList parses a comma-separated list of resource ids.
func parseIDList(input, resource string) ([]int, error) {
	parts := strings.Split(input, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := parseIDArg(part, resource)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no %s IDs provided", resource)
	}
	return ids, nil
}

// parseTimeFlag accepts RFC3339 timestamps, date-only values, and unix
// seconds. Returns nil for the empty string.
func parseTimeFlag(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if unix, err := strconv.ParseInt(value, 10, 64); err == nil {
		t := time.Unix(unix, 0).UTC()
		return &t, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid time %q: use RFC3339, YYYY-MM-DD, or unix seconds", value)
}

// formatTimestamp renders a parsed platform timestamp for table output,
// falling back to the raw wire value when parsing failed.
func formatTimestamp(raw string, t time.Time) string {
	if t.IsZero() {
		return raw
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// loadTemplate returns the template text, reading a file when the value
// starts with "@".
func loadTemplate(value string) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	path := strings.TrimPrefix(value, "@")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %q: %w", path, err)
	}
	return string(data), nil
}
