// Package dryrun implements the --dry-run preview for mutating commands.
// Commands build a Preview instead of calling the API, so users can see
// exactly what would be sent. Secrets never go into Details.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"sort"
)

type dryRunKey struct{}

// WithDryRun marks the context with the dry-run setting.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey{}, enabled)
}

// IsEnabled reports whether dry-run mode is on for this context.
func IsEnabled(ctx context.Context) bool {
	enabled, ok := ctx.Value(dryRunKey{}).(bool)
	return ok && enabled
}

// Preview describes a mutation that was skipped in dry-run mode.
type Preview struct {
	Operation   string
	Resource    string
	Description string
	Details     map[string]interface{}
	Warnings    []string
}

const previewDivider = "───────────────────────────────────────"

// Write renders the preview for text output. Details print in key order
// so repeated runs produce identical output.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would %s %s\n", p.Operation, p.Resource)
	_, _ = fmt.Fprintln(w, previewDivider)

	if p.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", p.Description)
	}

	if len(p.Details) > 0 {
		keys := make([]string, 0, len(p.Details))
		for k := range p.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", k, p.Details[k])
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintln(w, previewDivider)
	_, _ = fmt.Fprintln(w, "No changes made (dry-run mode)")
}
