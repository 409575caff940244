package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/template"
)

type templateKey struct{}

// WithTemplate adds a Go text/template string to the context.
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, templateKey{}, tmpl)
}

// GetTemplate retrieves the template string from context.
func GetTemplate(ctx context.Context) string {
	if tmpl, ok := ctx.Value(templateKey{}).(string); ok {
		return tmpl
	}
	return ""
}

// templateFuncs are the extra functions available inside --template
// expressions. "json" pretty-prints any sub-value.
var templateFuncs = template.FuncMap{
	"json": func(val any) (string, error) {
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(val); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
}

// WriteTemplate renders v through a Go text/template string. Missing keys
// render as zero values rather than failing, so templates stay usable
// across payloads with optional fields.
func WriteTemplate(w io.Writer, v any, tmpl string) error {
	t, err := template.New("output").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if err := t.Execute(w, v); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}
	return nil
}
