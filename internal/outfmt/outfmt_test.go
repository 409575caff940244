package outfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", Text, false},
		{"text", Text, false},
		{"json", JSON, false},
		{"jsonl", JSONL, false},
		{"ndjson", JSONL, false},
		{"yaml", Text, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestModeRoundTrip(t *testing.T) {
	ctx := context.Background()
	if ModeFromContext(ctx) != Text {
		t.Error("default mode should be Text")
	}

	ctx = WithMode(ctx, JSON)
	if ModeFromContext(ctx) != JSON {
		t.Error("expected JSON mode from context")
	}
	if !IsJSON(ctx) {
		t.Error("IsJSON should be true for JSON mode")
	}
	if IsJSONL(ctx) {
		t.Error("IsJSONL should be false for JSON mode")
	}

	ctx = WithMode(ctx, JSONL)
	if !IsJSON(ctx) || !IsJSONL(ctx) {
		t.Error("JSONL mode should satisfy both IsJSON and IsJSONL")
	}
}

func TestCompactFlag(t *testing.T) {
	ctx := context.Background()
	if IsCompact(ctx) {
		t.Error("compact should default to false")
	}
	if !IsCompact(WithCompact(ctx, true)) {
		t.Error("expected compact true")
	}
}

func TestModeString(t *testing.T) {
	if Text.String() != "text" || JSON.String() != "json" || JSONL.String() != "jsonl" {
		t.Error("unexpected Mode.String values")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"id": 1}); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"id\": 1\n") {
		t.Fatalf("expected indented JSON, got %q", buf.String())
	}
}

func TestWriteJSONMaybeCompact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONMaybeCompact(&buf, map[string]int{"id": 1}, true); err != nil {
		t.Fatalf("WriteJSONMaybeCompact error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"id":1}` {
		t.Fatalf("expected compact JSON, got %q", buf.String())
	}
}

func TestWriteJSONLines_SliceEmitsOneLinePerItem(t *testing.T) {
	var buf bytes.Buffer
	type channel struct {
		ID int `json:"id"`
	}
	if err := WriteJSONLines(&buf, []channel{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("WriteJSONLines error: %v", err)
	}
	if buf.String() != "{\"id\":1}\n{\"id\":2}\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestWriteJSONLines_ScalarEmitsSingleLine(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONLines(&buf, map[string]int{"id": 7}); err != nil {
		t.Fatalf("WriteJSONLines error: %v", err)
	}
	if buf.String() != "{\"id\":7}\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestWriteJSONFiltered(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"provider": "whatsapp", "id": 42}
	if err := WriteJSONFiltered(&buf, data, ".provider", true); err != nil {
		t.Fatalf("WriteJSONFiltered error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `"whatsapp"` {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestWriteJSONFiltered_SliceWrappedAsItems(t *testing.T) {
	var buf bytes.Buffer
	type channel struct {
		ID int `json:"id"`
	}
	if err := WriteJSONFiltered(&buf, []channel{{ID: 1}, {ID: 2}}, "", true); err != nil {
		t.Fatalf("WriteJSONFiltered error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"items":[{"id":1},{"id":2}]}` {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestWriteJSONFiltered_NilSliceBecomesEmptyItems(t *testing.T) {
	var buf bytes.Buffer
	var channels []string
	if err := WriteJSONFiltered(&buf, channels, "", true); err != nil {
		t.Fatalf("WriteJSONFiltered error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"items":[]}` {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestQueryContext(t *testing.T) {
	ctx := context.Background()
	if GetQuery(ctx) != "" {
		t.Error("default query should be empty")
	}
	ctx = WithQuery(ctx, ".items[].id")
	if GetQuery(ctx) != ".items[].id" {
		t.Errorf("GetQuery = %q", GetQuery(ctx))
	}
}

func TestApplyQuery(t *testing.T) {
	result, err := ApplyQuery(map[string]any{"id": 5}, ".id")
	if err != nil {
		t.Fatalf("ApplyQuery error: %v", err)
	}
	if result != float64(5) {
		t.Fatalf("expected 5, got %v", result)
	}
}
