package filter

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestApply_EmptyExpression(t *testing.T) {
	data := map[string]interface{}{"a": 1}
	result, err := Apply(data, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result, data) {
		t.Fatalf("expected input returned unchanged, got %v", result)
	}
}

func TestApply_FieldAccess(t *testing.T) {
	data := map[string]interface{}{
		"provider": "whatsapp",
		"id":       float64(42),
	}
	result, err := Apply(data, ".provider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "whatsapp" {
		t.Fatalf("expected %q, got %v", "whatsapp", result)
	}
}

func TestApply_ArrayIteration(t *testing.T) {
	data := []interface{}{
		map[string]interface{}{"id": float64(1)},
		map[string]interface{}{"id": float64(2)},
	}
	result, err := Apply(data, ".[].id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids, ok := result.([]interface{})
	if !ok {
		t.Fatalf("expected slice result, got %T", result)
	}
	if len(ids) != 2 || ids[0] != float64(1) || ids[1] != float64(2) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestApply_SingleResultCollapsed(t *testing.T) {
	data := []interface{}{
		map[string]interface{}{"id": float64(7)},
	}
	result, err := Apply(data, ".[0].id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != float64(7) {
		t.Fatalf("expected 7, got %v", result)
	}
}

func TestApply_ItemsFallback(t *testing.T) {
	// Wrapped list output should still accept root array queries.
	data := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": float64(1), "provider": "whatsapp"},
			map[string]interface{}{"id": float64(2), "provider": "telegram"},
		},
	}
	result, err := Apply(data, ".[].provider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	providers, ok := result.([]interface{})
	if !ok {
		t.Fatalf("expected slice result, got %T", result)
	}
	if len(providers) != 2 || providers[0] != "whatsapp" {
		t.Fatalf("unexpected providers: %v", providers)
	}
}

func TestApply_SelectFilter(t *testing.T) {
	data := []interface{}{
		map[string]interface{}{"id": float64(1), "state": "enabled"},
		map[string]interface{}{"id": float64(2), "state": "disabled"},
	}
	result, err := Apply(data, `.[] | select(.state == "enabled") | .id`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != float64(1) {
		t.Fatalf("expected 1, got %v", result)
	}
}

func TestApply_InvalidExpression(t *testing.T) {
	_, err := Apply(map[string]interface{}{}, ".[invalid")
	if err == nil {
		t.Fatal("expected error for invalid expression")
	}
	if !strings.Contains(err.Error(), "invalid filter expression") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeExpression(t *testing.T) {
	got := NormalizeExpression(`.state \!= "enabled"`)
	want := `.state != "enabled"`
	if got != want {
		t.Fatalf("NormalizeExpression = %q, want %q", got, want)
	}
}

func TestApplyToJSON(t *testing.T) {
	input := []byte(`{"provider":"whatsapp","id":42}`)
	out, err := ApplyToJSON(input, ".provider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(out)) != `"whatsapp"` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestApplyToJSON_EmptyExpressionPassthrough(t *testing.T) {
	input := []byte(`{"a":1}`)
	out, err := ApplyToJSON(input, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != string(input) {
		t.Fatalf("expected passthrough, got %s", out)
	}
}

func TestApplyToJSON_InvalidJSON(t *testing.T) {
	if _, err := ApplyToJSON([]byte("not json"), ".a"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestApplyFromJSON(t *testing.T) {
	input := []byte(`{"items":[{"id":1},{"id":2}]}`)
	result, err := ApplyFromJSON(input, ".items | length")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// gojq returns ints for length
	b, _ := json.Marshal(result)
	if string(b) != "2" {
		t.Fatalf("expected 2, got %s", b)
	}
}
