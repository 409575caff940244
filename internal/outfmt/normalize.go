package outfmt

import (
	"encoding/json"
	"reflect"
)

// normalizeJSONOutput wraps list payloads as {"items": [...]} so jq
// queries and JSONL emission see one stable shape for every list command.
// Non-list values pass through untouched.
func normalizeJSONOutput(v any) any {
	if v == nil {
		return v
	}
	switch v.(type) {
	case []byte, json.RawMessage:
		return v
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		// Raw byte payloads are not item lists.
		return v
	}

	// A nil slice would serialize as "items": null and break .items[]
	// queries, so it becomes an empty list.
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return map[string]any{"items": []any{}}
	}
	return map[string]any{"items": rv.Interface()}
}
