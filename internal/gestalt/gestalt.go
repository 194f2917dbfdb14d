package gestalt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Value is one stored record: an opaque structured document keyed by field.
type Value = map[string]any

// Provider is the narrow persistence interface the core consumes.
// Paths are hierarchical strings, e.g. /bots/frank/clients/discord/guilds.
// Get returns (nil, nil) when nothing is stored at the path.
type Provider interface {
	Get(ctx context.Context, path string) (Value, error)
	Post(ctx context.Context, path string, payload Value) (Value, error)
	Update(ctx context.Context, path string, payload Value) (Value, error)
	Delete(ctx context.Context, path string) error
	// Sync fetches-or-initializes: when the path already holds data the
	// defaults are merged underneath it (stored data wins); otherwise the
	// defaults are written and returned as-is.
	Sync(ctx context.Context, defaults Value, path string) (Value, error)
}

// splitPath breaks a hierarchical path into its segments
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// getNode walks the tree; returns (nil, false) when any segment is missing
func getNode(root map[string]any, parts []string) (any, bool) {
	var node any = root
	for _, part := range parts {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// setNode writes a value at the path, creating intermediate maps.
// An intermediate scalar is replaced by a map.
func setNode(root map[string]any, parts []string, value any) {
	node := root
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
}

// deleteNode removes the value at the path if present
func deleteNode(root map[string]any, parts []string) {
	node := root
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			return
		}
		node = next
	}
	delete(node, parts[len(parts)-1])
}

// merge deep-merges src into dst (src wins on conflicts) and returns dst.
// Nested maps merge recursively; everything else overwrites.
func merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for k, sv := range src {
		if sm, ok := sv.(map[string]any); ok {
			dm, _ := dst[k].(map[string]any)
			dst[k] = merge(dm, sm)
			continue
		}
		dst[k] = sv
	}
	return dst
}

// copyValue returns an independent deep copy of a value
func copyValue(v Value) Value {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Value{}
	}
	var out Value
	if err := json.Unmarshal(data, &out); err != nil {
		return Value{}
	}
	return out
}

// Decode maps a stored value onto a struct via its json tags
func Decode(v Value, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	return nil
}

// String returns the string field at key, or "" when absent or non-string
func String(v Value, key string) string {
	if v == nil {
		return ""
	}
	s, _ := v[key].(string)
	return s
}

// Bool returns the bool field at key and whether it was present
func Bool(v Value, key string) (bool, bool) {
	if v == nil {
		return false, false
	}
	b, ok := v[key].(bool)
	return b, ok
}

// Int returns the numeric field at key and whether it was present.
// JSON decoding yields float64, YAML yields int; both are accepted.
func Int(v Value, key string) (int, bool) {
	if v == nil {
		return 0, false
	}
	switch n := v[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Strings returns the string-list field at key (missing or mistyped = nil)
func Strings(v Value, key string) []string {
	if v == nil {
		return nil
	}
	switch list := v[key].(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
