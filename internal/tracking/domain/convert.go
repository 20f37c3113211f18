package domain

import "time"

// Helpers for decoding raw document fields. Documents written by older
// clients miss fields or hold them at the wrong width (Firestore returns
// every integer as int64), so all lookups degrade to zero values.

func str(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func num(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func boolean(fields map[string]any, key string) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return false
}

func strSlice(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func mapSlice(fields map[string]any, key string) []map[string]any {
	v, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(v))
	for _, e := range v {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// when parses a document date that may be a native timestamp or an ISO-8601
// string, which is how the web client writes audit stamps.
func when(fields map[string]any, key string) time.Time {
	switch v := fields[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05.999999", v); err == nil {
			return t.UTC()
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}
