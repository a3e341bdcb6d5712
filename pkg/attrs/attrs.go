// Package attrs reads values back out of slog-style key/value lists so one
// attribute slice can feed both a log line and an audit event.
package attrs

import "fmt"

// ExtractString returns the value paired with key in a flat
// [key1, value1, key2, value2, ...] list. When a key repeats the last pair
// wins, matching how the list was built up. Strings and fmt.Stringer values
// are returned as text; anything else yields "".
func ExtractString(kv []any, key string) string {
	for i := len(kv) - len(kv)%2 - 2; i >= 0; i -= 2 {
		k, ok := kv[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := kv[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		default:
			return ""
		}
	}
	return ""
}
