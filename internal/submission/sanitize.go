package submission

import (
	"sort"
	"strings"

	"leadsync_backend/platform/sanitize"
)

// Sanitize returns a cleaned copy of r. Keys containing "email" (any case) get the email
// cleaner, keys containing "url" the URL cleaner, everything else is plain
// text. Nested records apply the rule per child key; list items inherit the
// rule of the key that holds them.
func Sanitize(r *Record) *Record {
	out := NewRecord()
	for _, key := range r.Keys() {
		value, _ := r.Get(key)
		out.Set(key, sanitizeValue(key, value))
	}
	return out
}

func sanitizeValue(key string, v Value) Value {
	switch v.Kind() {
	case KindMap:
		return Map(Sanitize(v.Record()))
	case KindList:
		items := make([]Value, len(v.Items()))
		for i, item := range v.Items() {
			items[i] = sanitizeValue(key, item)
		}
		return List(items...)
	default:
		return Scalar(cleanerFor(key)(v.Str()))
	}
}

func cleanerFor(key string) func(string) string {
	key = strings.ToLower(key)
	switch {
	case strings.Contains(key, "email"):
		return sanitize.Email
	case strings.Contains(key, "url"):
		return sanitize.URL
	default:
		return sanitize.Text
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
