package nutshell

import (
	"encoding/json"
	"strings"
)

const redacted = "[REDACTED]"

var sensitiveKeys = []string{"password", "token", "api_key", "secret", "email", "phone", "address"}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// Redact replaces the value of every sensitive key, at any depth.
func Redact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if isSensitiveKey(k) {
				out[k] = redacted
				continue
			}
			out[k] = Redact(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = Redact(val)
		}
		return out
	default:
		return v
	}
}

// redactJSON renders a JSON body for logging with sensitive values masked.
// Bodies that are not JSON are not logged verbatim.
func redactJSON(raw []byte) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "[non-JSON body]"
	}
	out, err := json.Marshal(Redact(v))
	if err != nil {
		return "[unencodable body]"
	}
	return string(out)
}
