package api

import (
	"encoding/json"
	"regexp"
)

var secretKeyPattern = regexp.MustCompile(`(?i)password|token|key|secret`)

// redact replaces values of secret-looking keys so debug logging never leaks
// credentials. Non-JSON input is replaced wholesale.
func redact(raw []byte) json.RawMessage {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return json.RawMessage(`"[unparseable]"`)
	}

	out, err := json.Marshal(redactValue(v))
	if err != nil {
		return json.RawMessage(`"[unparseable]"`)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if secretKeyPattern.MatchString(k) {
				t[k] = "[redacted]"
				continue
			}
			t[k] = redactValue(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = redactValue(val)
		}
		return t
	default:
		return v
	}
}
