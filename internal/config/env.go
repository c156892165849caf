package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// EnvBlob resolves the environment-variable sources into the newline-delimited
// KEY=VALUE blob the platform stores per application. The JSON mapping always
// wins over the raw string form; an env-file source was already folded into
// the raw slot at load time. No source at all is a legitimate empty blob.
func (c *Config) EnvBlob() (string, error) {
	if strings.TrimSpace(c.EnvJSON) != "" {
		var vars map[string]string
		if err := json.Unmarshal([]byte(c.EnvJSON), &vars); err != nil {
			return "", fmt.Errorf("failed to parse JSON environment variables: %w", err)
		}

		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+"="+vars[k])
		}
		return strings.Join(lines, "\n"), nil
	}

	return strings.TrimSpace(c.EnvRaw), nil
}
