package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCPU parses a CPU amount in cores. Accepts a plain decimal ("0.5", "2")
// or the milli shorthand ("500m" → 0.5). Empty input means "no value" and
// returns nil rather than zero, so absent limits stay absent downstream.
func ParseCPU(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if strings.HasSuffix(s, "m") || strings.HasSuffix(s, "M") {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid CPU value %q: milli form must be an integer followed by 'm'", s)
		}
		v := float64(n) / 1000
		return &v, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CPU value %q: expected cores (e.g. \"0.5\") or milli form (e.g. \"500m\")", s)
	}
	return &v, nil
}
