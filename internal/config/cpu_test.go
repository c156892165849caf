package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPU(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0.25", 0.25},
		{"0.5", 0.5},
		{"1.0", 1.0},
		{"2", 2.0},
		{"500m", 0.5},
		{"1000m", 1.0},
		{"250M", 0.25},
		{" 0.5 ", 0.5},
	}
	for _, tt := range tests {
		got, err := ParseCPU(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		require.NotNil(t, got, "input %q", tt.in)
		assert.InDelta(t, tt.want, *got, 1e-9, "input %q", tt.in)
	}
}

func TestParseCPU_Absent(t *testing.T) {
	got, err := ParseCPU("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseCPU("   ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseCPU_Invalid(t *testing.T) {
	for _, in := range []string{"abc", "1.5x", "m", "12mm", "half"} {
		_, err := ParseCPU(in)
		require.Error(t, err, "input %q", in)
		assert.Contains(t, err.Error(), in)
	}
}
