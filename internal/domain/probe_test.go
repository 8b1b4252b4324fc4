package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"123.456000", 123},
		{"123.456000\n", 123},
		{"0.500000", 0},
		{"3600.000000", 3600},
		{"", 0},
		{"N/A", 0},
		{"nonsense", 0},
		{"-5.0", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseProbeDuration(tt.raw), "raw %q", tt.raw)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "0:45", FormatDuration(45))
	assert.Equal(t, "2:05", FormatDuration(125))
	assert.Equal(t, "1:00:01", FormatDuration(3601))
	assert.Equal(t, "0:00", FormatDuration(-3))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "2.0 MB", FormatSize(2<<20))
	assert.Equal(t, "3.0 GB", FormatSize(3<<30))
}
