package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT0S", 0},
		{"PT1S", time.Second},
		{"PT14M", 14 * time.Minute},
		{"PT1M30S", 90 * time.Second},
		{"PT2H", 2 * time.Hour},
		{"PT1H30M15S", time.Hour + 30*time.Minute + 15*time.Second},
		{"P1D", 24 * time.Hour},
		{"P2DT3H", 51 * time.Hour},
		{"P1W", 7 * 24 * time.Hour},
		{"P1W2DT4H5M6S", 9*24*time.Hour + 4*time.Hour + 5*time.Minute + 6*time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDurationInvalid(t *testing.T) {
	invalid := []string{
		"",
		"P",
		"PT",
		"1H",
		"T1H",
		"PT1X",
		"PTS",
		"PT1S2M", // out of order
		"P1D2W",  // out of order
		"14M",
		"pt1m",
	}

	for _, in := range invalid {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDuration(in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Only ISO 8601 duration format")
		})
	}
}

func TestParseDurationYearMonthUnsupported(t *testing.T) {
	for _, in := range []string{"P1Y", "P1M", "P1YT1H", "P2Y3MT4H"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDuration(in)
			require.Error(t, err)
			var derr *InvalidDurationError
			require.ErrorAs(t, err, &derr)
			assert.Contains(t, err.Error(), "Only ISO 8601 duration format")
			assert.Contains(t, err.Error(), "year and month")
		})
	}
}

func TestFormatDurationRoundTrip(t *testing.T) {
	// parse then re-render preserves magnitude
	for _, in := range []string{"PT0S", "PT1S", "PT14M", "PT1M30S", "P2DT3H", "P1D", "PT1H30M15S"} {
		d, err := ParseDuration(in)
		require.NoError(t, err)

		back, err := ParseDuration(FormatDuration(d))
		require.NoError(t, err)
		assert.Equal(t, d, back, "round-trip of %s", in)
	}
}

func TestFormatDurationZero(t *testing.T) {
	assert.Equal(t, "PT0S", FormatDuration(0))
}
