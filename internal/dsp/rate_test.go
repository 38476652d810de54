package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Rate
	}{
		{"2.4", Rate2_4},
		{"2.56", Rate2_56},
		{"8", Rate8_0},
		{"8M", Rate8_0},
		{"12m", Rate12_0},
		{"48", Rate48_0},
	} {
		got, err := ParseRate(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRateRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "abc", "5", "2.41", "96"} {
		_, err := ParseRate(in)
		assert.Error(t, err, in)
	}
}

func TestNumStreams(t *testing.T) {
	assert.Equal(t, 8, Rate8_0.NumStreams())
	assert.Equal(t, 24, Rate24_0.NumStreams())
}

func TestDefaultOutputRate(t *testing.T) {
	out, ok := DefaultOutputRate(Rate2_4)
	require.True(t, ok)
	assert.Equal(t, Rate8_0, out)

	out, ok = DefaultOutputRate(Rate6_0)
	require.True(t, ok)
	assert.Equal(t, Rate12_0, out)
}

func TestValidatePair(t *testing.T) {
	assert.NoError(t, ValidatePair(Rate2_4, Rate8_0))
	assert.NoError(t, ValidatePair(Rate6_0, Rate6_0))
	assert.NoError(t, ValidatePair(Rate10_0, Rate24_0))

	// output below input
	assert.Error(t, ValidatePair(Rate8_0, Rate6_0))
	// output not a multiple of 2 MHz
	assert.Error(t, ValidatePair(Rate2_4, Rate3_0))
}

func TestFormatForRate(t *testing.T) {
	assert.Equal(t, FormatU8IQ, FormatForRate(Rate2_4))
	assert.Equal(t, FormatU16IQ, FormatForRate(Rate6_0))
	assert.Equal(t, FormatU16IQ, FormatForRate(Rate10_0))
}
