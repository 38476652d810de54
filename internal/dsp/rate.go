// Package dsp contains the front-end signal path: raw sample conversion,
// the optional IQ pipeline, the polyphase upsampler and the bit slicer
// feeding the demodulator core.
package dsp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rate is a sample rate in Hz.
type Rate int

const (
	Rate1_0  Rate = 1000000
	Rate2_0  Rate = 2000000
	Rate2_4  Rate = 2400000
	Rate2_56 Rate = 2560000
	Rate3_0  Rate = 3000000
	Rate3_2  Rate = 3200000
	Rate4_0  Rate = 4000000
	Rate6_0  Rate = 6000000
	Rate8_0  Rate = 8000000
	Rate10_0 Rate = 10000000
	Rate12_0 Rate = 12000000
	Rate16_0 Rate = 16000000
	Rate20_0 Rate = 20000000
	Rate24_0 Rate = 24000000
	Rate40_0 Rate = 40000000
	Rate48_0 Rate = 48000000
)

// inputRates lists every sample rate a capture source may deliver.
var inputRates = []Rate{
	Rate2_0, Rate2_4, Rate2_56, Rate3_0, Rate3_2, Rate4_0, Rate6_0, Rate8_0,
	Rate10_0, Rate12_0, Rate16_0, Rate20_0, Rate24_0, Rate40_0, Rate48_0,
}

// ParseRate parses a rate given in MHz, with an optional trailing M.
func ParseRate(s string) (Rate, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(s, "M"), "m")
	mhz, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sample rate %q", s)
	}
	hz := Rate(math.Round(mhz * 1e6))
	for _, r := range inputRates {
		if r == hz {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unsupported sample rate %q", s)
}

// MHz returns the rate in MHz.
func (r Rate) MHz() float64 {
	return float64(r) / 1e6
}

func (r Rate) String() string {
	return strconv.FormatFloat(r.MHz(), 'g', -1, 64) + " MHz"
}

// NumStreams returns the number of 1 MHz demodulator phases an output rate
// carries.
func (r Rate) NumStreams() int {
	return int(r) / int(Rate1_0)
}
