package dsp

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

const (
	firNumTaps  = 31
	maxFileTaps = 64

	// cutoff used when synthesizing taps for rates without a tuned set
	firCutoffHz = 1.2e6
)

// Taps tuned for the 6 MHz airspy path.
var lowPassTaps6M = []float32{
	0.04691808, -0.02944228, 0.02481813, 0.00687245, -0.03778376, -0.05536104,
	-0.03637546, -0.06929483, 0.04111258, -0.0142561, -0.05956734, -0.00396889,
	-0.04647978, -0.06260861, 0.38121662, 0.8284003, 0.38121662, -0.06260861,
	-0.04647978, -0.00396889, -0.05956734, -0.0142561, 0.04111258, -0.06929483,
	-0.03637546, -0.05536104, -0.03778376, 0.00687245, 0.02481813, -0.02944228,
	0.04691808,
}

// Taps tuned for the 10 MHz airspy path.
var lowPassTaps10M = []float32{
	0.00055077, -0.01847956, 0.00234699, -0.01789507, 0.00318175, 0.05594195,
	0.01237755, -0.06771679, 0.05199363, -0.02546499, 0.16795284, -0.07870515,
	-0.16818146, 0.2712337, 0.2018848, 0.21795812, 0.2018848, 0.2712337,
	-0.16818146, -0.07870515, 0.16795284, -0.02546499, 0.05199363, -0.06771679,
	0.01237755, 0.05594195, 0.00318175, -0.01789507, 0.00234699, -0.01847956,
	0.00055077,
}

// BuiltinTaps returns the FIR taps for an input rate: the tuned sets where
// one exists, otherwise a Hamming-windowed sinc design at the same length.
func BuiltinTaps(input Rate) []float32 {
	switch input {
	case Rate6_0:
		return lowPassTaps6M
	case Rate10_0:
		return lowPassTaps10M
	default:
		return synthesizeTaps(input, firNumTaps)
	}
}

// synthesizeTaps designs a low-pass windowed-sinc filter for the given
// sample rate.
func synthesizeTaps(input Rate, numTaps int) []float32 {
	fc := firCutoffHz / float64(input)
	mid := float64(numTaps-1) / 2

	taps := make([]float64, numTaps)
	for n := range taps {
		x := float64(n) - mid
		if x == 0 {
			taps[n] = 2 * fc
		} else {
			taps[n] = math.Sin(2*math.Pi*fc*x) / (math.Pi * x)
		}
	}
	window.Hamming(taps)

	var sum float64
	for _, t := range taps {
		sum += t
	}

	out := make([]float32, numTaps)
	for n, t := range taps {
		out[n] = float32(t / sum)
	}
	return out
}

// LoadTaps reads FIR taps from a file, one float per line. Blank lines and
// lines starting with # are skipped; at most 64 taps are accepted.
func LoadTaps(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taps file: %w", err)
	}
	defer f.Close()

	var taps []float32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := strconv.ParseFloat(line, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed tap %q: %w", line, err)
		}
		taps = append(taps, float32(v))
		if len(taps) > maxFileTaps {
			return nil, fmt.Errorf("too many taps in %s (max %d)", path, maxFileTaps)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read taps file: %w", err)
	}
	if len(taps) == 0 {
		return nil, fmt.Errorf("no taps in %s", path)
	}
	return taps, nil
}
