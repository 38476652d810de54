package dsp

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Stage transforms one I/Q pair. Stages run in order on every sample
// before the magnitude is taken.
type Stage interface {
	Apply(i, q float32) (float32, float32)
	String() string
}

// DCRemoval subtracts a single-pole running average from both rails.
type DCRemoval struct {
	alpha float32
	avgI  float32
	avgQ  float32
}

// NewDCRemoval creates a DC blocker with the given smoothing factor.
func NewDCRemoval(alpha float32) *DCRemoval {
	return &DCRemoval{alpha: alpha}
}

func (s *DCRemoval) Apply(i, q float32) (float32, float32) {
	di := i - s.avgI
	dq := q - s.avgQ
	s.avgI += di * s.alpha
	s.avgQ += dq * s.alpha
	return di, dq
}

func (s *DCRemoval) String() string {
	return fmt.Sprintf("[DCRemoval] alpha: %g", s.alpha)
}

// FlipSigns negates every second sample, shifting the spectrum by half the
// sample rate.
type FlipSigns struct {
	flip bool
}

// NewFlipSigns creates the sign flipper.
func NewFlipSigns() *FlipSigns {
	return &FlipSigns{}
}

func (s *FlipSigns) Apply(i, q float32) (float32, float32) {
	if s.flip {
		i, q = -i, -q
	}
	s.flip = !s.flip
	return i, q
}

func (s *FlipSigns) String() string {
	return "[FlipSigns] enabled"
}

// IQLowPass runs the same FIR filter over both rails with a circular
// history per rail.
type IQLowPass struct {
	taps  []float32
	histI []float32
	histQ []float32
	pos   int
}

// NewIQLowPass creates a FIR stage with the given taps.
func NewIQLowPass(taps []float32) *IQLowPass {
	return &IQLowPass{
		taps:  taps,
		histI: make([]float32, len(taps)),
		histQ: make([]float32, len(taps)),
	}
}

func (s *IQLowPass) Apply(i, q float32) (float32, float32) {
	s.histI[s.pos] = i
	s.histQ[s.pos] = q
	s.pos++
	if s.pos == len(s.taps) {
		s.pos = 0
	}

	var accI, accQ float32
	k := s.pos
	for _, t := range s.taps {
		accI += t * s.histI[k]
		accQ += t * s.histQ[k]
		k++
		if k == len(s.taps) {
			k = 0
		}
	}
	return accI, accQ
}

func (s *IQLowPass) String() string {
	return fmt.Sprintf("[IQLowPass] %d taps", len(s.taps))
}

// Pipeline chains IQ stages and reduces each pair to its magnitude.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline from the given stages; an empty pipeline
// is the plain magnitude computation.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Empty reports whether the pipeline has no stages.
func (p *Pipeline) Empty() bool {
	return len(p.stages) == 0
}

// Process runs one I/Q pair through the stages and returns its magnitude.
func (p *Pipeline) Process(i, q float32) float32 {
	for _, s := range p.stages {
		i, q = s.Apply(i, q)
	}
	return float32(math.Sqrt(float64(i*i + q*q)))
}

func (p *Pipeline) String() string {
	if len(p.stages) == 0 {
		return "[Pipeline] passthrough"
	}
	out := ""
	for i, s := range p.stages {
		if i > 0 {
			out += "\n"
		}
		out += s.String()
	}
	return out
}

// u8MagnitudeLUT maps a packed uint8 I/Q pair to its magnitude with the
// samples centred on 127.5 and scaled to [-1,1].
var u8MagnitudeLUT []float32

func buildU8MagnitudeLUT() []float32 {
	lut := make([]float32, 65536)
	for i := 0; i < 256; i++ {
		for q := 0; q < 256; q++ {
			fi := (float64(i) - 127.5) / 127.5
			fq := (float64(q) - 127.5) / 127.5
			lut[i<<8|q] = float32(math.Sqrt(fi*fi + fq*fq))
		}
	}
	return lut
}

// Converter turns raw capture bytes into magnitude samples, running the IQ
// pipeline when one is configured. The uint8 format takes a table lookup
// when no pipeline stages are active.
type Converter struct {
	format   RawFormat
	pipeline *Pipeline
}

// NewConverter creates a converter for the given raw format.
func NewConverter(format RawFormat, pipeline *Pipeline) *Converter {
	if pipeline == nil {
		pipeline = NewPipeline()
	}
	if format == FormatU8IQ && pipeline.Empty() && u8MagnitudeLUT == nil {
		u8MagnitudeLUT = buildU8MagnitudeLUT()
	}
	return &Converter{format: format, pipeline: pipeline}
}

// Convert fills out with one magnitude per raw sample. len(raw) must be
// len(out) * BytesPerSample of the format.
func (c *Converter) Convert(raw []byte, out []float32) {
	switch c.format {
	case FormatU8IQ:
		if c.pipeline.Empty() {
			for n := range out {
				out[n] = u8MagnitudeLUT[int(raw[2*n])<<8|int(raw[2*n+1])]
			}
			return
		}
		for n := range out {
			i := (float32(raw[2*n]) - 127.5) / 127.5
			q := (float32(raw[2*n+1]) - 127.5) / 127.5
			out[n] = c.pipeline.Process(i, q)
		}

	case FormatU16IQ:
		// airspy delivers 12 significant bits per rail
		for n := range out {
			rawI := int16(binary.LittleEndian.Uint16(raw[4*n:]))
			rawQ := int16(binary.LittleEndian.Uint16(raw[4*n+2:]))
			i := float32(rawI) / 2048.0
			q := float32(rawQ) / 2048.0
			out[n] = c.pipeline.Process(i, q)
		}

	case FormatF32:
		// precomputed magnitudes, no pipeline
		for n := range out {
			out[n] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*n:]))
		}
	}
}
