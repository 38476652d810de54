package dsp

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream1090/internal/adsb"
)

type frameRecorder struct {
	longs  []adsb.Bits128
	shorts []uint64
}

func (r *frameRecorder) WriteLong(_ uint64, frame adsb.Bits128) {
	r.longs = append(r.longs, frame)
}

func (r *frameRecorder) WriteShort(_ uint64, frame adsb.Bits128) {
	r.shorts = append(r.shorts, frame.Lo)
}

// buildDF17Frame assembles a clean extended squitter for the slicer tests.
func buildDF17Frame(icao uint32, payload uint64) adsb.Bits128 {
	data := adsb.Bits128{
		Hi: 17<<43 | 5<<40 | uint64(icao)<<16 | payload>>40,
		Lo: (payload & 0xFFFFFFFFFF) << 24,
	}
	data.Lo |= uint64(adsb.Checksum(data, 112))
	return data
}

// encodeManchester turns message bits into half-symbol magnitude pairs at
// 2 MHz: a 1 is high-then-low, a 0 low-then-high.
func encodeManchester(frame adsb.Bits128, numBits int) []float32 {
	var samples []float32
	for i := numBits - 1; i >= 0; i-- {
		if frame.Get(uint(i)) {
			samples = append(samples, 0.8, 0.2)
		} else {
			samples = append(samples, 0.2, 0.8)
		}
	}
	return samples
}

func TestSampleStreamRecoversCleanDF17(t *testing.T) {
	rec := &frameRecorder{}
	demod := adsb.NewDemodCore(Rate2_0.NumStreams(), rec)
	stream := NewSampleStream(Rate2_0, Rate2_0, demod)

	frame := buildDF17Frame(0x123456, 0x58B986D0B2A0)
	require.Equal(t, uint32(0), adsb.Checksum(frame, 112))

	samples := make([]float32, 16) // quiet lead-in
	samples = append(samples, encodeManchester(frame, 112)...)

	raw := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}

	conv := NewConverter(FormatF32, nil)
	reader := NewStreamReader(bytes.NewReader(raw), conv, stream.InputChunkSize(), nil)
	stream.Run(reader)

	require.Len(t, rec.longs, 1)
	assert.True(t, rec.longs[0].Equal(frame))
	assert.Equal(t, uint64(1), demod.Stats().Snapshot().Sent[17])
}

func TestSampleStreamCountsIterations(t *testing.T) {
	rec := &frameRecorder{}
	demod := adsb.NewDemodCore(2, rec)
	stream := NewSampleStream(Rate2_0, Rate2_0, demod)

	raw := make([]byte, 4*stream.InputChunkSize())
	conv := NewConverter(FormatF32, nil)
	reader := NewStreamReader(bytes.NewReader(raw), conv, stream.InputChunkSize(), nil)
	stream.Run(reader)

	// the exact-size input is processed as one full chunk plus one fully
	// padded chunk; each chunk is half as many ticks as output samples
	assert.Equal(t, uint64(stream.InputChunkSize()), demod.Stats().Snapshot().Iterations)
}

func TestStreamReaderZeroPadsShortRead(t *testing.T) {
	conv := NewConverter(FormatF32, nil)
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[0:], math.Float32bits(1.0))
	binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(2.0))

	reader := NewStreamReader(bytes.NewReader(raw), conv, 4, nil)
	out := make([]float32, 4)

	require.False(t, reader.EOF())
	reader.ReadMagnitude(out)
	assert.Equal(t, []float32{1, 2, 0, 0}, out)
	assert.True(t, reader.EOF())
}

func TestStreamReaderStopPoll(t *testing.T) {
	conv := NewConverter(FormatF32, nil)
	stopped := false
	reader := NewStreamReader(bytes.NewReader(make([]byte, 1024)), conv, 4, func() bool { return stopped })

	assert.False(t, reader.EOF())
	stopped = true
	assert.True(t, reader.EOF())
}
