package dsp

import (
	"io"

	"stream1090/internal/adsb"
	"stream1090/internal/ring"
)

// MagnitudeReader supplies one chunk of magnitude samples per call.
type MagnitudeReader interface {
	// ReadMagnitude fills out completely, zero-padding on a short read.
	ReadMagnitude(out []float32)
	// EOF reports whether no more data will arrive. It may block until
	// data is available.
	EOF() bool
}

const numBlocksPerChunk = 256

// SampleStream is the consumer loop: it pulls magnitude chunks from a
// reader, upsamples them to the output rate, slices bits with the
// Manchester comparator and feeds every phase of the demodulator core.
type SampleStream struct {
	demod     *adsb.DemodCore
	resampler *Resampler

	numStreams  int
	chunkBlocks int
	inputSize   int
	sampleSize  int

	// one sample of input overlap, half a symbol of output overlap
	inputMag []float32
	samples  []float32
	newBits  []uint32
}

// NewSampleStream wires a demodulator core to a rate pair.
func NewSampleStream(input, output Rate, demod *adsb.DemodCore) *SampleStream {
	numStreams := output.NumStreams()
	resampler := NewResampler(input, output)

	// a chunk is always a whole number of demodulator ticks
	chunkBlocks := numBlocksPerChunk * numStreams / 2
	inputSize := resampler.RatioIn() * chunkBlocks
	sampleSize := resampler.RatioOut() * chunkBlocks

	return &SampleStream{
		demod:       demod,
		resampler:   resampler,
		numStreams:  numStreams,
		chunkBlocks: chunkBlocks,
		inputSize:   inputSize,
		sampleSize:  sampleSize,
		inputMag:    make([]float32, inputSize+1),
		samples:     make([]float32, sampleSize+numStreams/2),
		newBits:     make([]uint32, numStreams),
	}
}

// InputChunkSize returns the number of raw samples consumed per chunk.
func (s *SampleStream) InputChunkSize() int {
	return s.inputSize
}

// Run drains the reader until EOF, pushing every chunk through the
// resampler and the bit slicer into the demodulator.
func (s *SampleStream) Run(r MagnitudeReader) {
	half := s.numStreams / 2
	for !r.EOF() {
		r.ReadMagnitude(s.inputMag[1:])
		s.resampler.Resample(s.inputMag, s.samples[half:], s.chunkBlocks)

		// A data bit at 1 Mbit/s is two half-symbols; comparing a sample
		// against the one half a symbol later recovers it at each of the
		// numStreams sub-sample phases.
		for i := 0; i < s.sampleSize; i += s.numStreams {
			for j := 0; j < s.numStreams; j++ {
				if s.samples[i+j] > s.samples[i+j+half] {
					s.newBits[j] = 1
				} else {
					s.newBits[j] = 0
				}
			}
			s.demod.ShiftInNewBits(s.newBits)
		}
		s.demod.Stats().Iterations.Add(uint64(s.sampleSize / s.numStreams))

		// carry the overlap into the next chunk
		s.inputMag[0] = s.inputMag[s.inputSize]
		copy(s.samples[:half], s.samples[s.sampleSize:])
	}
}

// StreamReader reads raw samples synchronously from a byte stream,
// typically stdin. A short read zero-pads the remainder and latches EOF so
// stale buffer content cannot replay old frames.
type StreamReader struct {
	r    io.Reader
	conv *Converter
	raw  []byte
	eof  bool
	stop func() bool
}

// NewStreamReader creates a reader delivering numSamples magnitudes per
// chunk. stop is polled on every EOF check; nil disables the poll.
func NewStreamReader(r io.Reader, conv *Converter, numSamples int, stop func() bool) *StreamReader {
	return &StreamReader{
		r:    r,
		conv: conv,
		raw:  make([]byte, numSamples*conv.format.BytesPerSample()),
		stop: stop,
	}
}

func (s *StreamReader) ReadMagnitude(out []float32) {
	n, err := io.ReadFull(s.r, s.raw)
	if err != nil {
		for i := n; i < len(s.raw); i++ {
			s.raw[i] = 0
		}
		s.eof = true
	}
	s.conv.Convert(s.raw, out)
}

func (s *StreamReader) EOF() bool {
	if s.stop != nil && s.stop() {
		return true
	}
	return s.eof
}

// RingReader pulls raw sample blocks from the SPSC ring buffer filled by a
// device backend.
type RingReader struct {
	reader *ring.Reader[byte]
	conv   *Converter
	stop   func() bool
}

// NewRingReader creates a reader over buf. The ring block size must equal
// the chunk size in bytes.
func NewRingReader(buf *ring.Buffer[byte], conv *Converter, stop func() bool) *RingReader {
	return &RingReader{
		reader: ring.NewReader(buf),
		conv:   conv,
		stop:   stop,
	}
}

func (r *RingReader) ReadMagnitude(out []float32) {
	r.reader.Process(func(block []byte) {
		r.conv.Convert(block, out)
	})
}

func (r *RingReader) EOF() bool {
	if r.stop != nil && r.stop() {
		return true
	}
	return r.reader.EOF()
}
