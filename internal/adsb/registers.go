package adsb

// ShiftRegisterBank holds one 128-bit shift register per demodulator phase
// together with incrementally maintained CRC accumulators over the low 56
// and 112 bits and the cached downlink format fields at both candidate
// frame starts.
type ShiftRegisterBank struct {
	low  []uint64
	high []uint64

	crc56  []uint32
	crc112 []uint32

	df56  []uint32
	df112 []uint32

	numStreams int
}

// NewShiftRegisterBank creates a bank of numStreams phases.
func NewShiftRegisterBank(numStreams int) *ShiftRegisterBank {
	return &ShiftRegisterBank{
		low:        make([]uint64, numStreams),
		high:       make([]uint64, numStreams),
		crc56:      make([]uint32, numStreams),
		crc112:     make([]uint32, numStreams),
		df56:       make([]uint32, numStreams),
		df112:      make([]uint32, numStreams),
		numStreams: numStreams,
	}
}

// NumStreams returns the number of phases in the bank.
func (b *ShiftRegisterBank) NumStreams() int {
	return b.numStreams
}

// ShiftInNewBits shifts one new bit (0 or 1) into every phase. The CRC
// accumulators are updated in place: the contribution of the bit leaving
// the 56/112-bit window is cancelled with the precomputed delta, then the
// new bit is pushed through the reduction step.
func (b *ShiftRegisterBank) ShiftInNewBits(bits []uint32) {
	for i := 0; i < b.numStreams; i++ {
		// bit about to leave the 112-bit window
		if b.high[i]&(1<<47) != 0 {
			b.crc112[i] ^= crcDelta111
		}
		// bit about to leave the 56-bit window
		if b.low[i]&(1<<55) != 0 {
			b.crc56[i] ^= crcDelta55
		}

		b.high[i] = b.high[i]<<1 | b.low[i]>>63
		b.low[i] = b.low[i]<<1 | uint64(bits[i])

		b.crc112[i] = b.crc112[i]<<1 | bits[i]
		b.crc56[i] = b.crc56[i]<<1 | bits[i]

		b.df112[i] = extractDF112(b.high[i])
		b.df56[i] = extractDF56(b.low[i])

		if b.crc112[i]&(1<<24) != 0 {
			b.crc112[i] ^= crcPolynomial
		}
		if b.crc56[i]&(1<<24) != 0 {
			b.crc56[i] ^= crcPolynomial
		}
	}
}

// CRC56 returns the CRC accumulator over the low 56 bits of phase i.
func (b *ShiftRegisterBank) CRC56(i int) uint32 { return b.crc56[i] }

// CRC112 returns the CRC accumulator over the low 112 bits of phase i.
func (b *ShiftRegisterBank) CRC112(i int) uint32 { return b.crc112[i] }

// DF56 returns the cached downlink format at the short frame start of phase i.
func (b *ShiftRegisterBank) DF56(i int) uint32 { return b.df56[i] }

// DF112 returns the cached downlink format at the long frame start of phase i.
func (b *ShiftRegisterBank) DF112(i int) uint32 { return b.df112[i] }

// Window returns the raw 128-bit window of phase i.
func (b *ShiftRegisterBank) Window(i int) (hi, lo uint64) {
	return b.high[i], b.low[i]
}

// FrameLong returns the 112-bit frame of phase i with the upper bits masked.
func (b *ShiftRegisterBank) FrameLong(i int) Bits128 {
	return Bits128{Hi: b.high[i] & longFrameMask, Lo: b.low[i]}
}

// FrameShort returns the 56-bit frame of phase i.
func (b *ShiftRegisterBank) FrameShort(i int) uint64 {
	return b.low[i] & shortFrameMask
}
