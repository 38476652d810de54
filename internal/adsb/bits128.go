package adsb

// Bits128 is a 128-bit register built from two 64-bit halves. Mode S frames
// live in the low bits: a long message occupies bits 0-111, a short message
// bits 0-55, both MSB-first (the first transmitted bit is the highest one).
type Bits128 struct {
	Hi uint64
	Lo uint64
}

// ShiftLeft shifts the register left by k bits. Bits shifted past position
// 127 are discarded.
func (b Bits128) ShiftLeft(k uint) Bits128 {
	switch {
	case k >= 128:
		return Bits128{}
	case k >= 64:
		return Bits128{Hi: b.Lo << (k - 64)}
	case k == 0:
		return b
	default:
		return Bits128{
			Hi: b.Hi<<k | b.Lo>>(64-k),
			Lo: b.Lo << k,
		}
	}
}

// ShiftRight shifts the register right by k bits.
func (b Bits128) ShiftRight(k uint) Bits128 {
	switch {
	case k >= 128:
		return Bits128{}
	case k >= 64:
		return Bits128{Lo: b.Hi >> (k - 64)}
	case k == 0:
		return b
	default:
		return Bits128{
			Hi: b.Hi >> k,
			Lo: b.Lo>>k | b.Hi<<(64-k),
		}
	}
}

// Bit returns bit i as 0 or 1.
func (b Bits128) Bit(i uint) uint32 {
	if i >= 64 {
		return uint32(b.Hi>>(i-64)) & 1
	}
	return uint32(b.Lo>>i) & 1
}

// Get reports whether bit i is set.
func (b Bits128) Get(i uint) bool {
	return b.Bit(i) != 0
}

// Set returns a copy of b with bit i set to v.
func (b Bits128) Set(i uint, v bool) Bits128 {
	if i >= 64 {
		mask := uint64(1) << (i - 64)
		if v {
			b.Hi |= mask
		} else {
			b.Hi &^= mask
		}
		return b
	}
	mask := uint64(1) << i
	if v {
		b.Lo |= mask
	} else {
		b.Lo &^= mask
	}
	return b
}

// Flip returns a copy of b with bit i inverted.
func (b Bits128) Flip(i uint) Bits128 {
	if i >= 64 {
		b.Hi ^= uint64(1) << (i - 64)
		return b
	}
	b.Lo ^= uint64(1) << i
	return b
}

// Xor returns the bitwise XOR of b and other.
func (b Bits128) Xor(other Bits128) Bits128 {
	return Bits128{Hi: b.Hi ^ other.Hi, Lo: b.Lo ^ other.Lo}
}

// And returns the bitwise AND of b and other.
func (b Bits128) And(other Bits128) Bits128 {
	return Bits128{Hi: b.Hi & other.Hi, Lo: b.Lo & other.Lo}
}

// Or returns the bitwise OR of b and other.
func (b Bits128) Or(other Bits128) Bits128 {
	return Bits128{Hi: b.Hi | other.Hi, Lo: b.Lo | other.Lo}
}

// Equal reports whether both halves match.
func (b Bits128) Equal(other Bits128) bool {
	return b.Hi == other.Hi && b.Lo == other.Lo
}
