package adsb

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBits128GetSet(t *testing.T) {
	var b Bits128
	for _, i := range []uint{0, 1, 55, 63, 64, 100, 111, 127} {
		b = b.Set(i, true)
		assert.True(t, b.Get(i), "bit %d", i)
		assert.Equal(t, uint32(1), b.Bit(i))
	}
	for _, i := range []uint{0, 63, 64, 127} {
		b = b.Set(i, false)
		assert.False(t, b.Get(i), "bit %d", i)
	}
}

func TestBits128Flip(t *testing.T) {
	var b Bits128
	b = b.Flip(70)
	assert.True(t, b.Get(70))
	b = b.Flip(70)
	assert.False(t, b.Get(70))
}

func TestBits128ShiftLeftMatchesBitMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		b := Bits128{Hi: rng.Uint64(), Lo: rng.Uint64()}
		for k := uint(0); k <= 128; k++ {
			shifted := b.ShiftLeft(k)
			for i := uint(0); i < 128; i++ {
				want := uint32(0)
				if i >= k {
					want = b.Bit(i - k)
				}
				require.Equal(t, want, shifted.Bit(i), "shift %d bit %d", k, i)
			}
		}
	}
}

func TestBits128ShiftComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 100; trial++ {
		b := Bits128{Hi: rng.Uint64(), Lo: rng.Uint64()}
		a := uint(rng.Intn(129))
		c := uint(rng.Intn(129 - int(a)))
		require.Equal(t, b.ShiftLeft(a+c), b.ShiftLeft(a).ShiftLeft(c))
		require.Equal(t, b.ShiftRight(a+c), b.ShiftRight(a).ShiftRight(c))
	}
}

func TestBits128ShiftRoundTrip(t *testing.T) {
	b := Bits128{Hi: 0, Lo: 0xDEADBEEF}
	assert.Equal(t, b, b.ShiftLeft(64).ShiftRight(64))
	assert.Equal(t, Bits128{}, b.ShiftLeft(128))
}

func TestBits128Combinators(t *testing.T) {
	a := Bits128{Hi: 0xF0F0, Lo: 0x1234}
	b := Bits128{Hi: 0x0FF0, Lo: 0x4321}

	assert.Equal(t, Bits128{Hi: 0xFFF0, Lo: 0x5335}, a.Or(b))
	assert.Equal(t, Bits128{Hi: 0x00F0, Lo: 0x0220}, a.And(b))
	assert.Equal(t, Bits128{}, a.Xor(a))
	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(b))
}
