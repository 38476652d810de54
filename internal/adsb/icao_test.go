package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickSeconds advances the table clock by whole simulated seconds.
func tickSeconds(t *ICAOTable, seconds int) {
	for s := 0; s < seconds; s++ {
		for i := 0; i < ticksPerSecond; i++ {
			t.Tick()
		}
	}
}

func TestICAOTableInsertAndFind(t *testing.T) {
	table := NewICAOTable()
	const icaoCA = 0x5ABCDEF // CA=5, ICAO=0xABCDEF

	_, ok := table.FindWithCA(icaoCA)
	assert.False(t, ok)

	b := table.InsertWithCA(icaoCA)
	found, ok := table.FindWithCA(icaoCA)
	require.True(t, ok)
	assert.Equal(t, b, found)

	// bare ICAO lookup ignores the CA bits
	found, ok = table.Find(0xABCDEF)
	require.True(t, ok)
	assert.Equal(t, b, found)

	// a different CA is a different exact key
	_, ok = table.FindWithCA(0x4ABCDEF)
	assert.False(t, ok)
}

func TestICAOTableZeroKeyIsNeverFound(t *testing.T) {
	table := NewICAOTable()
	_, ok := table.Find(0)
	assert.False(t, ok)
	_, ok = table.FindWithCA(0)
	assert.False(t, ok)
}

func TestICAOTableCollisionOverwrites(t *testing.T) {
	table := NewICAOTable()
	a := uint32(0x0011234)
	b := a + icaoTableSize // same bucket, different key

	table.InsertWithCA(a)
	table.InsertWithCA(b)

	_, ok := table.FindWithCA(a)
	assert.False(t, ok)
	_, ok = table.FindWithCA(b)
	assert.True(t, ok)
}

func TestICAOTableInsertIsNotSeen(t *testing.T) {
	table := NewICAOTable()
	b := table.InsertWithCA(0x5ABCDEF)
	assert.False(t, table.IsAlive(b))
	assert.False(t, table.IsTrusted(b))

	table.MarkAsSeen(b)
	assert.True(t, table.IsAlive(b))
	assert.False(t, table.IsTrusted(b))
}

func TestICAOTableTTLExpiry(t *testing.T) {
	table := NewICAOTable()
	const icaoCA = 0x5ABCDEF
	b := table.InsertWithCA(icaoCA)
	table.MarkAsSeen(b)

	// the TTL only decreases without intervening marks
	prev := int(ttlNotTrusted)
	for s := 0; s < int(ttlNotTrusted)-1; s++ {
		tickSeconds(table, 1)
		require.True(t, table.IsAlive(b), "second %d", s)
		cur := int(table.entries[b].ttl)
		require.LessOrEqual(t, cur, prev)
		prev = cur
	}

	tickSeconds(table, 1)
	assert.False(t, table.IsAlive(b))
	// the expired entry is cleared entirely
	_, ok := table.FindWithCA(icaoCA)
	assert.False(t, ok)
}

func TestICAOTableTrustOutlivesSilenceUpToTTL(t *testing.T) {
	table := NewICAOTable()
	b := table.InsertWithCA(0x5ABCDEF)
	table.MarkAsTrustedSeen(b)
	assert.True(t, table.IsTrusted(b))

	// short messages keep the entry alive while the trust TTL runs down
	for s := 0; s < int(ttlTrusted)-1; s++ {
		tickSeconds(table, 1)
		table.MarkAsSeen(b)
		require.True(t, table.IsAlive(b))
	}
	assert.True(t, table.IsTrusted(b))

	tickSeconds(table, 1)
	table.MarkAsSeen(b)
	assert.True(t, table.IsAlive(b))
	assert.False(t, table.IsTrusted(b), "trust must expire after %d seconds", ttlTrusted)
}

func TestICAOTableTrustImpliesLiveness(t *testing.T) {
	table := NewICAOTable()
	b := table.InsertWithCA(0x5ABCDEF)
	table.MarkAsTrustedSeen(b)

	// liveness expires first; a dead entry is cleared and with it the trust
	tickSeconds(table, int(ttlNotTrusted))
	assert.False(t, table.IsAlive(b))
	assert.False(t, table.IsTrusted(b))
}

func TestICAOTableAltitudePlausibility(t *testing.T) {
	table := NewICAOTable()
	b := table.InsertWithCA(0x5ABCDEF)
	table.MarkAsSeen(b)

	// first value is always accepted
	assert.True(t, table.CheckAltitude(b, 1440)) // 35000 ft
	// within the window
	assert.True(t, table.CheckAltitude(b, 1441)) // 35025 ft
	assert.True(t, table.CheckAltitude(b, 1441-altitudeWindow))
	// far outside
	assert.False(t, table.CheckAltitude(b, 2840))
}

func TestICAOTableAltitudeTwoStrikesReset(t *testing.T) {
	table := NewICAOTable()
	b := table.InsertWithCA(0x5ABCDEF)
	table.MarkAsSeen(b)

	require.True(t, table.CheckAltitude(b, 1000))
	assert.False(t, table.CheckAltitude(b, 2000))
	assert.False(t, table.CheckAltitude(b, 2000))
	// the record was reset, so the next value starts fresh
	assert.True(t, table.CheckAltitude(b, 2000))
}

func TestICAOTableSquawkPlausibility(t *testing.T) {
	table := NewICAOTable()
	b := table.InsertWithCA(0x5ABCDEF)
	table.MarkAsSeen(b)

	assert.True(t, table.CheckSquawk(b, 0x0AF5))
	assert.True(t, table.CheckSquawk(b, 0x0AF5))
	assert.False(t, table.CheckSquawk(b, 0x0AF6))
	assert.False(t, table.CheckSquawk(b, 0x0AF7))
	assert.True(t, table.CheckSquawk(b, 0x0AF7))
}

func TestICAOTableInsertClearsPlausibilityState(t *testing.T) {
	table := NewICAOTable()
	b := table.InsertWithCA(0x5ABCDEF)
	require.True(t, table.CheckAltitude(b, 1000))

	table.InsertWithCA(0x5ABCDEF)
	// after the overwrite any altitude is acceptable again
	assert.True(t, table.CheckAltitude(b, 2500))
}
