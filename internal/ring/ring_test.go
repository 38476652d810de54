package ring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A producer writing an increasing counter stream must be observed by the
// consumer exactly once and in order, for any interleaving.
func TestRingSPSCOrdering(t *testing.T) {
	const (
		blockSize = 64
		numBlocks = 4
		total     = 64 * blockSize // many wrap-arounds
	)
	buf := New[uint64](blockSize, numBlocks)
	writer := NewWriter(buf)
	reader := NewReader(buf)

	go func() {
		src := make([]uint64, 0, total)
		for i := uint64(0); i < total; i++ {
			src = append(src, i)
		}
		// write in awkward chunk sizes to cross block boundaries
		for len(src) > 0 {
			n := 17
			if n > len(src) {
				n = len(src)
			}
			writer.Write(src[:n])
			src = src[n:]
		}
		writer.Shutdown()
	}()

	var got []uint64
	for !reader.EOF() {
		reader.Process(func(block []uint64) {
			got = append(got, block...)
		})
	}

	require.Len(t, got, total)
	for i, v := range got {
		require.Equal(t, uint64(i), v, "index %d", i)
	}
}

// Back-pressure: a producer offering several times the ring capacity before
// the consumer starts must block, and nothing may be lost or duplicated.
func TestRingBackPressure(t *testing.T) {
	const (
		blockSize = 32
		numBlocks = 4
		total     = 3 * blockSize * numBlocks
	)
	buf := New[uint64](blockSize, numBlocks)
	writer := NewWriter(buf)
	reader := NewReader(buf)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		src := make([]uint64, total)
		for i := range src {
			src[i] = uint64(i)
		}
		writer.Write(src)
		writer.Shutdown()
	}()

	// let the producer fill the ring and block
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, numBlocks, buf.NumFullBlocks())

	var got []uint64
	for !reader.EOF() {
		reader.Process(func(block []uint64) {
			got = append(got, block...)
		})
	}
	wg.Wait()

	require.Len(t, got, total)
	for i, v := range got {
		require.Equal(t, uint64(i), v)
	}
}

func TestRingShutdownDrainsCommittedBlocks(t *testing.T) {
	buf := New[uint64](8, 4)
	writer := NewWriter(buf)
	reader := NewReader(buf)

	src := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	writer.Write(src)
	writer.Shutdown()

	require.False(t, reader.EOF())
	var got []uint64
	reader.Process(func(block []uint64) {
		got = append(got, block...)
	})
	assert.Equal(t, src, got)
	assert.True(t, reader.EOF())
}

func TestRingEOFWithoutDataAfterShutdown(t *testing.T) {
	buf := New[byte](8, 2)
	NewWriter(buf).Shutdown()
	assert.True(t, NewReader(buf).EOF())
}

func TestRingFinishLastBlockPadsPartialBlock(t *testing.T) {
	buf := New[byte](8, 2)
	writer := NewWriter(buf)
	reader := NewReader(buf)

	writer.Write([]byte{1, 2, 3})
	assert.Equal(t, 0, buf.NumFullBlocks())

	n := writer.FinishLastBlock(0xFF)
	assert.Equal(t, 5, n)
	require.Equal(t, 1, buf.NumFullBlocks())

	writer.Shutdown()
	require.False(t, reader.EOF())
	reader.Process(func(block []byte) {
		assert.Equal(t, []byte{1, 2, 3, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, block)
	})
}

func TestRingWriteAfterShutdownIsSwallowed(t *testing.T) {
	buf := New[byte](4, 2)
	writer := NewWriter(buf)
	writer.Shutdown()

	// the ring is full of nothing, but the shutdown keeps the writer from
	// blocking forever once it runs out of space
	big := make([]byte, 64)
	done := make(chan struct{})
	go func() {
		writer.Write(big)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer blocked on a shut-down ring")
	}
}
