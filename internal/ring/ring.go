// Package ring provides a block-based single-producer single-consumer ring
// buffer. The producer writes at element granularity and commits whole
// blocks; the consumer takes one block at a time. The full-block count and
// the shutdown flag are the only shared state.
package ring

import "sync"

// Buffer is the shared ring storage. Use NewWriter and NewReader to obtain
// the two endpoint handles; each side keeps a local copy of the full-block
// count, refreshed under the lock whenever it commits or consumes blocks,
// and waits on the lock only when it runs out of work or space.
type Buffer[T any] struct {
	data      []T
	blockSize int
	numBlocks int

	mu       sync.Mutex
	cond     *sync.Cond
	numFull  int
	shutdown bool
}

// New creates a buffer of numBlocks blocks with blockSize elements each.
func New[T any](blockSize, numBlocks int) *Buffer[T] {
	b := &Buffer[T]{
		data:      make([]T, blockSize*numBlocks),
		blockSize: blockSize,
		numBlocks: numBlocks,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// BlockSize returns the number of elements per block.
func (b *Buffer[T]) BlockSize() int { return b.blockSize }

// NumBlocks returns the number of blocks.
func (b *Buffer[T]) NumBlocks() int { return b.numBlocks }

// Size returns the total element capacity.
func (b *Buffer[T]) Size() int { return len(b.data) }

// block returns the storage of block i.
func (b *Buffer[T]) block(i int) []T {
	return b.data[i*b.blockSize : (i+1)*b.blockSize]
}

// writeAt copies src into the ring starting at element index start,
// wrapping around the end.
func (b *Buffer[T]) writeAt(start int, src []T) {
	n := copy(b.data[start:], src)
	if n < len(src) {
		copy(b.data, src[n:])
	}
}

// commitBlocks signals that n new full blocks are available and returns the
// new full-block count.
func (b *Buffer[T]) commitBlocks(n int) int {
	b.mu.Lock()
	b.numFull += n
	res := b.numFull
	b.mu.Unlock()
	b.cond.Signal()
	return res
}

// consumeBlocks signals that n blocks have been read, freeing them for the
// writer, and returns the new full-block count.
func (b *Buffer[T]) consumeBlocks(n int) int {
	b.mu.Lock()
	b.numFull -= n
	res := b.numFull
	b.mu.Unlock()
	b.cond.Signal()
	return res
}

// Shutdown signals that no more data will be written.
func (b *Buffer[T]) Shutdown() {
	b.mu.Lock()
	b.shutdown = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// waitForNewBlocks blocks until at least one full block is available or a
// shutdown was signalled with nothing left to read; it returns the number
// of available blocks, 0 meaning end of data.
func (b *Buffer[T]) waitForNewBlocks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.shutdown && b.numFull == 0 {
		b.cond.Wait()
	}
	return b.numFull
}

// waitForSpace blocks until more than desired blocks are free or a
// shutdown was signalled, and returns the full-block count.
func (b *Buffer[T]) waitForSpace(desired int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.shutdown && b.numBlocks-b.numFull <= desired {
		b.cond.Wait()
	}
	return b.numFull
}

// NumFullBlocks returns the number of committed unread blocks.
func (b *Buffer[T]) NumFullBlocks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.numFull
}

// Reader is the consumer endpoint.
type Reader[T any] struct {
	ring      *Buffer[T]
	numFull   int
	readBlock int
}

// NewReader creates the consumer handle for ring.
func NewReader[T any](ring *Buffer[T]) *Reader[T] {
	return &Reader[T]{ring: ring}
}

// EOF blocks until data is available and reports whether the ring has shut
// down with all committed blocks drained.
func (r *Reader[T]) EOF() bool {
	if r.numFull > 0 {
		return false
	}
	r.numFull = r.ring.waitForNewBlocks()
	return r.numFull == 0
}

// Process invokes fn on the current read block, then releases it.
func (r *Reader[T]) Process(fn func(block []T)) {
	if r.numFull > 0 {
		fn(r.ring.block(r.readBlock))
		r.readBlock = (r.readBlock + 1) % r.ring.numBlocks
		r.numFull = r.ring.consumeBlocks(1)
	}
}

// Writer is the producer endpoint.
type Writer[T any] struct {
	ring     *Buffer[T]
	writePos int
	numFull  int
}

// NewWriter creates the producer handle for ring.
func NewWriter[T any](ring *Buffer[T]) *Writer[T] {
	return &Writer[T]{ring: ring}
}

// Write copies src into the ring, committing every block boundary it
// crosses. When the ring is full it blocks until the consumer frees a
// block; after a shutdown the remaining data is silently dropped.
func (w *Writer[T]) Write(src []T) int {
	total := len(src)
	blockSize := w.ring.blockSize
	bufSize := w.ring.Size()

	for len(src) > 0 {
		used := w.numFull*blockSize + w.writePos%blockSize
		free := bufSize - used

		if free == 0 {
			numFull := w.ring.waitForSpace(0)
			if numFull == w.ring.numBlocks {
				// still full after the wait: the ring is shutting down
				break
			}
			w.numFull = numFull
			continue
		}

		n := len(src)
		if n > free {
			n = free
		}

		blockOffset := w.writePos % blockSize
		newFullBlocks := (blockOffset + n) / blockSize

		w.ring.writeAt(w.writePos, src[:n])
		w.writePos = (w.writePos + n) % bufSize

		if newFullBlocks > 0 {
			w.numFull = w.ring.commitBlocks(newFullBlocks)
		}
		src = src[n:]
	}
	return total
}

// FinishLastBlock pads the current partial block with pad so the consumer
// sees it. Returns the number of padding elements written.
func (w *Writer[T]) FinishLastBlock(pad T) int {
	partial := w.writePos % w.ring.blockSize
	if partial == 0 {
		return 0
	}
	padding := make([]T, w.ring.blockSize-partial)
	for i := range padding {
		padding[i] = pad
	}
	return w.Write(padding)
}

// Shutdown signals end of data on the underlying ring.
func (w *Writer[T]) Shutdown() {
	w.ring.Shutdown()
}
