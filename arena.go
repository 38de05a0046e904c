package corethread

import (
	"sync/atomic"
)

// defaultArenaBlockSize is the initial capacity of each frame arena.
const defaultArenaBlockSize = 1 << 20

// FrameAlloc is a linear, reset-in-bulk memory region scoped to one
// frame's worth of transient allocations.
//
// Alloc appends into large blocks and never frees individual
// allocations; Clear drops everything at once and advances the arena
// epoch. The allocator performs no locking: by contract a frame arena is
// used by whichever thread currently holds the active role, and the
// swap in [CoreThread.AdvanceFrame] happens at a frame boundary with no
// concurrent readers of the same arena.
type FrameAlloc struct {
	blockSize int
	blocks    [][]byte
	used      int // bytes used in the last block

	// epoch counts Clear calls. Allocations are tagged with the epoch
	// they were made in; a FrameBuf read against a stale epoch is a
	// detectable programmer error rather than a silent hazard.
	epoch atomic.Uint64
}

func newFrameAlloc(blockSize int) *FrameAlloc {
	if blockSize <= 0 {
		blockSize = defaultArenaBlockSize
	}
	return &FrameAlloc{
		blockSize: blockSize,
		blocks:    [][]byte{make([]byte, 0, blockSize)},
	}
}

// Epoch returns the current arena epoch. The epoch advances on every
// Clear.
func (a *FrameAlloc) Epoch() uint64 {
	return a.epoch.Load()
}

// Alloc returns a buffer of n bytes valid until the next Clear. The
// returned FrameBuf remembers the epoch it was allocated in.
func (a *FrameAlloc) Alloc(n int) FrameBuf {
	last := a.blocks[len(a.blocks)-1]
	if len(last)+n > cap(last) {
		size := a.blockSize
		if n > size {
			size = n
		}
		last = make([]byte, 0, size)
		a.blocks = append(a.blocks, last)
	}
	idx := len(a.blocks) - 1
	start := len(a.blocks[idx])
	a.blocks[idx] = a.blocks[idx][:start+n]
	data := a.blocks[idx][start : start+n : start+n]

	return FrameBuf{
		data:  data,
		epoch: a.epoch.Load(),
		owner: a,
	}
}

// Clear resets the arena in bulk. The first block is kept and reused;
// overflow blocks are released. All outstanding FrameBufs become stale.
func (a *FrameAlloc) Clear() {
	a.blocks = a.blocks[:1]
	a.blocks[0] = a.blocks[0][:0]
	a.epoch.Add(1)
}

// Allocated returns the number of bytes currently handed out.
func (a *FrameAlloc) Allocated() int {
	total := 0
	for _, b := range a.blocks {
		total += len(b)
	}
	return total
}

// FrameBuf is an epoch-tagged allocation from a FrameAlloc.
//
// The zero value is an empty buffer not tied to any arena.
type FrameBuf struct {
	data  []byte
	epoch uint64
	owner *FrameAlloc
}

// Len returns the buffer length in bytes.
func (b FrameBuf) Len() int {
	return len(b.data)
}

// Stale reports whether the owning arena has been cleared since this
// buffer was allocated.
func (b FrameBuf) Stale() bool {
	return b.owner != nil && b.owner.Epoch() != b.epoch
}

// Bytes returns the underlying memory. Accessing a buffer after its
// arena was cleared is a programmer error and panics; the memory may
// already belong to a later frame.
func (b FrameBuf) Bytes() []byte {
	if b.Stale() {
		panic("corethread: frame buffer accessed after its arena was cleared")
	}
	return b.data
}
