package engine

import (
	"math"
	"sort"
)

const blockAlign = 8

type span struct {
	off  uint32
	size uint32
}

// allocator hands out 8-byte aligned blocks of a linear address space.
// It never touches memory itself; the caller grows memory up to top.
type allocator struct {
	used  map[uint32]uint32 // offset -> size of live blocks
	free  []span            // sorted by offset, never adjacent
	top   uint32            // end of the highest block ever handed out
	inUse uint64
}

func newAllocator(base uint32) *allocator {
	return &allocator{
		used: make(map[uint32]uint32),
		top:  alignUp(base),
	}
}

func alignUp(n uint32) uint32 {
	return (n + blockAlign - 1) &^ (blockAlign - 1)
}

// alloc returns the offset of a block of at least size bytes and the new
// top, which the caller must make addressable. It reports false when the
// block does not fit below 4GiB.
func (a *allocator) alloc(size uint32) (off, top uint32, ok bool) {
	size = alignUp(size)
	for i, s := range a.free {
		if s.size < size {
			continue
		}
		off = s.off
		if s.size == size {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = span{off: s.off + size, size: s.size - size}
		}
		a.used[off] = size
		a.inUse += uint64(size)
		return off, a.top, true
	}

	if uint64(a.top)+uint64(size) > math.MaxUint32 {
		return 0, a.top, false
	}
	off = a.top
	a.top += size
	a.used[off] = size
	a.inUse += uint64(size)
	return off, a.top, true
}

// release frees the block at off. It reports false when off is not a live
// block.
func (a *allocator) release(off uint32) bool {
	size, ok := a.used[off]
	if !ok {
		return false
	}
	delete(a.used, off)
	a.inUse -= uint64(size)

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off > off })
	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = span{off: off, size: size}

	// merge with the following span
	if i+1 < len(a.free) && a.free[i].off+a.free[i].size == a.free[i+1].off {
		a.free[i].size += a.free[i+1].size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	// merge with the preceding span
	if i > 0 && a.free[i-1].off+a.free[i-1].size == a.free[i].off {
		a.free[i-1].size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
	// give a trailing span back to the bump region
	if last := a.free[len(a.free)-1]; last.off+last.size == a.top {
		a.top = last.off
		a.free = a.free[:len(a.free)-1]
	}
	return true
}

func (a *allocator) size(off uint32) (uint32, bool) {
	s, ok := a.used[off]
	return s, ok
}

func (a *allocator) live() int { return len(a.used) }
