package heap

import (
	"github.com/memkit/memkit/internal/align"
	"github.com/memkit/memkit/mem"
)

// Bump is an arena-style allocator over [base, base+size): allocations
// only move a cursor forward, and nothing can be freed individually.
// Reset reclaims the whole range at once.
type Bump struct {
	base    mem.Addr
	current mem.Addr
	limit   mem.Addr

	allocations int
}

// NewBump creates a bump allocator managing size bytes at base.
func NewBump(base mem.Addr, size uint64) *Bump {
	return &Bump{
		base:    base,
		current: base,
		limit:   base + size,
	}
}

// Allocate reserves size bytes at the next cursor position aligned up to
// a, which must be a nonzero power of two. Fails with
// mem.ErrOutOfMemory once the range is exhausted; the cursor never moves
// on failure.
func (b *Bump) Allocate(size, a uint64) (mem.Addr, error) {
	if !align.IsPowerOfTwo(a) {
		return 0, &mem.InvalidAlignmentError{Address: a}
	}

	aligned := align.Up(b.current, a)
	end := aligned + size
	if end > b.limit || end < aligned {
		return 0, mem.ErrOutOfMemory
	}

	b.current = end
	b.allocations++
	return aligned, nil
}

// Reset moves the cursor back to base, reclaiming everything at once.
func (b *Bump) Reset() {
	b.current = b.base
	b.allocations = 0
}

// Used returns the bytes consumed so far, alignment padding included.
func (b *Bump) Used() uint64 { return b.current - b.base }

// Remaining returns the bytes still available.
func (b *Bump) Remaining() uint64 { return b.limit - b.current }

// Allocations returns the number of allocations since the last Reset.
func (b *Bump) Allocations() int { return b.allocations }
