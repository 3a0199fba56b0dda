package heap

import (
	"fmt"
	"os"

	"github.com/memkit/memkit/internal/align"
	"github.com/memkit/memkit/mem"
)

// Runtime debug flag for allocation tracing, controlled by the
// MEMKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("MEMKIT_LOG_ALLOC") != ""

const (
	// headerSize is the bookkeeping overhead charged to every block.
	// Returned pointers sit this many bytes past the block start, so it
	// must be a multiple of alignment.
	headerSize = 16

	// minBlockSize is the smallest payload a block may carry. Requests
	// below it are rounded up, and splits that would leave less than
	// this are not performed.
	minBlockSize = 16

	// alignment applies to every returned address.
	alignment = 8
)

// block is one entry in the ordered block list. addr is where the block
// (conceptually, its header) starts; the caller-visible address is
// addr+headerSize.
type block struct {
	addr mem.Addr
	size uint64
	free bool
}

// Allocator is a best-fit free-list allocator over [base, base+size).
type Allocator struct {
	base mem.Addr
	size uint64

	// blocks is kept sorted by addr and contiguous end-to-start.
	blocks []block

	totalAllocated  uint64
	allocationCount int
}

// New creates an allocator managing size bytes at base. The header of
// the first block is charged immediately, so the largest satisfiable
// request is size-16 bytes. Panics if base is not 8-aligned or size
// cannot hold even one minimal block (32 bytes).
func New(base mem.Addr, size uint64) *Allocator {
	if !align.IsAligned(base, alignment) {
		panic("heap: base not aligned")
	}
	if size < headerSize+minBlockSize {
		panic("heap: size too small for a single block")
	}
	return &Allocator{
		base:   base,
		size:   size,
		blocks: []block{{addr: base, size: size - headerSize, free: true}},
	}
}

// Allocate reserves size bytes and returns their address. The request is
// raised to the 16-byte minimum and aligned up to 8; the smallest free
// block that fits wins. Zero sizes fail with an alignment error and
// exhaustion fails with mem.ErrOutOfMemory.
func (h *Allocator) Allocate(size uint64) (mem.Addr, error) {
	if size == 0 {
		return 0, &mem.InvalidAlignmentError{Address: 0}
	}
	need := size
	if need < minBlockSize {
		need = minBlockSize
	}
	need = align.Up(need, alignment)

	idx, ok := h.findBestFit(need)
	if !ok {
		return 0, mem.ErrOutOfMemory
	}

	spare := h.blocks[idx].size - need
	h.blocks[idx].free = false
	split := spare >= minBlockSize+headerSize
	if split {
		h.blocks[idx].size = need
		next := block{
			addr: h.blocks[idx].addr + headerSize + need,
			size: spare - headerSize,
			free: true,
		}
		h.blocks = append(h.blocks, block{})
		copy(h.blocks[idx+2:], h.blocks[idx+1:])
		h.blocks[idx+1] = next
	}
	// Without a split the block keeps its full size, so the slack stays
	// accounted to this allocation and the list stays contiguous.

	h.totalAllocated += h.blocks[idx].size
	h.allocationCount++

	addr := h.blocks[idx].addr + headerSize
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[HEAP] alloc %d -> 0x%x (need=%d split=%v)\n", size, addr, need, split)
	}
	return addr, nil
}

// Deallocate releases the allocation at ptr, which must be exactly what
// Allocate returned. The freed block is merged with its free neighbors,
// next side first, then previous.
func (h *Allocator) Deallocate(ptr mem.Addr) error {
	if ptr < headerSize {
		return &mem.InvalidAddressError{Address: ptr}
	}
	blockAddr := ptr - headerSize

	idx := -1
	for i := range h.blocks {
		if h.blocks[i].addr == blockAddr {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &mem.InvalidAddressError{Address: ptr}
	}
	if h.blocks[idx].free {
		return &mem.DoubleFreeError{Address: ptr}
	}

	h.totalAllocated -= h.blocks[idx].size
	h.allocationCount--
	h.blocks[idx].free = true

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[HEAP] free 0x%x (size=%d)\n", ptr, h.blocks[idx].size)
	}

	h.coalesce(idx)
	return nil
}

// findBestFit returns the index of the smallest free block with at least
// need bytes. Ties keep the first (lowest-address) candidate.
func (h *Allocator) findBestFit(need uint64) (int, bool) {
	best := -1
	var bestSize uint64
	for i := range h.blocks {
		b := &h.blocks[i]
		if !b.free || b.size < need {
			continue
		}
		if best < 0 || b.size < bestSize {
			best = i
			bestSize = b.size
		}
	}
	return best, best >= 0
}

// coalesce merges blocks[idx] with free neighbors. Each merge absorbs
// the neighbor's header along with its payload.
func (h *Allocator) coalesce(idx int) {
	if idx+1 < len(h.blocks) && h.blocks[idx+1].free {
		h.blocks[idx].size += h.blocks[idx+1].size + headerSize
		h.blocks = append(h.blocks[:idx+1], h.blocks[idx+2:]...)
	}
	if idx > 0 && h.blocks[idx-1].free {
		h.blocks[idx-1].size += h.blocks[idx].size + headerSize
		h.blocks = append(h.blocks[:idx], h.blocks[idx+1:]...)
	}
}

// TotalSize returns the managed range size in bytes, headers included.
func (h *Allocator) TotalSize() uint64 { return h.size }

// TotalAllocated returns the bytes currently reserved for callers,
// including slack retained by unsplit blocks.
func (h *Allocator) TotalAllocated() uint64 { return h.totalAllocated }

// TotalFree returns the payload bytes sitting in free blocks.
func (h *Allocator) TotalFree() uint64 {
	var total uint64
	for i := range h.blocks {
		if h.blocks[i].free {
			total += h.blocks[i].size
		}
	}
	return total
}

// AllocationCount returns the number of live allocations.
func (h *Allocator) AllocationCount() int { return h.allocationCount }

// BlockCount returns the number of blocks in the list, free or not.
func (h *Allocator) BlockCount() int { return len(h.blocks) }

// LargestFreeBlock returns the payload size of the biggest free block,
// 0 when nothing is free.
func (h *Allocator) LargestFreeBlock() uint64 {
	var largest uint64
	for i := range h.blocks {
		if h.blocks[i].free && h.blocks[i].size > largest {
			largest = h.blocks[i].size
		}
	}
	return largest
}

// FragmentationRatio reports how shattered the free memory is:
// 1 - largest_free/total_free. 0 means no free memory or one perfect
// block; values near 1 mean many small holes.
func (h *Allocator) FragmentationRatio() float64 {
	totalFree := h.TotalFree()
	if totalFree == 0 {
		return 0
	}
	return 1 - float64(h.LargestFreeBlock())/float64(totalFree)
}

// Validate walks the block list and checks the structural invariants:
// blocks contiguous from base to base+size, no adjacent free pair, and
// counters agreeing with the list. Any mismatch is reported as
// mem.ErrHeapCorruption with detail.
func (h *Allocator) Validate() error {
	if len(h.blocks) == 0 {
		return fmt.Errorf("%w: empty block list", mem.ErrHeapCorruption)
	}
	if h.blocks[0].addr != h.base {
		return fmt.Errorf("%w: first block at 0x%x, want base 0x%x",
			mem.ErrHeapCorruption, h.blocks[0].addr, h.base)
	}

	var allocated uint64
	liveCount := 0
	for i := range h.blocks {
		b := &h.blocks[i]
		end := b.addr + headerSize + b.size
		if i+1 < len(h.blocks) {
			next := &h.blocks[i+1]
			if end != next.addr {
				return fmt.Errorf("%w: gap after block 0x%x (ends 0x%x, next starts 0x%x)",
					mem.ErrHeapCorruption, b.addr, end, next.addr)
			}
			if b.free && next.free {
				return fmt.Errorf("%w: adjacent free blocks at 0x%x and 0x%x",
					mem.ErrHeapCorruption, b.addr, next.addr)
			}
		} else if end != h.base+h.size {
			return fmt.Errorf("%w: last block ends 0x%x, want 0x%x",
				mem.ErrHeapCorruption, end, h.base+h.size)
		}
		if !b.free {
			allocated += b.size
			liveCount++
		}
	}

	if allocated != h.totalAllocated {
		return fmt.Errorf("%w: allocated counter %d, list says %d",
			mem.ErrHeapCorruption, h.totalAllocated, allocated)
	}
	if liveCount != h.allocationCount {
		return fmt.Errorf("%w: allocation counter %d, list says %d",
			mem.ErrHeapCorruption, h.allocationCount, liveCount)
	}
	return nil
}
