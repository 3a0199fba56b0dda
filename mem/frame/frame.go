package frame

import (
	"math/bits"
	"sort"

	"github.com/memkit/memkit/internal/align"
	"github.com/memkit/memkit/mem"
)

// bitmapWordBits is the number of frames tracked by one bitmap word.
const bitmapWordBits = 64

// Allocator tracks physical frames over [base, base+memorySize) with one
// bit per frame. A set bit means the frame is in use.
type Allocator struct {
	bitmap      []uint64
	totalFrames int
	freeFrames  int
	pageSize    uint64
	base        mem.Addr

	// reserved regions, kept in reservation order for Regions()
	regions []mem.Region
}

// New creates an allocator for memorySize bytes of physical memory split
// into pageSize frames, starting at base. A trailing partial frame is not
// tracked. Panics if pageSize is zero.
func New(memorySize, pageSize uint64, base mem.Addr) *Allocator {
	if pageSize == 0 {
		panic("frame: zero page size")
	}
	totalFrames := int(memorySize / pageSize)
	words := align.CeilDiv(uint64(totalFrames), bitmapWordBits)

	return &Allocator{
		bitmap:      make([]uint64, words),
		totalFrames: totalFrames,
		freeFrames:  totalFrames,
		pageSize:    pageSize,
		base:        base,
	}
}

// NewWithDefaultPageSize creates an allocator with mem.DefaultPageSize
// frames based at address zero.
func NewWithDefaultPageSize(memorySize uint64) *Allocator {
	return New(memorySize, mem.DefaultPageSize, 0)
}

// AllocateFrame claims the lowest free frame and returns its physical
// address. Fails with mem.ErrFrameExhausted when every frame is in use.
func (a *Allocator) AllocateFrame() (mem.Addr, error) {
	for wordIdx, word := range a.bitmap {
		if word == ^uint64(0) {
			continue
		}
		bit := bits.TrailingZeros64(^word)
		frameIdx := wordIdx*bitmapWordBits + bit

		// Zero bits past totalFrames in the last word are padding,
		// never real frames.
		if frameIdx >= a.totalFrames {
			break
		}

		a.bitmap[wordIdx] |= 1 << bit
		a.freeFrames--
		return a.frameToAddress(frameIdx), nil
	}
	return 0, mem.ErrFrameExhausted
}

// AllocateContiguous claims count physically adjacent frames and returns
// the address of the first. The scan is first-fit from the bottom, and
// marking happens only once a full run is found, so a failed call changes
// nothing. A non-positive count fails with an alignment error; when free
// frames exist but no run is long enough the error is mem.ErrOutOfMemory.
func (a *Allocator) AllocateContiguous(count int) (mem.Addr, error) {
	if count <= 0 {
		return 0, &mem.InvalidAlignmentError{Address: 0}
	}
	if count == 1 {
		return a.AllocateFrame()
	}

	runStart := 0
	runLength := 0
	for frameIdx := 0; frameIdx < a.totalFrames; frameIdx++ {
		if !a.isFrameFree(frameIdx) {
			runLength = 0
			continue
		}
		if runLength == 0 {
			runStart = frameIdx
		}
		runLength++

		if runLength == count {
			for i := runStart; i < runStart+count; i++ {
				a.markFrameUsed(i)
			}
			a.freeFrames -= count
			return a.frameToAddress(runStart), nil
		}
	}
	return 0, mem.ErrOutOfMemory
}

// DeallocateFrame returns one frame to the free pool. The address must be
// the exact frame-aligned value a previous allocation returned.
func (a *Allocator) DeallocateFrame(addr mem.Addr) error {
	frameIdx, err := a.addressToFrame(addr)
	if err != nil {
		return err
	}
	if a.isFrameFree(frameIdx) {
		return &mem.DoubleFreeError{Address: addr}
	}

	a.bitmap[frameIdx/bitmapWordBits] &^= 1 << (frameIdx % bitmapWordBits)
	a.freeFrames++
	return nil
}

// DeallocateContiguous frees count consecutive frames starting at addr,
// one at a time from the bottom. On the first bad frame it stops and
// returns that frame's error; frames freed before the failure STAY freed.
// Callers that need atomicity must validate the run themselves first.
// A non-positive count is a no-op.
func (a *Allocator) DeallocateContiguous(addr mem.Addr, count int) error {
	for i := 0; i < count; i++ {
		if err := a.DeallocateFrame(addr + uint64(i)*a.pageSize); err != nil {
			return err
		}
	}
	return nil
}

// ReserveRange marks every frame overlapping [start, start+size) as used,
// for ranges the allocator must never hand out. The whole range is
// validated before any frame is marked: on error (out-of-range address,
// or mem.ErrRegionOverlap when a covered frame is already used) the
// bitmap is unchanged. Size is rounded up to whole frames; a zero size
// reserves nothing.
func (a *Allocator) ReserveRange(start mem.Addr, size uint64) error {
	startFrame, err := a.addressToFrame(start)
	if err != nil {
		return err
	}
	frameCount := int(align.CeilDiv(size, a.pageSize))

	for i := 0; i < frameCount; i++ {
		frameIdx := startFrame + i
		if frameIdx >= a.totalFrames {
			return &mem.InvalidAddressError{Address: start + uint64(i)*a.pageSize}
		}
		if !a.isFrameFree(frameIdx) {
			return &mem.RegionOverlapError{Base: start, Size: size}
		}
	}

	for i := 0; i < frameCount; i++ {
		a.markFrameUsed(startFrame + i)
	}
	a.freeFrames -= frameCount
	return nil
}

// ReserveRegion reserves r's frame range and records the region so
// diagnostics can report what the frames are for.
func (a *Allocator) ReserveRegion(r mem.Region) error {
	if err := a.ReserveRange(r.Base, r.Size); err != nil {
		return err
	}
	a.regions = append(a.regions, r)
	return nil
}

// Regions returns the reserved regions sorted by base address.
func (a *Allocator) Regions() []mem.Region {
	out := make([]mem.Region, len(a.regions))
	copy(out, a.regions)
	sort.Slice(out, func(i, j int) bool { return out[i].Base < out[j].Base })
	return out
}

// Stats reports a snapshot of frame usage. Heap fields are zero; callers
// running a heap fill them in themselves.
func (a *Allocator) Stats() mem.Stats {
	used := a.totalFrames - a.freeFrames
	return mem.Stats{
		TotalFrames: a.totalFrames,
		FreeFrames:  a.freeFrames,
		UsedFrames:  used,
		PageSize:    a.pageSize,
		TotalBytes:  uint64(a.totalFrames) * a.pageSize,
		FreeBytes:   uint64(a.freeFrames) * a.pageSize,
		UsedBytes:   uint64(used) * a.pageSize,
	}
}

// TotalFrames returns the number of frames the allocator tracks.
func (a *Allocator) TotalFrames() int { return a.totalFrames }

// FreeFrames returns the number of frames currently free.
func (a *Allocator) FreeFrames() int { return a.freeFrames }

// UsedFrames returns the number of frames currently in use.
func (a *Allocator) UsedFrames() int { return a.totalFrames - a.freeFrames }

// PageSize returns the frame size in bytes.
func (a *Allocator) PageSize() uint64 { return a.pageSize }

// Base returns the physical address of frame 0.
func (a *Allocator) Base() mem.Addr { return a.base }

func (a *Allocator) frameToAddress(frameIdx int) mem.Addr {
	return a.base + uint64(frameIdx)*a.pageSize
}

func (a *Allocator) addressToFrame(addr mem.Addr) (int, error) {
	if addr < a.base {
		return 0, &mem.InvalidAddressError{Address: addr}
	}
	offset := addr - a.base
	if offset%a.pageSize != 0 {
		return 0, &mem.InvalidAlignmentError{Address: addr}
	}
	frameIdx := int(offset / a.pageSize)
	if frameIdx >= a.totalFrames {
		return 0, &mem.InvalidAddressError{Address: addr}
	}
	return frameIdx, nil
}

func (a *Allocator) isFrameFree(frameIdx int) bool {
	return a.bitmap[frameIdx/bitmapWordBits]&(1<<(frameIdx%bitmapWordBits)) == 0
}

func (a *Allocator) markFrameUsed(frameIdx int) {
	a.bitmap[frameIdx/bitmapWordBits] |= 1 << (frameIdx % bitmapWordBits)
}
