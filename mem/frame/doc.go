// Package frame implements bitmap-based physical frame accounting.
//
// # Overview
//
// An Allocator covers a flat physical range with one bit per frame
// (64 frames per bitmap word). Single-frame allocation scans for the
// lowest zero bit, so freed low frames are always reused first and
// allocation order is deterministic. Multi-frame allocation finds the
// lowest contiguous run, for DMA-style buffers that need physically
// adjacent frames.
//
// Ranges can also be reserved up front (firmware tables, MMIO windows,
// the kernel image). Reservation is all-or-nothing: if any covered frame
// is already taken, the bitmap is left exactly as it was.
//
// # Errors
//
//   - mem.ErrFrameExhausted: no free frame at all
//   - mem.ErrOutOfMemory: free frames exist, but no contiguous run is
//     long enough
//   - mem.ErrInvalidAddress / mem.ErrInvalidAlignment: address outside
//     the managed range, or not on a frame boundary
//   - mem.ErrDoubleFree: freeing a frame that is already free
//   - mem.ErrRegionOverlap: reserving over an allocated frame
//
// An Allocator is not safe for concurrent use; callers that share one
// guard it with a mutex.
package frame
