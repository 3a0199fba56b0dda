// Package heap implements byte-granular allocation over a fixed range:
// a best-fit free-list allocator with coalescing, and a trivial bump
// allocator for boot-style phases that free everything at once.
//
// # Free-List Allocator
//
// Allocator carves its range into an ordered list of blocks. Every block
// charges a 16-byte header, and the address handed to the caller sits
// just past it. The list is kept contiguous at all times:
//
//	block[i].addr + headerSize + block[i].size == block[i+1].addr
//
// Allocation picks the SMALLEST free block that fits (best-fit), which
// keeps large blocks intact for large requests. If the chosen block has
// enough spare room for another block (16-byte payload plus header), it
// is split and the remainder stays free; otherwise the whole block is
// handed out and the slack is retained inside it, so the contiguity
// invariant above never breaks.
//
// Freeing merges the block with its free neighbors, next side first,
// then the previous side. Each merge reclaims one header, so memory
// freed in any order always coalesces back into one block.
//
// # Fragmentation
//
// FragmentationRatio reports 1 - largest_free/total_free: 0 when all
// free memory is one block, approaching 1 as free memory shatters into
// many small holes. The workload reporting in cmd/memctl plots this.
//
// # Bump Allocator
//
// Bump hands out consecutive aligned addresses and cannot free
// individual allocations, only Reset the whole range. It exists for
// early-boot and arena-style usage where per-object bookkeeping is not
// worth it.
//
// # Diagnostics
//
// Set MEMKIT_LOG_ALLOC=1 to trace allocations and frees on stderr.
// Validate walks the block list and reports mem.ErrHeapCorruption if
// bookkeeping ever disagrees with itself.
//
// Neither allocator is safe for concurrent use; callers that share one
// guard it with a mutex.
package heap
