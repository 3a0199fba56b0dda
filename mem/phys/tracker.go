package phys

import (
	"sort"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	// This reduces allocations during typical workloads.
	defaultRangeCapacity = 64

	// standardPageSize is the typical OS page size (4KB). Dirty tracking
	// works in OS pages, independent of the simulated frame size.
	standardPageSize = 4096
)

// Range is a dirty byte range, expressed as absolute offsets into the
// image buffer.
type Range struct {
	Off int64 // offset from the start of the image
	Len int64 // length in bytes
}

// End returns the exclusive end offset of the range.
func (r Range) End() int64 {
	return r.Off + r.Len
}

// Tracker accumulates dirty ranges and coalesces them on demand.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	ranges   []Range
	pageSize int64
}

// NewTracker creates a dirty tracker with OS page granularity.
func NewTracker() *Tracker {
	return &Tracker{
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range.
//
// The range is page-aligned and coalesced with other ranges when Ranges
// is called. Add itself only appends to a slice, so it is cheap enough
// to call on every write.
func (t *Tracker) Add(off, length int) {
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Pending reports how many raw ranges have been recorded since the last
// Reset.
func (t *Tracker) Pending() int {
	return len(t.ranges)
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Ranges returns the dirty ranges, page-aligned, sorted by offset, and
// merged so that no two returned ranges overlap or touch. Returns nil
// when nothing is dirty.
func (t *Tracker) Ranges() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	// Page-align all ranges: round the start down and the end up.
	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	// Merge overlapping or adjacent ranges.
	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for i := 1; i < len(aligned); i++ {
		next := aligned[i]
		if next.Off <= current.End() {
			if next.End() > current.End() {
				current.Len = next.End() - current.Off
			}
		} else {
			merged = append(merged, current)
			current = next
		}
	}
	merged = append(merged, current)

	return merged
}
