// Package page implements virtual-to-physical address translation with
// per-page permissions and security-mode tagging.
//
// A Table is a flat set of page-granular mappings. Mapping and unmapping
// are the only mutations; changing a page's attributes means unmapping
// and remapping it. Access checking runs three gates in a fixed order,
// page presence, then security mode, then permissions, so a caller that
// may not see a page learns nothing about its permission bits.
//
// A Table is not safe for concurrent use; callers that share one guard
// it with a mutex.
package page

import (
	"sort"

	"github.com/memkit/memkit/internal/align"
	"github.com/memkit/memkit/mem"
)

// Entry is one page mapping. Addresses are stored page-aligned.
type Entry struct {
	VirtualAddress  mem.Addr
	PhysicalAddress mem.Addr
	Flags           Flags
	Mode            mem.SecurityMode
}

// Table maps virtual pages to physical pages.
type Table struct {
	entries  map[mem.Addr]Entry
	pageSize uint64
}

// New creates an empty table with mem.DefaultPageSize pages.
func New() *Table {
	return NewWithPageSize(mem.DefaultPageSize)
}

// NewWithPageSize creates an empty table with the given page size, which
// must be a power of two. Panics otherwise.
func NewWithPageSize(pageSize uint64) *Table {
	if !align.IsPowerOfTwo(pageSize) {
		panic("page: page size must be a power of two")
	}
	return &Table{
		entries:  make(map[mem.Addr]Entry),
		pageSize: pageSize,
	}
}

// Map records a mapping from the page containing virt to the page
// containing phys. Both addresses are truncated down to their page
// boundary. Mapping an already-mapped page fails with
// mem.ErrRegionOverlap; remapping requires an explicit Unmap first.
func (t *Table) Map(virt, phys mem.Addr, flags Flags, mode mem.SecurityMode) error {
	alignedVirt := align.Down(virt, t.pageSize)
	alignedPhys := align.Down(phys, t.pageSize)

	if _, exists := t.entries[alignedVirt]; exists {
		return &mem.RegionOverlapError{Base: alignedVirt, Size: t.pageSize}
	}

	t.entries[alignedVirt] = Entry{
		VirtualAddress:  alignedVirt,
		PhysicalAddress: alignedPhys,
		Flags:           flags,
		Mode:            mode,
	}
	return nil
}

// Unmap removes the mapping for the page containing virt and returns the
// removed entry. An unmapped page fails with mem.ErrPageFault carrying
// the query address as given, not truncated.
func (t *Table) Unmap(virt mem.Addr) (Entry, error) {
	aligned := align.Down(virt, t.pageSize)
	entry, ok := t.entries[aligned]
	if !ok {
		return Entry{}, &mem.PageFaultError{Address: virt}
	}
	delete(t.entries, aligned)
	return entry, nil
}

// Translate resolves virt to its physical address, preserving the offset
// within the page. Unmapped and non-present pages fail with
// mem.ErrPageFault.
func (t *Table) Translate(virt mem.Addr) (mem.Addr, error) {
	pageBase := align.Down(virt, t.pageSize)
	entry, ok := t.entries[pageBase]
	if !ok {
		return 0, &mem.PageFaultError{Address: virt}
	}
	if !entry.Flags.Present() {
		return 0, &mem.PageFaultError{Address: virt}
	}
	return entry.PhysicalAddress + (virt - pageBase), nil
}

// Lookup returns the entry covering virt without any access checking.
func (t *Table) Lookup(virt mem.Addr) (Entry, bool) {
	entry, ok := t.entries[align.Down(virt, t.pageSize)]
	return entry, ok
}

// CheckAccess verifies that a caller running in callerMode may use the
// page containing virt with the required permissions. The gates run in
// order: mem.ErrPageFault if the page is unmapped, mem.ErrSecurityViolation
// if callerMode may not access the mapping's mode, mem.ErrPermissionDenied
// if the mapping's effective permissions do not cover required.
func (t *Table) CheckAccess(virt mem.Addr, required mem.Permissions, callerMode mem.SecurityMode) error {
	entry, ok := t.entries[align.Down(virt, t.pageSize)]
	if !ok {
		return &mem.PageFaultError{Address: virt}
	}

	if !callerMode.CanAccess(entry.Mode) {
		return &mem.SecurityViolationError{Required: entry.Mode, Actual: callerMode}
	}

	perms := entry.Flags.Permissions()
	if !perms.Covers(required) {
		return &mem.PermissionDeniedError{Required: required, Actual: perms}
	}
	return nil
}

// MapRange maps ceil(size/pageSize) consecutive pages starting at
// virtBase onto the pages starting at physBase. Pages are mapped one at
// a time from the bottom; on the first conflict the error is returned
// and pages mapped so far STAY mapped. Callers that need atomicity
// check the range with Lookup first or unmap the prefix themselves.
func (t *Table) MapRange(virtBase, physBase mem.Addr, size uint64, flags Flags, mode mem.SecurityMode) error {
	pageCount := align.CeilDiv(size, t.pageSize)
	for i := uint64(0); i < pageCount; i++ {
		virt := virtBase + i*t.pageSize
		phys := physBase + i*t.pageSize
		if err := t.Map(virt, phys, flags, mode); err != nil {
			return err
		}
	}
	return nil
}

// UnmapRange unmaps ceil(size/pageSize) consecutive pages starting at
// virtBase, bottom up. On the first unmapped page the error is returned
// and pages removed so far STAY removed.
func (t *Table) UnmapRange(virtBase mem.Addr, size uint64) error {
	pageCount := align.CeilDiv(size, t.pageSize)
	for i := uint64(0); i < pageCount; i++ {
		if _, err := t.Unmap(virtBase + i*t.pageSize); err != nil {
			return err
		}
	}
	return nil
}

// EntryCount returns the number of live mappings.
func (t *Table) EntryCount() int { return len(t.entries) }

// PageSize returns the table's page size in bytes.
func (t *Table) PageSize() uint64 { return t.pageSize }

// Entries returns all mappings sorted by virtual address.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VirtualAddress < out[j].VirtualAddress
	})
	return out
}
