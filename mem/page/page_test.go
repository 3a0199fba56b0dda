package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memkit/memkit/mem"
)

func rwFlags() Flags { return FlagPresent | FlagWritable }

func TestNew_Defaults(t *testing.T) {
	pt := New()
	assert.Equal(t, mem.DefaultPageSize, pt.PageSize())
	assert.Equal(t, 0, pt.EntryCount())
}

func TestNewWithPageSize_RejectsBadSizes(t *testing.T) {
	assert.Panics(t, func() { NewWithPageSize(0) })
	assert.Panics(t, func() { NewWithPageSize(2187) }, "page size must be a power of two")
	assert.NotPanics(t, func() { NewWithPageSize(8192) })
}

func TestMapAndTranslate(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x1000, 0x2000, rwFlags(), mem.LevelStandard))

	phys, err := pt.Translate(0x1000)
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(0x2000), phys)
}

// TestTranslate_PreservesOffset verifies the page offset carries over to
// the physical address.
func TestTranslate_PreservesOffset(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x0, 0x10000, rwFlags(), mem.LevelStandard))

	phys, err := pt.Translate(0x100)
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(0x10100), phys)

	phys, err = pt.Translate(0xfff)
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(0x10fff), phys)
}

func TestTranslate_Unmapped(t *testing.T) {
	pt := New()
	_, err := pt.Translate(0x5000)
	assert.ErrorIs(t, err, mem.ErrPageFault)

	var pf *mem.PageFaultError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, mem.Addr(0x5000), pf.Address)
}

// TestTranslate_NotPresent verifies an entry without the present bit
// faults exactly like a missing one.
func TestTranslate_NotPresent(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x1000, 0x2000, FlagWritable, mem.LevelStandard))

	_, err := pt.Translate(0x1000)
	assert.ErrorIs(t, err, mem.ErrPageFault)
}

// TestMap_TruncatesAddresses verifies both addresses are aligned down to
// their page boundary before the entry is stored.
func TestMap_TruncatesAddresses(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x1234, 0x5678, rwFlags(), mem.LevelStandard))

	entry, ok := pt.Lookup(0x1000)
	require.True(t, ok)
	assert.Equal(t, mem.Addr(0x1000), entry.VirtualAddress)
	assert.Equal(t, mem.Addr(0x5000), entry.PhysicalAddress)

	phys, err := pt.Translate(0x1234)
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(0x5234), phys, "offset is taken from the aligned page base")
}

func TestMap_DuplicateFails(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x1000, 0x2000, FlagPresent, mem.LevelStandard))

	err := pt.Map(0x1000, 0x3000, FlagPresent, mem.LevelStandard)
	assert.ErrorIs(t, err, mem.ErrRegionOverlap)
	var ov *mem.RegionOverlapError
	require.ErrorAs(t, err, &ov)
	assert.Equal(t, mem.Addr(0x1000), ov.Base)
	assert.Equal(t, mem.DefaultPageSize, ov.Size)

	// A different offset into the same page is still the same page.
	err = pt.Map(0x1800, 0x3000, FlagPresent, mem.LevelStandard)
	assert.ErrorIs(t, err, mem.ErrRegionOverlap)

	phys, err := pt.Translate(0x1000)
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(0x2000), phys, "original mapping must survive rejected remaps")
}

func TestUnmap(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x1000, 0x2000, rwFlags(), mem.LevelStandard))
	require.Equal(t, 1, pt.EntryCount())

	entry, err := pt.Unmap(0x1000)
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(0x1000), entry.VirtualAddress)
	assert.Equal(t, mem.Addr(0x2000), entry.PhysicalAddress)
	assert.Equal(t, 0, pt.EntryCount())

	_, err = pt.Translate(0x1000)
	assert.ErrorIs(t, err, mem.ErrPageFault)
}

// TestUnmap_FaultCarriesQueryAddress verifies the error reports the
// address as the caller gave it, not the truncated page base.
func TestUnmap_FaultCarriesQueryAddress(t *testing.T) {
	pt := New()
	_, err := pt.Unmap(0x1abc)
	assert.ErrorIs(t, err, mem.ErrPageFault)

	var pf *mem.PageFaultError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, mem.Addr(0x1abc), pf.Address)
}

func TestLookup(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x1000, 0x2000, FlagPresent|FlagCompute, mem.LevelStandard))

	entry, ok := pt.Lookup(0x1000)
	require.True(t, ok)
	assert.True(t, entry.Flags.Compute())
	assert.Equal(t, mem.LevelStandard, entry.Mode)

	// Lookup ignores presence and permissions.
	_, ok = pt.Lookup(0x1fff)
	assert.True(t, ok, "any offset within the page resolves")
	_, ok = pt.Lookup(0x2000)
	assert.False(t, ok)
}

func TestCheckAccess_SecurityGate(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x1000, 0x2000, rwFlags(), mem.LevelPrivileged))

	require.NoError(t, pt.CheckAccess(0x1000, mem.ReadOnly(), mem.LevelPrivileged))

	err := pt.CheckAccess(0x1000, mem.ReadOnly(), mem.LevelRestricted)
	assert.ErrorIs(t, err, mem.ErrSecurityViolation)
	var sv *mem.SecurityViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, mem.LevelPrivileged, sv.Required)
	assert.Equal(t, mem.LevelRestricted, sv.Actual)
}

func TestCheckAccess_PermissionGate(t *testing.T) {
	pt := New()
	// Present with execute forbidden: effectively read-only.
	require.NoError(t, pt.Map(0x1000, 0x2000, FlagPresent|FlagNoExecute, mem.LevelStandard))

	err := pt.CheckAccess(0x1000, mem.ReadWrite(), mem.LevelPrivileged)
	assert.ErrorIs(t, err, mem.ErrPermissionDenied)

	var pd *mem.PermissionDeniedError
	require.ErrorAs(t, err, &pd)
	assert.Equal(t, mem.ReadWrite(), pd.Required)
	assert.Equal(t, mem.ReadOnly(), pd.Actual)

	require.NoError(t, pt.CheckAccess(0x1000, mem.ReadOnly(), mem.LevelStandard))
}

// TestCheckAccess_GateOrder pins the check order: fault before security,
// security before permissions.
func TestCheckAccess_GateOrder(t *testing.T) {
	pt := New()

	// Unmapped page: always a fault, whatever the mode.
	err := pt.CheckAccess(0x9000, mem.ReadWrite(), mem.LevelRestricted)
	assert.ErrorIs(t, err, mem.ErrPageFault)

	// Mapped read-only privileged page, restricted caller asking for a
	// write: the security gate fires first, hiding the permission bits.
	require.NoError(t, pt.Map(0x1000, 0x2000, FlagPresent|FlagNoExecute, mem.LevelPrivileged))
	err = pt.CheckAccess(0x1000, mem.ReadWrite(), mem.LevelRestricted)
	assert.ErrorIs(t, err, mem.ErrSecurityViolation)
	assert.NotErrorIs(t, err, mem.ErrPermissionDenied)
}

func TestMapRange(t *testing.T) {
	pt := New()
	require.NoError(t, pt.MapRange(0x0, 0x10000, 4096*4, rwFlags(), mem.LevelStandard))
	require.Equal(t, 4, pt.EntryCount())

	for i := uint64(0); i < 4; i++ {
		phys, err := pt.Translate(i * 4096)
		require.NoError(t, err)
		assert.Equal(t, mem.Addr(0x10000+i*4096), phys)
	}

	// Partial last page still maps a whole page.
	require.NoError(t, pt.MapRange(0x100000, 0x20000, 4096+1, rwFlags(), mem.LevelStandard))
	assert.Equal(t, 6, pt.EntryCount())
}

func TestUnmapRange(t *testing.T) {
	pt := New()
	require.NoError(t, pt.MapRange(0x0, 0x10000, 4096*4, FlagPresent, mem.LevelStandard))
	require.NoError(t, pt.UnmapRange(0x0, 4096*4))
	assert.Equal(t, 0, pt.EntryCount())
}

// TestMapRange_PartialEffectOnConflict documents the range semantics:
// pages mapped before the conflict stay mapped.
func TestMapRange_PartialEffectOnConflict(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x2000, 0x30000, FlagPresent, mem.LevelStandard))

	err := pt.MapRange(0x0, 0x10000, 4096*4, rwFlags(), mem.LevelStandard)
	assert.ErrorIs(t, err, mem.ErrRegionOverlap)
	var ov *mem.RegionOverlapError
	require.ErrorAs(t, err, &ov)
	assert.Equal(t, mem.Addr(0x2000), ov.Base)

	// Pages 0 and 1 were mapped before the conflict at page 2; page 3
	// was never reached.
	assert.Equal(t, 3, pt.EntryCount())
	_, err = pt.Translate(0x0)
	assert.NoError(t, err)
	_, err = pt.Translate(0x1000)
	assert.NoError(t, err)
	_, ok := pt.Lookup(0x3000)
	assert.False(t, ok)

	// The pre-existing mapping is untouched.
	phys, err := pt.Translate(0x2000)
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(0x30000), phys)
}

// TestUnmapRange_PartialEffectOnFault documents the mirror-image
// behavior for unmapping: pages removed before the fault stay removed.
func TestUnmapRange_PartialEffectOnFault(t *testing.T) {
	pt := New()
	require.NoError(t, pt.MapRange(0x0, 0x10000, 4096*4, FlagPresent, mem.LevelStandard))
	_, err := pt.Unmap(0x2000)
	require.NoError(t, err)

	err = pt.UnmapRange(0x0, 4096*4)
	assert.ErrorIs(t, err, mem.ErrPageFault)
	var pf *mem.PageFaultError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, mem.Addr(0x2000), pf.Address)

	assert.Equal(t, 1, pt.EntryCount(), "pages 0-1 removed, page 3 still mapped")
	_, ok := pt.Lookup(0x3000)
	assert.True(t, ok)
}

func TestEntries_SortedByVirtual(t *testing.T) {
	pt := New()
	require.NoError(t, pt.Map(0x5000, 0x1000, FlagPresent, mem.LevelStandard))
	require.NoError(t, pt.Map(0x1000, 0x2000, FlagPresent, mem.LevelStandard))
	require.NoError(t, pt.Map(0x3000, 0x3000, FlagPresent, mem.LevelStandard))

	entries := pt.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, mem.Addr(0x1000), entries[0].VirtualAddress)
	assert.Equal(t, mem.Addr(0x3000), entries[1].VirtualAddress)
	assert.Equal(t, mem.Addr(0x5000), entries[2].VirtualAddress)
}

// TestCustomPageSize exercises an 8KiB table end to end.
func TestCustomPageSize(t *testing.T) {
	pt := NewWithPageSize(8192)
	require.NoError(t, pt.Map(0x4000, 0x10000, rwFlags(), mem.LevelStandard))

	// 0x5000 is inside the 8KiB page starting at 0x4000.
	phys, err := pt.Translate(0x5000)
	require.NoError(t, err)
	assert.Equal(t, mem.Addr(0x11000), phys)

	// 0x6000 would be a second 4KiB page but is still the same 8KiB one.
	err = pt.Map(0x6000, 0x20000, rwFlags(), mem.LevelStandard)
	assert.ErrorIs(t, err, mem.ErrRegionOverlap)
}
