package mem

// Addr is a physical or virtual address in the simulated machine.
// It is an alias rather than a defined type so address arithmetic with
// plain uint64 sizes needs no conversions.
type Addr = uint64

// DefaultPageSize is the page and frame size used when a caller does not
// supply one. Both allocators and the page table accept custom sizes; the
// page table additionally requires a power of two.
const DefaultPageSize uint64 = 4096

// Permissions describes what a mapping or region allows. The zero value
// permits nothing.
type Permissions struct {
	Read           bool
	Write          bool
	Execute        bool
	ComputeCapable bool
}

// ReadOnly returns read-only data permissions.
func ReadOnly() Permissions {
	return Permissions{Read: true}
}

// ReadWrite returns ordinary writable-data permissions.
func ReadWrite() Permissions {
	return Permissions{Read: true, Write: true}
}

// ReadExecute returns code permissions (readable and executable, never
// writable).
func ReadExecute() Permissions {
	return Permissions{Read: true, Execute: true}
}

// ComputeRW returns writable-data permissions for compute-capable
// regions.
func ComputeRW() Permissions {
	return Permissions{Read: true, Write: true, ComputeCapable: true}
}

// AllAccess returns every permission bit set. Intended for kernel-owned
// mappings and tests.
func AllAccess() Permissions {
	return Permissions{Read: true, Write: true, Execute: true, ComputeCapable: true}
}

// NoAccess returns the empty permission set.
func NoAccess() Permissions {
	return Permissions{}
}

// Covers reports whether p grants everything required asks for.
func (p Permissions) Covers(required Permissions) bool {
	if required.Read && !p.Read {
		return false
	}
	if required.Write && !p.Write {
		return false
	}
	if required.Execute && !p.Execute {
		return false
	}
	if required.ComputeCapable && !p.ComputeCapable {
		return false
	}
	return true
}

// String renders the set in ls-style "rwxc" notation, e.g. "rw-c".
func (p Permissions) String() string {
	b := [4]byte{'-', '-', '-', '-'}
	if p.Read {
		b[0] = 'r'
	}
	if p.Write {
		b[1] = 'w'
	}
	if p.Execute {
		b[2] = 'x'
	}
	if p.ComputeCapable {
		b[3] = 'c'
	}
	return string(b[:])
}

// SecurityMode classifies who may touch a mapping. The page table treats
// modes as opaque and only ever asks the caller's mode whether it may
// access the mapping's mode, so consumers can plug in their own
// classification scheme.
type SecurityMode interface {
	// CanAccess reports whether a holder of this mode may access memory
	// tagged with target.
	CanAccess(target SecurityMode) bool
}

// Level is the default SecurityMode implementation: a simple ordered
// privilege lattice where higher levels access everything at or below
// their own level.
type Level uint8

const (
	// LevelRestricted is the quarantine level - it may only touch other
	// restricted memory.
	LevelRestricted Level = 1

	// LevelStandard is the ordinary operating level.
	LevelStandard Level = 2

	// LevelPrivileged is the maximum level and may access everything.
	LevelPrivileged Level = 3
)

// CanAccess implements SecurityMode. Targets that are not Levels are
// denied; mixing classification schemes at a single mapping is a
// configuration error, and denying is the conservative answer.
func (l Level) CanAccess(target SecurityMode) bool {
	t, ok := target.(Level)
	if !ok {
		return false
	}
	return l >= t
}

func (l Level) String() string {
	switch l {
	case LevelRestricted:
		return "restricted"
	case LevelStandard:
		return "standard"
	case LevelPrivileged:
		return "privileged"
	default:
		return "unknown"
	}
}

// RegionType tags what a physical region is used for.
type RegionType uint8

const (
	RegionFree RegionType = iota
	RegionKernelCode
	RegionKernelData
	RegionKernelStack
	RegionUserCode
	RegionUserData
	RegionUserStack
	RegionCompute
	RegionEncrypted
	RegionTimingCritical
	RegionMMIO
	RegionReserved
)

func (t RegionType) String() string {
	switch t {
	case RegionFree:
		return "free"
	case RegionKernelCode:
		return "kernel-code"
	case RegionKernelData:
		return "kernel-data"
	case RegionKernelStack:
		return "kernel-stack"
	case RegionUserCode:
		return "user-code"
	case RegionUserData:
		return "user-data"
	case RegionUserStack:
		return "user-stack"
	case RegionCompute:
		return "compute"
	case RegionEncrypted:
		return "encrypted"
	case RegionTimingCritical:
		return "timing-critical"
	case RegionMMIO:
		return "mmio"
	case RegionReserved:
		return "reserved"
	default:
		return "invalid"
	}
}

// Region describes one physical memory range and how it may be used.
// The frame allocator records reserved regions so diagnostics can explain
// why frames are unavailable.
type Region struct {
	Base        Addr
	Size        uint64
	Type        RegionType
	Mode        SecurityMode
	Permissions Permissions
}

// End returns the first address past the region.
func (r Region) End() Addr {
	return r.Base + r.Size
}

// Contains reports whether addr falls inside the region.
func (r Region) Contains(addr Addr) bool {
	return addr >= r.Base && addr < r.Base+r.Size
}

// Stats is a point-in-time snapshot of memory usage. Frame fields come
// from the frame allocator; the heap fields are filled in by callers that
// also run a heap.
type Stats struct {
	TotalFrames int
	FreeFrames  int
	UsedFrames  int

	PageSize   uint64
	TotalBytes uint64
	FreeBytes  uint64
	UsedBytes  uint64

	HeapAllocated uint64
	HeapFree      uint64
}
