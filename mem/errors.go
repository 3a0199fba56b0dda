package mem

import (
	"errors"
	"fmt"
)

// Sentinel errors for the whole memory core. Operations either return
// these directly or return one of the typed errors below, each of which
// matches its sentinel under errors.Is. Callers switch on the kind with
// errors.Is and pull diagnostic fields out with errors.As.
var (
	// ErrOutOfMemory indicates no allocation of the requested shape is
	// possible (heap exhaustion, or no contiguous frame run).
	ErrOutOfMemory = errors.New("mem: out of memory")

	// ErrFrameExhausted indicates the frame bitmap has no free frame at all.
	ErrFrameExhausted = errors.New("mem: physical frames exhausted")

	// ErrInvalidAddress indicates an address outside the managed range or
	// one that does not name a live allocation.
	ErrInvalidAddress = errors.New("mem: invalid address")

	// ErrInvalidAlignment indicates a misaligned address or a degenerate
	// (zero-sized) request.
	ErrInvalidAlignment = errors.New("mem: invalid alignment")

	// ErrDoubleFree indicates a free of something already free.
	ErrDoubleFree = errors.New("mem: double free")

	// ErrRegionOverlap indicates a reservation or mapping collides with an
	// existing one.
	ErrRegionOverlap = errors.New("mem: region overlap")

	// ErrPageFault indicates a virtual address with no usable mapping.
	ErrPageFault = errors.New("mem: page fault")

	// ErrSecurityViolation indicates the caller's security mode may not
	// touch the mapping.
	ErrSecurityViolation = errors.New("mem: security mode violation")

	// ErrPermissionDenied indicates the mapping lacks a requested
	// permission bit.
	ErrPermissionDenied = errors.New("mem: permission denied")

	// ErrHeapCorruption indicates heap bookkeeping failed an integrity
	// check.
	ErrHeapCorruption = errors.New("mem: heap corruption detected")
)

// InvalidAddressError carries the offending address.
type InvalidAddressError struct {
	Address Addr
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("mem: invalid address 0x%x", e.Address)
}

func (e *InvalidAddressError) Is(target error) bool { return target == ErrInvalidAddress }

// InvalidAlignmentError carries the misaligned address, the rejected
// alignment value for malformed alignment arguments, or 0 for degenerate
// zero-sized requests.
type InvalidAlignmentError struct {
	Address Addr
}

func (e *InvalidAlignmentError) Error() string {
	return fmt.Sprintf("mem: invalid alignment 0x%x", e.Address)
}

func (e *InvalidAlignmentError) Is(target error) bool { return target == ErrInvalidAlignment }

// DoubleFreeError carries the address that was freed twice.
type DoubleFreeError struct {
	Address Addr
}

func (e *DoubleFreeError) Error() string {
	return fmt.Sprintf("mem: double free at 0x%x", e.Address)
}

func (e *DoubleFreeError) Is(target error) bool { return target == ErrDoubleFree }

// RegionOverlapError carries the base and size of the conflicting range.
type RegionOverlapError struct {
	Base Addr
	Size uint64
}

func (e *RegionOverlapError) Error() string {
	return fmt.Sprintf("mem: region overlap at 0x%x size %d", e.Base, e.Size)
}

func (e *RegionOverlapError) Is(target error) bool { return target == ErrRegionOverlap }

// PageFaultError carries the faulting virtual address exactly as the
// caller supplied it, before page truncation.
type PageFaultError struct {
	Address Addr
}

func (e *PageFaultError) Error() string {
	return fmt.Sprintf("mem: page fault at 0x%x", e.Address)
}

func (e *PageFaultError) Is(target error) bool { return target == ErrPageFault }

// SecurityViolationError carries the mapping's required mode and the
// caller's actual mode.
type SecurityViolationError struct {
	Required SecurityMode
	Actual   SecurityMode
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("mem: security mode violation (required %v, actual %v)", e.Required, e.Actual)
}

func (e *SecurityViolationError) Is(target error) bool { return target == ErrSecurityViolation }

// PermissionDeniedError carries the requested permissions and what the
// mapping actually grants.
type PermissionDeniedError struct {
	Required Permissions
	Actual   Permissions
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("mem: permission denied (required %s, actual %s)", e.Required, e.Actual)
}

func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }
