package page

import (
	"strings"

	"github.com/memkit/memkit/mem"
)

// Flags is the per-page attribute bit set. The low bits follow the
// conventional x86-style layout; bits 9-11 carry the platform extension
// attributes and bit 63 is no-execute.
type Flags uint64

const (
	FlagPresent      Flags = 1 << 0 // mapping is usable for translation
	FlagWritable     Flags = 1 << 1 // writes allowed
	FlagUser         Flags = 1 << 2 // user-mode accessible
	FlagWriteThrough Flags = 1 << 3 // write-through caching
	FlagCacheDisable Flags = 1 << 4 // caching disabled
	FlagAccessed     Flags = 1 << 5 // page was read
	FlagDirty        Flags = 1 << 6 // page was written
	FlagHuge         Flags = 1 << 7 // large-page mapping
	FlagGlobal       Flags = 1 << 8 // survives address-space switches

	FlagCompute        Flags = 1 << 9  // usable by the compute engine
	FlagEncrypted      Flags = 1 << 10 // contents encrypted at rest
	FlagTimingCritical Flags = 1 << 11 // exempt from timing mitigation

	FlagNoExecute Flags = 1 << 63 // instruction fetch forbidden
)

// Present reports whether the mapping may be used for translation.
func (f Flags) Present() bool { return f&FlagPresent != 0 }

// Writable reports whether writes are allowed.
func (f Flags) Writable() bool { return f&FlagWritable != 0 }

// UserAccessible reports whether user-mode code may touch the page.
func (f Flags) UserAccessible() bool { return f&FlagUser != 0 }

// NoExecute reports whether instruction fetch is forbidden.
func (f Flags) NoExecute() bool { return f&FlagNoExecute != 0 }

// Compute reports whether the compute engine may use the page.
func (f Flags) Compute() bool { return f&FlagCompute != 0 }

// Encrypted reports whether the page contents are encrypted at rest.
func (f Flags) Encrypted() bool { return f&FlagEncrypted != 0 }

// TimingCritical reports whether the page is exempt from timing
// mitigation.
func (f Flags) TimingCritical() bool { return f&FlagTimingCritical != 0 }

// FromPermissions builds mapping flags for a present page granting p,
// marking it user-accessible when user is set. Execute permission is
// expressed through the absence of FlagNoExecute.
func FromPermissions(p mem.Permissions, user bool) Flags {
	f := FlagPresent
	if p.Write {
		f |= FlagWritable
	}
	if user {
		f |= FlagUser
	}
	if !p.Execute {
		f |= FlagNoExecute
	}
	if p.ComputeCapable {
		f |= FlagCompute
	}
	return f
}

// Permissions derives the effective permission set: readable when
// present, executable unless no-execute.
func (f Flags) Permissions() mem.Permissions {
	return mem.Permissions{
		Read:           f.Present(),
		Write:          f.Writable(),
		Execute:        !f.NoExecute(),
		ComputeCapable: f.Compute(),
	}
}

var flagNames = []struct {
	bit  Flags
	name string
}{
	{FlagPresent, "present"},
	{FlagWritable, "writable"},
	{FlagUser, "user"},
	{FlagWriteThrough, "write-through"},
	{FlagCacheDisable, "cache-disable"},
	{FlagAccessed, "accessed"},
	{FlagDirty, "dirty"},
	{FlagHuge, "huge"},
	{FlagGlobal, "global"},
	{FlagCompute, "compute"},
	{FlagEncrypted, "encrypted"},
	{FlagTimingCritical, "timing-critical"},
	{FlagNoExecute, "no-execute"},
}

// String lists the set bits joined with "|", or "none".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.bit != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
