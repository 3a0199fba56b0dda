// Package mem defines the shared vocabulary of the memkit memory core:
// addresses, permissions, security modes, regions, usage statistics, and
// the error taxonomy every component returns.
//
// # Overview
//
// memkit models the memory subsystem of a small kernel as ordinary Go
// data structures, so allocation policy and translation behavior can be
// exercised, inspected, and unit-tested without any hardware or unsafe
// code. The subsystem is layered:
//
//   - mem/frame: physical frame accounting with a bitmap allocator
//   - mem/heap:  dynamic allocation with a best-fit free list (plus a
//     trivial bump allocator for boot-style phases)
//   - mem/page:  virtual-to-physical mapping with permission and
//     security-mode enforcement
//   - mem/phys:  the simulated RAM image itself, optionally file-backed
//
// The layers share this package and nothing else; composing them (for
// example allocating a frame, zeroing it in the image, then mapping it)
// is the caller's job, and a failure in one step never rolls back
// another.
//
// # Error Handling
//
// Every failure maps to one sentinel in this package. Errors that carry
// context (the faulting address, the conflicting range, the permission
// sets involved) are typed errors that match their sentinel under
// errors.Is:
//
//	_, err := table.Translate(va)
//	if errors.Is(err, mem.ErrPageFault) {
//	    var pf *mem.PageFaultError
//	    if errors.As(err, &pf) {
//	        handleFault(pf.Address)
//	    }
//	}
//
// # Security Model
//
// Mappings and regions are tagged with a SecurityMode. The core never
// interprets modes; it only asks the caller's mode whether it CanAccess
// the mapping's mode. Level provides the default three-step privilege
// lattice (restricted < standard < privileged). Access checks report
// security violations before permission problems, so a probe cannot use
// the error kind to learn the permissions of memory it may not see.
//
// # Thread Safety
//
// Nothing in this package or its subpackages locks internally. Every
// allocator and table is single-owner; callers that share one across
// goroutines wrap it with their own mutex.
package mem
