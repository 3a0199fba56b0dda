// Package phys backs simulated physical memory with real storage, either
// an anonymous buffer or a memory-mapped file.
//
// # Overview
//
// An Image is a contiguous span of byte-addressable memory starting at a
// fixed base address. The frame and heap allocators hand out addresses;
// an Image gives those addresses actual contents:
//
//	img := phys.New(0, 1<<20)
//	_ = img.WriteAt(0x1000, payload)
//
// A file-backed image persists across runs:
//
//	img, err := phys.Open("mem.img", 0, 1<<20)
//	if err != nil { ... }
//	defer img.Close()
//	_ = img.WriteAt(0x1000, payload)
//	_ = img.Sync(ctx)
//
// # Dirty Tracking
//
// Every WriteAt, Fill, and WriteCString records the touched span in a
// dirty tracker. The tracker works at 4KB OS page granularity: a 1-byte
// write marks its whole page dirty, and adjacent or overlapping pages
// are merged when the ranges are read back:
//
//	dirty pages [0, 1, 2, 5, 6] -> ranges [0x0-0x3000, 0x5000-0x7000]
//
// Sync flushes exactly those ranges, so small working sets commit
// without rewriting the whole image.
//
// # Durability
//
// On Linux and FreeBSD, Sync msyncs each dirty range and then calls
// fdatasync. On macOS the whole mapping is msynced (sub-range msync is
// not portable there) followed by F_FULLFSYNC. On Windows and other
// platforms the image lives in a heap buffer and Sync writes dirty
// ranges back through the file handle.
//
// # Strings
//
// ReadCString and WriteCString move NUL-terminated strings in and out of
// the image. Raw memory carries no encoding, so bytes above 0x7F are
// treated as Latin-1, which maps every byte value to a rune and back.
package phys
