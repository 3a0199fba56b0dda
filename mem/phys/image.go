package phys

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"golang.org/x/text/encoding/charmap"

	"github.com/memkit/memkit/mem"
)

// Image is a contiguous span of simulated physical memory, addressed
// from a fixed base. It is either anonymous (a plain buffer) or backed
// by a file, in which case writes are tracked and flushed to disk by
// Sync.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Image struct {
	data    []byte
	f       *os.File // nil for anonymous images
	base    mem.Addr
	mapped  bool // data is an OS mapping rather than a heap buffer
	tracker *Tracker
}

// New creates an anonymous image of size bytes starting at base. The
// contents are zeroed. Sync on an anonymous image is a no-op.
func New(base mem.Addr, size uint64) *Image {
	return &Image{
		data:    make([]byte, size),
		base:    base,
		tracker: NewTracker(),
	}
}

// Open creates or opens a file-backed image at path.
//
// If size is non-zero the file is extended to at least size bytes and
// the first size bytes are mapped. If size is zero the file must
// already exist and its current size is used. New files start zeroed,
// so a freshly created image reads as all zero bytes.
func Open(path string, base mem.Addr, size uint64) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if size == 0 {
		if info.Size() == 0 {
			f.Close()
			return nil, fmt.Errorf("phys: %s is empty and no size was given", path)
		}
		size = uint64(info.Size())
	}
	if size > uint64(int64(^uint(0)>>1)) {
		f.Close()
		return nil, fmt.Errorf("phys: image too large to map (%d bytes)", size)
	}
	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, err
		}
	}

	data, mapped, err := mapFile(f, int64(size))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Image{
		data:    data,
		f:       f,
		base:    base,
		mapped:  mapped,
		tracker: NewTracker(),
	}, nil
}

// Close releases the mapping (if any) and closes the backing file.
// Dirty ranges that were never synced are not flushed. Close is safe to
// call more than once.
func (i *Image) Close() error {
	var mapErr error
	if i.mapped && i.data != nil {
		mapErr = unmapFile(i.data)
	}
	i.data = nil
	i.mapped = false

	if i.f == nil {
		return mapErr
	}
	closeErr := i.f.Close()
	i.f = nil
	if mapErr != nil {
		return mapErr
	}
	return closeErr
}

// Base returns the address of the first byte of the image.
func (i *Image) Base() mem.Addr {
	return i.base
}

// Size returns the image size in bytes.
func (i *Image) Size() uint64 {
	return uint64(len(i.data))
}

// End returns the first address past the image.
func (i *Image) End() mem.Addr {
	return i.base + uint64(len(i.data))
}

// Contains reports whether addr falls inside the image.
func (i *Image) Contains(addr mem.Addr) bool {
	return addr >= i.base && addr < i.End()
}

// Bytes returns the raw image buffer. Writes through the returned slice
// bypass dirty tracking and will not be picked up by Sync.
func (i *Image) Bytes() []byte {
	return i.data
}

// offsetOf validates that [addr, addr+n) lies inside the image and
// returns the buffer offset of addr.
func (i *Image) offsetOf(addr mem.Addr, n uint64) (int, error) {
	if addr < i.base {
		return 0, &mem.InvalidAddressError{Address: addr}
	}
	off := addr - i.base
	if off > uint64(len(i.data)) || n > uint64(len(i.data))-off {
		return 0, &mem.InvalidAddressError{Address: addr}
	}
	return int(off), nil
}

// ReadAt copies len(p) bytes starting at addr into p. The whole span
// must lie inside the image or InvalidAddress is returned and p is left
// untouched.
func (i *Image) ReadAt(addr mem.Addr, p []byte) error {
	off, err := i.offsetOf(addr, uint64(len(p)))
	if err != nil {
		return err
	}
	copy(p, i.data[off:])
	return nil
}

// WriteAt copies p into the image starting at addr and marks the span
// dirty. The whole span must lie inside the image or InvalidAddress is
// returned and nothing is written.
func (i *Image) WriteAt(addr mem.Addr, p []byte) error {
	off, err := i.offsetOf(addr, uint64(len(p)))
	if err != nil {
		return err
	}
	copy(i.data[off:], p)
	i.tracker.Add(off, len(p))
	return nil
}

// Fill sets n bytes starting at addr to b and marks the span dirty.
func (i *Image) Fill(addr mem.Addr, n uint64, b byte) error {
	off, err := i.offsetOf(addr, n)
	if err != nil {
		return err
	}
	seg := i.data[off : off+int(n)]
	for idx := range seg {
		seg[idx] = b
	}
	if n > 0 {
		i.tracker.Add(off, int(n))
	}
	return nil
}

// ReadCString reads a NUL-terminated string starting at addr, scanning
// at most max bytes. Bytes above 0x7F are decoded as Latin-1.
func (i *Image) ReadCString(addr mem.Addr, max int) (string, error) {
	if max <= 0 {
		return "", fmt.Errorf("phys: string scan limit must be positive, got %d", max)
	}
	off, err := i.offsetOf(addr, 0)
	if err != nil {
		return "", err
	}
	limit := off + max
	if limit > len(i.data) {
		limit = len(i.data)
	}
	seg := i.data[off:limit]

	idx := bytes.IndexByte(seg, 0)
	if idx < 0 {
		return "", fmt.Errorf("phys: no NUL terminator within %d bytes of 0x%x", max, addr)
	}
	return decodeLatin1(seg[:idx])
}

// WriteCString encodes s as Latin-1, appends a NUL terminator, and
// writes it at addr. Strings containing runes outside Latin-1 are
// rejected.
func (i *Image) WriteCString(addr mem.Addr, s string) error {
	encoded, err := encodeLatin1(s)
	if err != nil {
		return err
	}
	return i.WriteAt(addr, append(encoded, 0))
}

// DirtyRanges returns the page-aligned, coalesced ranges written since
// the last Sync or ResetDirty. These are exactly the ranges the next
// Sync will flush.
func (i *Image) DirtyRanges() []Range {
	ranges := i.tracker.Ranges()
	i.clampTail(ranges)
	return ranges
}

// ResetDirty discards all dirty marks without flushing them.
func (i *Image) ResetDirty() {
	i.tracker.Reset()
}

// Sync flushes all dirty ranges to the backing file and clears the
// dirty set. On an anonymous image it only clears the dirty set.
//
// The context can cancel a flush between ranges; ranges flushed before
// the cancellation stay flushed and stay marked dirty for the next
// Sync.
func (i *Image) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ranges := i.tracker.Ranges()
	if i.f == nil || len(ranges) == 0 {
		i.tracker.Reset()
		return nil
	}
	i.clampTail(ranges)
	if err := flushRanges(ctx, i.f, i.data, ranges); err != nil {
		return err
	}
	i.tracker.Reset()
	return nil
}

// clampTail trims the last range to the image size. Coalescing rounds
// range ends up to page boundaries, which can overshoot an image whose
// size is not a page multiple.
func (i *Image) clampTail(ranges []Range) {
	if len(ranges) == 0 {
		return
	}
	last := &ranges[len(ranges)-1]
	if last.End() > int64(len(i.data)) {
		last.Len = int64(len(i.data)) - last.Off
	}
}

// isASCII reports whether b contains only 7-bit bytes, the common case
// that needs no charset decoding.
func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

func decodeLatin1(b []byte) (string, error) {
	if isASCII(b) {
		return string(b), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("phys: decode string: %w", err)
	}
	return string(decoded), nil
}

func encodeLatin1(s string) ([]byte, error) {
	if isASCII([]byte(s)) {
		return []byte(s), nil
	}
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("phys: encode string: %w", err)
	}
	return encoded, nil
}
