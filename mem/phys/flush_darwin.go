//go:build darwin

package phys

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
)

// flushRanges flushes the whole mapping.
//
// On macOS, msync requires the address to match the original mmap
// address, so sub-slices cannot be flushed individually. The kernel
// only writes pages that are actually dirty. F_FULLFSYNC then pushes
// the data past the drive cache.
func flushRanges(ctx context.Context, f *os.File, data []byte, _ []Range) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := unix.Msync(data, unix.MS_SYNC); err != nil {
		return err
	}
	_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
	return err
}
