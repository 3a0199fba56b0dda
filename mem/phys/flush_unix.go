//go:build linux || freebsd

package phys

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
)

// flushRanges msyncs each dirty range, then fdatasyncs the descriptor.
//
// Linux and FreeBSD accept msync on sub-slices of a mapping, so only
// the dirty pages are written.
func flushRanges(ctx context.Context, f *os.File, data []byte, ranges []Range) error {
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := unix.Msync(data[r.Off:r.End()], unix.MS_SYNC); err != nil {
			return err
		}
	}
	return unix.Fdatasync(int(f.Fd()))
}
