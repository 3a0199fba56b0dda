//go:build windows

package phys

import (
	"context"
	"os"

	"golang.org/x/sys/windows"
)

// flushRanges writes each dirty range back through the file handle,
// then flushes the file buffers to disk.
func flushRanges(ctx context.Context, f *os.File, data []byte, ranges []Range) error {
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := f.WriteAt(data[r.Off:r.End()], r.Off); err != nil {
			return err
		}
	}
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
