//go:build !linux && !freebsd && !darwin && !windows

package phys

import (
	"context"
	"os"
)

// flushRanges writes each dirty range back through the file handle and
// syncs the file.
func flushRanges(ctx context.Context, f *os.File, data []byte, ranges []Range) error {
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := f.WriteAt(data[r.Off:r.End()], r.Off); err != nil {
			return err
		}
	}
	return f.Sync()
}
