//go:build !linux && !freebsd && !darwin

package phys

import (
	"io"
	"os"
)

// mapFile loads the first size bytes of f into a heap buffer. Platforms
// without the mmap path write dirty ranges back through the file
// handle on Sync instead.
func mapFile(f *os.File, size int64) ([]byte, bool, error) {
	data := make([]byte, size)
	// ReadAt may return io.EOF alongside a full read.
	if n, err := f.ReadAt(data, 0); err != nil && !(n == len(data) && err == io.EOF) {
		return nil, false, err
	}
	return data, false, nil
}

func unmapFile(_ []byte) error {
	return nil
}
