//go:build linux || freebsd || darwin

package phys

import (
	"errors"
	"os"
	"syscall"
)

// mapFile maps the first size bytes of f read-write and shared, so
// stores land in the page cache directly and Sync only has to msync.
func mapFile(f *os.File, size int64) ([]byte, bool, error) {
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// unmapFile releases the mapping. A second unmap of the same region is
// treated as a no-op.
func unmapFile(data []byte) error {
	err := syscall.Munmap(data)
	if errors.Is(err, syscall.EINVAL) {
		return nil
	}
	return err
}
