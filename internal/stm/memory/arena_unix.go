//go:build linux || darwin || freebsd

package memory

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mapRegion maps an anonymous, private, zero-filled region.
func mapRegion(size int) ([]byte, bool, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, false, errors.Wrapf(err, "memory: mmap %d bytes", size)
	}
	return data, true, nil
}

func unmapRegion(data []byte) error {
	return unix.Munmap(data)
}
