//go:build linux

package mmap

import (
	"golang.org/x/sys/unix"
)

func osRemap(m *Mapping, newSize int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mremap(m.data, newSize, unix.MREMAP_MAYMOVE)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}
