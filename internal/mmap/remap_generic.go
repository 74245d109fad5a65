//go:build !linux

package mmap

// osRemap establishes the new mapping before releasing the old one so that a
// failure leaves m untouched.
func osRemap(m *Mapping, newSize int) ([]byte, func([]byte) error, error) {
	var (
		data      []byte
		unmapFunc func([]byte) error
		err       error
	)
	if m.Anonymous() {
		data, unmapFunc, err = osMapAnon(newSize)
	} else {
		data, unmapFunc, err = osMap(m.fd, newSize, m.writable)
	}
	if err != nil {
		return nil, nil, err
	}

	// Shared file mappings already observe the same pages.
	if m.Anonymous() {
		copy(data, m.data)
	}

	if err := m.unmap(m.data); err != nil {
		_ = unmapFunc(data)
		return nil, nil, err
	}
	return data, unmapFunc, nil
}
