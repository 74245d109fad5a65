//go:build !unix && !windows

package mmap

func osMap(uintptr, int, bool) ([]byte, func([]byte) error, error) {
	return nil, nil, ErrUnsupported
}

func osMapAnon(int) ([]byte, func([]byte) error, error) {
	return nil, nil, ErrUnsupported
}

func osSync([]byte) error {
	return ErrUnsupported
}

func osAdvise([]byte, AccessPattern) error {
	return nil
}
