//go:build !(linux || darwin || freebsd)

package memory

// mapRegion falls back to a heap slice where anonymous mappings are not
// available through golang.org/x/sys/unix.
func mapRegion(size int) ([]byte, bool, error) {
	return make([]byte, size), false, nil
}

func unmapRegion(_ []byte) error {
	return nil
}
