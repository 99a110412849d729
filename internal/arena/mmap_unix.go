//go:build linux || darwin
// +build linux darwin

package arena

import "golang.org/x/sys/unix"

// mapSparse backs an oversized allocation with an anonymous mapping
// instead of a Go-heap slice, keeping large scratch buffers (string
// builders, parsed token arrays) off the garbage collector's scan list.
func mapSparse(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

func unmapSparse(b []byte) error {
	return unix.Munmap(b)
}
