// Package mmap provides read-only memory-mapped file access.
//
// # Usage
//
//	m, err := mmap.Open("numbers/000001.bgl")
//	if err != nil { ... }
//	defer m.Close()
//
//	// Zero-copy access to file contents
//	data := m.Bytes()
//
//	// A view into a byte range, valid until m is closed
//	region, _ := m.Region(offset, size)
//
//	// Kernel hint for a front-to-back decode
//	m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (Advise is a no-op)
//
// # Thread Safety
//
// Mapping and Region are safe for concurrent read access. Close is
// idempotent. Callers must ensure no goroutine touches a slice returned by
// Bytes after Close returns.
package mmap
