package mmap

import "bytes"

// Region is a byte range of a Mapping. It is valid until the mapping is
// closed.
type Region struct {
	parent    *Mapping
	offset, n int64
}

// Region returns the range [offset, offset+size) of the mapping.
func (m *Mapping) Region(offset, size int64) (*Region, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset > m.Size()-size {
		return nil, ErrOutOfBounds
	}
	return &Region{parent: m, offset: offset, n: size}, nil
}

// Bytes returns the region's data, or nil once the mapping is closed.
func (r *Region) Bytes() []byte {
	data := r.parent.Bytes()
	if data == nil {
		return nil
	}
	return data[r.offset : r.offset+r.n]
}

// Reader returns a reader over the region.
func (r *Region) Reader() (*bytes.Reader, error) {
	if r.parent.closed.Load() {
		return nil, ErrClosed
	}
	return bytes.NewReader(r.Bytes()), nil
}

// Advise passes an access hint for the region to the kernel.
func (r *Region) Advise(pattern AccessPattern) error {
	data := r.parent.Bytes()
	if data == nil && r.parent.closed.Load() {
		return ErrClosed
	}
	return osAdvise(data[r.offset:r.offset+r.n], pattern)
}

// Offset returns the start of the region within its mapping.
func (r *Region) Offset() int64 { return r.offset }

// Size returns the length of the region in bytes.
func (r *Region) Size() int64 { return r.n }
