package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/biglist"
	"github.com/hupe1980/biglist/internal/conv"
)

// windowBytes bounds the scratch buffers of Encode and Decode.
const windowBytes = 64 << 10

// checker is implemented by sequences that can go stale, such as
// biglist.SubList.
type checker interface {
	Check() error
}

// Encode writes seq to w as a header, seq.Len() little-endian elements and a
// CRC32C trailer. It returns the number of bytes written.
//
// The sequence must not change length while it is encoded. A stale SubList
// fails with biglist.ErrConcurrentModification before anything is written.
func Encode[T biglist.Element](w io.Writer, seq biglist.Sequence[T]) (int64, error) {
	if c, ok := seq.(checker); ok {
		if err := c.Check(); err != nil {
			return 0, err
		}
	}
	cw := NewChecksumWriter(w)
	count := seq.Len()
	if err := writeHeader(cw, headerFor[T](count)); err != nil {
		return cw.Written(), err
	}

	width := conv.Width[T]()
	buf := make([]byte, 0, windowBytes/width*width)

	var n int64
	for v := range seq.Values() {
		buf = conv.AppendLittleEndian(buf, v)
		n++
		if len(buf) == cap(buf) {
			if _, err := cw.Write(buf); err != nil {
				return cw.Written(), err
			}
			buf = buf[:0]
		}
	}
	if _, err := cw.Write(buf); err != nil {
		return cw.Written(), err
	}
	if n != count {
		return cw.Written(), fmt.Errorf("%w: sequence yielded %d of %d elements",
			biglist.ErrConcurrentModification, n, count)
	}

	trailer := binary.LittleEndian.AppendUint32(nil, cw.Sum())
	written, err := w.Write(trailer)
	return cw.Written() + int64(written), err
}

// EncodedSize returns the number of bytes Encode writes for count elements
// of type T.
func EncodedSize[T biglist.Element](count int64) int64 {
	return HeaderSize + count*int64(conv.Width[T]()) + TrailerSize
}

// Decode reads a stream written by Encode into a new list configured with
// opts. The element type must match the one the stream was written with.
//
// The element count in the header is not trusted: memory grows with the data
// actually read, never ahead of it by more than one buffer window.
func Decode[T biglist.Element](r io.Reader, opts ...biglist.Option) (*biglist.BigList[T], error) {
	cr := NewChecksumReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := validate[T](h); err != nil {
		return nil, err
	}

	count, err := conv.Uint64ToInt64(h.Count)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	list := biglist.New[T](opts...)
	if err := decodeStream(cr, count, list); err != nil {
		return nil, err
	}

	var trailer [TrailerSize]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return nil, truncated("trailer", err)
	}
	if err := cr.Verify(binary.LittleEndian.Uint32(trailer[:])); err != nil {
		return nil, err
	}
	return list, nil
}

// decodeStream appends count elements read from r to list.
func decodeStream[T biglist.Element](r io.Reader, count int64, list *biglist.BigList[T]) error {
	width := conv.Width[T]()
	per := int64(windowBytes / width)
	raw := make([]byte, min(count, per)*int64(width))
	d := newDecoder[T](int(min(count, per)))

	for remaining := count; remaining > 0; {
		k := min(remaining, per)
		chunk := raw[:k*int64(width)]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return truncated("body", err)
		}
		if err := d.appendTo(list, chunk); err != nil {
			return err
		}
		remaining -= k
	}
	return nil
}

// decoder converts raw little-endian chunks into list elements.
type decoder[T biglist.Element] struct {
	vals []T
}

func newDecoder[T biglist.Element](n int) *decoder[T] {
	return &decoder[T]{vals: make([]T, n)}
}

// appendTo decodes raw, which holds a whole number of elements, and appends
// them to list.
func (d *decoder[T]) appendTo(list *biglist.BigList[T], raw []byte) error {
	width := conv.Width[T]()
	for len(raw) > 0 {
		k := min(len(d.vals), len(raw)/width)
		if k == 0 {
			return fmt.Errorf("%w: partial element", ErrCorrupt)
		}
		for i := range k {
			d.vals[i] = conv.LittleEndian[T](raw[i*width:])
		}
		if err := list.AddElements(list.Len(), d.vals, 0, k); err != nil {
			return err
		}
		raw = raw[k*width:]
	}
	return nil
}

func truncated(section string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncated, section)
	}
	return err
}
