package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/biglist/internal/conv"
)

const (
	// Magic identifies encoded lists (ASCII: "BGL0").
	Magic = "BGL0"
	// FormatVersion is the current stream format version.
	FormatVersion uint16 = 1

	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = 16
	// TrailerSize is the size of the CRC32C trailer.
	TrailerSize = 4
)

var (
	ErrInvalidMagic    = errors.New("invalid magic number")
	ErrInvalidVersion  = errors.New("unsupported version")
	ErrElementMismatch = errors.New("element type mismatch")
	ErrTruncated       = errors.New("truncated stream")
	ErrCorrupt         = errors.New("corrupt stream")
)

// maxBodySize bounds Count*Width so that offsets stay representable.
const maxBodySize = 1 << 62

// FileHeader is the fixed 16-byte header at the start of every encoded list.
//
// Layout (little-endian):
//
//	0   Magic    [4]byte  "BGL0"
//	4   Version  uint16
//	6   Kind     uint8    1=signed, 2=unsigned, 3=float
//	7   Width    uint8    element size in bytes
//	8   Count    uint64   number of elements
//
// Count elements of Width bytes follow, then a CRC32C of header and body.
type FileHeader struct {
	Magic   [4]byte
	Version uint16
	Kind    uint8
	Width   uint8
	Count   uint64
}

// headerFor returns the header of a T stream holding count elements.
func headerFor[T conv.Number](count int64) FileHeader {
	h := FileHeader{
		Version: FormatVersion,
		Kind:    uint8(conv.KindOf[T]()),
		Width:   uint8(conv.Width[T]()),
		Count:   uint64(count),
	}
	copy(h.Magic[:], Magic)
	return h
}

// BodySize returns the number of element bytes that follow the header.
func (h FileHeader) BodySize() int64 {
	return int64(h.Count) * int64(h.Width)
}

// validate checks h against the element type T.
func validate[T conv.Number](h FileHeader) error {
	if string(h.Magic[:]) != Magic {
		return fmt.Errorf("%w: got %q", ErrInvalidMagic, h.Magic[:])
	}
	if h.Version != FormatVersion {
		return fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
	}
	kind, width := conv.KindOf[T](), conv.Width[T]()
	if conv.Kind(h.Kind) != kind || int(h.Width) != width {
		return fmt.Errorf("%w: stream holds %s%d, want %s%d",
			ErrElementMismatch, conv.Kind(h.Kind), int(h.Width)*8, kind, width*8)
	}
	if h.Count > maxBodySize/uint64(width) {
		return fmt.Errorf("%w: element count %d overflows the body size", ErrCorrupt, h.Count)
	}
	return nil
}

// writeHeader writes the binary header.
func writeHeader(w io.Writer, h FileHeader) error {
	return binary.Write(w, binary.LittleEndian, &h)
}

// readHeader reads the binary header without validating it.
func readHeader(r io.Reader) (FileHeader, error) {
	var h FileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, truncated("header", err)
	}
	return h, nil
}
