package conv

import (
	"encoding/binary"
	"unsafe"
)

// Number is the set of element types that can be converted to raw bits.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Kind classifies how the bits of a Number are interpreted.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindSigned
	KindUnsigned
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindSigned:
		return "signed"
	case KindUnsigned:
		return "unsigned"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of T.
func KindOf[T Number]() Kind {
	one := T(1)
	if one/2 != 0 {
		return KindFloat
	}
	var v T
	v--
	if v < 0 {
		return KindSigned
	}
	return KindUnsigned
}

// Width returns the size of T in bytes.
func Width[T Number]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// Bits returns the raw bit pattern of v, zero-extended to 64 bits.
func Bits[T Number](v T) uint64 {
	p := unsafe.Pointer(&v)
	switch unsafe.Sizeof(v) {
	case 1:
		return uint64(*(*uint8)(p))
	case 2:
		return uint64(*(*uint16)(p))
	case 4:
		return uint64(*(*uint32)(p))
	default:
		return *(*uint64)(p)
	}
}

// FromBits is the inverse of Bits.
func FromBits[T Number](b uint64) T {
	var v T
	p := unsafe.Pointer(&v)
	switch unsafe.Sizeof(v) {
	case 1:
		*(*uint8)(p) = uint8(b)
	case 2:
		*(*uint16)(p) = uint16(b)
	case 4:
		*(*uint32)(p) = uint32(b)
	default:
		*(*uint64)(p) = b
	}
	return v
}

// AppendLittleEndian appends the little-endian encoding of v to dst.
func AppendLittleEndian[T Number](dst []byte, v T) []byte {
	b := Bits(v)
	switch Width[T]() {
	case 1:
		return append(dst, byte(b))
	case 2:
		return binary.LittleEndian.AppendUint16(dst, uint16(b))
	case 4:
		return binary.LittleEndian.AppendUint32(dst, uint32(b))
	default:
		return binary.LittleEndian.AppendUint64(dst, b)
	}
}

// LittleEndian decodes one T from the front of src, which must hold at
// least Width[T]() bytes.
func LittleEndian[T Number](src []byte) T {
	switch Width[T]() {
	case 1:
		return FromBits[T](uint64(src[0]))
	case 2:
		return FromBits[T](uint64(binary.LittleEndian.Uint16(src)))
	case 4:
		return FromBits[T](uint64(binary.LittleEndian.Uint32(src)))
	default:
		return FromBits[T](binary.LittleEndian.Uint64(src))
	}
}
