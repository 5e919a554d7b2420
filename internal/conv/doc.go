// Package conv converts numeric list elements to and from their raw bit
// patterns, and performs bounds-checked integer conversions.
//
// Bit conversion is width-driven: every element type is read as an unsigned
// integer of the same size. Floats therefore round-trip exactly, including
// NaN payloads and negative zero.
//
// Use cases:
//   - Element hashing (Bits)
//   - The persistence wire format (AppendLittleEndian / LittleEndian)
//   - Validating untrusted counts read from disk (Uint64ToInt64)
package conv
