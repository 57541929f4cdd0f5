/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: buffer.go
Description: Bit buffer used by every transform and analysis in bitlens. Bits are
packed most-significant-bit first within each byte and the buffer tracks an exact
bit length, so lengths that are not a multiple of eight are represented faithfully.
*/

package bits

import (
	"fmt"
	"strings"
)

// Buffer is an ordered, length-tracked sequence of bits packed MSB-first.
// The zero value is an empty buffer ready for use.
type Buffer struct {
	data []byte // packed storage, unused trailing bits are always zero
	n    int    // number of bits held
}

// New returns an empty buffer with room for capacity bits.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, 0, (capacity+7)/8)}
}

// FromBytes interprets b as an MSB-first bit stream of 8*len(b) bits.
// The bytes are copied.
func FromBytes(b []byte) *Buffer {
	data := make([]byte, len(b))
	copy(data, b)
	return &Buffer{data: data, n: len(b) * 8}
}

// FromBools builds a buffer from a slice of booleans.
func FromBools(values []bool) *Buffer {
	buf := New(len(values))
	for _, v := range values {
		buf.Push(v)
	}
	return buf
}

// Parse reads a strict textual bit string made of '0' and '1'.
func Parse(s string) (*Buffer, error) {
	buf := New(len(s))
	for i, c := range s {
		switch c {
		case '0':
			buf.Push(false)
		case '1':
			buf.Push(true)
		default:
			return nil, fmt.Errorf("invalid bit character %q at offset %d", c, i)
		}
	}
	return buf, nil
}

// MustParse is Parse for literals known to be valid. It panics on bad input.
func MustParse(s string) *Buffer {
	buf, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return buf
}

// Len returns the number of bits in the buffer.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return b.n
}

// IsEmpty reports whether the buffer holds no bits.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// Bit returns the bit at index i. Callers must keep i within [0, Len()).
func (b *Buffer) Bit(i int) bool {
	return b.data[i>>3]&(0x80>>uint(i&7)) != 0
}

// Set overwrites the bit at index i.
func (b *Buffer) Set(i int, v bool) {
	mask := byte(0x80 >> uint(i&7))
	if v {
		b.data[i>>3] |= mask
	} else {
		b.data[i>>3] &^= mask
	}
}

// Push appends a single bit.
func (b *Buffer) Push(v bool) {
	if b.n&7 == 0 {
		b.data = append(b.data, 0)
	}
	if v {
		b.data[b.n>>3] |= 0x80 >> uint(b.n&7)
	}
	b.n++
}

// Append appends all bits of other.
func (b *Buffer) Append(other *Buffer) {
	if other.Len() == 0 {
		return
	}
	if b.n&7 == 0 {
		b.data = append(b.data[:b.n>>3], other.data[:(other.n+7)>>3]...)
		b.n += other.n
		return
	}
	b.AppendRange(other, 0, other.n)
}

// AppendRange appends src[start:end] verbatim.
func (b *Buffer) AppendRange(src *Buffer, start, end int) {
	for i := start; i < end; i++ {
		b.Push(src.Bit(i))
	}
}

// AppendReversed appends src[start:end] with the bit order reversed.
func (b *Buffer) AppendReversed(src *Buffer, start, end int) {
	for i := end - 1; i >= start; i-- {
		b.Push(src.Bit(i))
	}
}

// AppendInverted appends the complement of each bit in src[start:end].
func (b *Buffer) AppendInverted(src *Buffer, start, end int) {
	for i := start; i < end; i++ {
		b.Push(!src.Bit(i))
	}
}

// Slice returns a copy of bits [start, end). Both bounds are clamped to the
// buffer length and an inverted range yields an empty buffer.
func (b *Buffer) Slice(start, end int) *Buffer {
	n := b.Len()
	start = clamp(start, 0, n)
	end = clamp(end, 0, n)
	if start >= end {
		return New(0)
	}
	out := New(end - start)
	out.AppendRange(b, start, end)
	return out
}

// Clone returns an independent copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return New(0)
	}
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{data: data, n: b.n}
}

// Inverted returns a new buffer with every bit complemented.
func (b *Buffer) Inverted() *Buffer {
	out := b.Clone()
	for i := range out.data {
		out.data[i] = ^out.data[i]
	}
	out.clearTail()
	return out
}

// Equal reports bit-exact equality, including length.
func (b *Buffer) Equal(other *Buffer) bool {
	if b.Len() != other.Len() {
		return false
	}
	full := b.Len() >> 3
	for i := 0; i < full; i++ {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	for i := full << 3; i < b.Len(); i++ {
		if b.Bit(i) != other.Bit(i) {
			return false
		}
	}
	return true
}

// Bytes returns the bits packed into bytes, zero padding the final byte.
func (b *Buffer) Bytes() []byte {
	if b.Len() == 0 {
		return []byte{}
	}
	out := make([]byte, (b.n+7)/8)
	copy(out, b.data)
	return out
}

// OnesCount returns the number of set bits in [start, end).
func (b *Buffer) OnesCount(start, end int) int {
	count := 0
	for i := start; i < end; i++ {
		if b.Bit(i) {
			count++
		}
	}
	return count
}

// String renders the buffer as a string of '0' and '1'.
func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(b.Len())
	for i := 0; i < b.Len(); i++ {
		if b.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// clearTail zeroes the unused bits of the final byte.
func (b *Buffer) clearTail() {
	if rem := b.n & 7; rem != 0 {
		b.data[len(b.data)-1] &= 0xFF << uint(8-rem)
	}
	b.data = b.data[:(b.n+7)/8]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
