/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: buffer_test.go
Description: Unit tests for the packed bit buffer. Covers MSB-first packing,
zero padding, clamped slicing, inversion and exact equality.
*/

package bits_test

import (
	"testing"

	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromBytesIsMSBFirst tests that bytes unpack most significant bit first
func TestFromBytesIsMSBFirst(t *testing.T) {
	buf := bits.FromBytes([]byte{0x41, 0x80})
	assert.Equal(t, 16, buf.Len())
	assert.Equal(t, "0100000110000000", buf.String())
}

// TestParseRejectsNonBitCharacters tests that parsing fails on characters other than 0 and 1
func TestParseRejectsNonBitCharacters(t *testing.T) {
	_, err := bits.Parse("0102")
	require.Error(t, err)

	buf, err := bits.Parse("")
	require.NoError(t, err)
	assert.True(t, buf.IsEmpty())
}

// TestBytesZeroPadsFinalByte tests that a partial final byte is padded with zero bits
func TestBytesZeroPadsFinalByte(t *testing.T) {
	buf := bits.MustParse("1011")
	assert.Equal(t, []byte{0xB0}, buf.Bytes())

	buf = bits.MustParse("111111111")
	assert.Equal(t, []byte{0xFF, 0x80}, buf.Bytes())

	assert.Empty(t, bits.New(0).Bytes())
}

// TestAppendAcrossByteBoundaries tests appending ranges that start and end mid-byte
func TestAppendAcrossByteBoundaries(t *testing.T) {
	buf := bits.MustParse("101")
	buf.Append(bits.MustParse("11110000"))
	assert.Equal(t, "10111110000", buf.String())

	aligned := bits.FromBytes([]byte{0xAA})
	aligned.Append(bits.MustParse("011"))
	assert.Equal(t, "10101010011", aligned.String())

	aligned.Append(bits.New(0))
	assert.Equal(t, 11, aligned.Len())
}

// TestAppendReversedAndInverted tests the reversed and inverted append variants
func TestAppendReversedAndInverted(t *testing.T) {
	src := bits.MustParse("110010")
	out := bits.New(0)
	out.AppendReversed(src, 0, 3)
	out.AppendInverted(src, 3, 6)
	assert.Equal(t, "011101", out.String())
}

// TestSliceClampsBounds tests that out of range slice bounds are clamped
func TestSliceClampsBounds(t *testing.T) {
	buf := bits.MustParse("10110011")

	assert.Equal(t, "1100", buf.Slice(2, 6).String())
	assert.Equal(t, "0011", buf.Slice(4, 100).String())
	assert.True(t, buf.Slice(6, 2).IsEmpty())
	assert.True(t, buf.Slice(50, 60).IsEmpty())
	assert.Equal(t, "10", buf.Slice(-3, 2).String())
}

// TestInvertedTwiceIsIdentity tests that inverting twice restores the buffer
func TestInvertedTwiceIsIdentity(t *testing.T) {
	buf := bits.MustParse("1011001")
	inv := buf.Inverted()
	assert.Equal(t, "0100110", inv.String())
	assert.Equal(t, []byte{0x4C}, inv.Bytes())
	assert.True(t, inv.Inverted().Equal(buf))
}

// TestEqualIncludesLength tests that buffers of different lengths are never equal
func TestEqualIncludesLength(t *testing.T) {
	a := bits.MustParse("1010")
	b := bits.MustParse("10100")
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(bits.MustParse("1010")))
	assert.True(t, bits.New(0).Equal(&bits.Buffer{}))
}

// TestSetAndOnesCount tests setting single bits and counting ones
func TestSetAndOnesCount(t *testing.T) {
	buf := bits.MustParse("00000000")
	buf.Set(0, true)
	buf.Set(7, true)
	buf.Set(7, false)
	assert.Equal(t, "10000000", buf.String())
	assert.Equal(t, 1, buf.OnesCount(0, buf.Len()))
}

// TestCloneIsIndependent tests that a clone does not share storage with its source
func TestCloneIsIndependent(t *testing.T) {
	buf := bits.MustParse("1111")
	clone := buf.Clone()
	clone.Set(0, false)
	assert.Equal(t, "1111", buf.String())
	assert.Equal(t, "0111", clone.String())
}
