/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pattern_test.go
Description: Unit tests for pattern parsing and garbled bit search.
*/

package pattern_test

import (
	"errors"
	"testing"

	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/kleascm/bitlens/pkg/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompileHex tests compiling hex patterns to bits
func TestCompileHex(t *testing.T) {
	needle, err := pattern.Compile(pattern.FormatHex, "  0xA5 ")
	require.NoError(t, err)
	assert.Equal(t, "10100101", needle.String())

	needle, err = pattern.Compile(pattern.FormatHex, "0Xf")
	require.NoError(t, err)
	assert.Equal(t, "1111", needle.String())
}

// TestCompileHexErrors tests rejection of malformed hex patterns
func TestCompileHexErrors(t *testing.T) {
	cases := map[string]string{
		"A5":   "must start with 0x",
		"0x":   "is empty",
		"0xAG": "invalid hex character",
		"":     "must start with 0x",
	}
	for input, reason := range cases {
		_, err := pattern.Compile(pattern.FormatHex, input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, pattern.ErrInvalidPattern))
		assert.Contains(t, err.Error(), reason, input)
	}
}

// TestCompileASCII tests compiling ASCII patterns to bits
func TestCompileASCII(t *testing.T) {
	needle, err := pattern.Compile(pattern.FormatASCII, "AB")
	require.NoError(t, err)
	assert.Equal(t, "0100000101000010", needle.String())

	_, err = pattern.Compile(pattern.FormatASCII, "")
	assert.ErrorIs(t, err, pattern.ErrInvalidPattern)
}

// TestCompileBits tests compiling literal bit patterns
func TestCompileBits(t *testing.T) {
	needle, err := pattern.Compile(pattern.FormatBits, " 1010_0101 11 ")
	require.NoError(t, err)
	assert.Equal(t, "1010010111", needle.String())

	_, err = pattern.Compile(pattern.FormatBits, "10201")
	assert.ErrorContains(t, err, "invalid bit character")

	_, err = pattern.Compile(pattern.FormatBits, " _ _ ")
	assert.ErrorContains(t, err, "bit pattern is empty")
}

// TestExactSearch tests searching with no mismatches allowed
func TestExactSearch(t *testing.T) {
	p, err := pattern.New("ones", pattern.FormatBits, "1111", 0)
	require.NoError(t, err)
	assert.Empty(t, p.Search(bits.MustParse("1110")))
}

// TestGarbledSearch tests searching within a mismatch tolerance
func TestGarbledSearch(t *testing.T) {
	p, err := pattern.New("ones", pattern.FormatBits, "1111", 1)
	require.NoError(t, err)

	matches := p.Search(bits.MustParse("1110"))
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Position)
	assert.Equal(t, 1, matches[0].Mismatches)
	assert.Equal(t, "1110", matches[0].BitsString())
	assert.Equal(t, 0, matches[0].Delta)
}

// TestSearchDeltas tests the distance recorded between consecutive matches
func TestSearchDeltas(t *testing.T) {
	haystack := bits.MustParse("1010001010100000101")
	matches := pattern.Find(haystack, bits.MustParse("101"), 0)

	require.Len(t, matches, 4)
	positions := []int{matches[0].Position, matches[1].Position, matches[2].Position, matches[3].Position}
	assert.Equal(t, []int{0, 6, 8, 16}, positions)
	assert.Equal(t, 0, matches[0].Delta)
	assert.Equal(t, 6, matches[1].Delta)
	assert.Equal(t, 2, matches[2].Delta)
	assert.Equal(t, 8, matches[3].Delta)
}

// TestSearchDegenerateInputs tests searching empty haystacks and oversized needles
func TestSearchDegenerateInputs(t *testing.T) {
	assert.Empty(t, pattern.Find(bits.MustParse("1010"), bits.New(0), 3))
	assert.Empty(t, pattern.Find(bits.New(0), bits.MustParse("1"), 3))
	assert.Empty(t, pattern.Find(bits.MustParse("10"), bits.MustParse("101"), 3))
}

// TestSearchClearsPreviousMatches tests that a new search replaces the previous matches
func TestSearchClearsPreviousMatches(t *testing.T) {
	p, err := pattern.New("a", pattern.FormatASCII, "A", 0)
	require.NoError(t, err)

	require.Len(t, p.Search(bits.FromBytes([]byte("xAyA"))), 2)
	assert.Empty(t, p.Search(bits.FromBytes([]byte("zzzz"))))
	assert.Empty(t, p.Matches())
}

// TestUpdateRecompilesNeedle tests that updating a pattern recompiles its needle
func TestUpdateRecompilesNeedle(t *testing.T) {
	p, err := pattern.New("sync", pattern.FormatHex, "0xFF", 0)
	require.NoError(t, err)
	p.Search(bits.FromBytes([]byte{0xFF}))
	require.Len(t, p.Matches(), 1)

	require.NoError(t, p.Update(pattern.FormatBits, "01"))
	assert.Equal(t, "01", p.Needle().String())
	assert.Empty(t, p.Matches())

	require.Error(t, p.Update(pattern.FormatHex, "nope"))
	assert.Equal(t, pattern.FormatBits, p.Format)
	assert.Equal(t, "01", p.Input)
}

// TestParseFormat tests parsing pattern format names
func TestParseFormat(t *testing.T) {
	f, err := pattern.ParseFormat("HEX")
	require.NoError(t, err)
	assert.Equal(t, pattern.FormatHex, f)

	f, err = pattern.ParseFormat("binary")
	require.NoError(t, err)
	assert.Equal(t, pattern.FormatBits, f)

	_, err = pattern.ParseFormat("octal")
	assert.Error(t, err)
}
