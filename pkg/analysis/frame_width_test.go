/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: frame_width_test.go
Description: Unit tests for frame width scoring, delta scoring, best width
selection and harmonic correction.
*/

package analysis_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/kleascm/bitlens/pkg/analysis"
	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeated(s string, times int) *bits.Buffer {
	return bits.FromBytes(bytes.Repeat([]byte(s), times))
}

func scan(min, max int) analysis.Options {
	opts := analysis.DefaultOptions()
	opts.MinWidth = min
	opts.MaxWidth = max
	return opts
}

// TestScoreWidthASCII tests scoring ASCII text at its byte width
func TestScoreWidthASCII(t *testing.T) {
	score, consistency := analysis.ScoreWidth(repeated("A", 4), 8)
	// four frames only, so confidence is 4/30 of the full 1.5
	assert.InDelta(t, 0.2, score, 1e-9)
	require.Len(t, consistency, 8)
	for _, c := range consistency {
		assert.InDelta(t, 1.0, c, 1e-9)
	}
}

// TestScoreWidthNeedsThreeFrames tests that widths with fewer than three frames score zero
func TestScoreWidthNeedsThreeFrames(t *testing.T) {
	score, consistency := analysis.ScoreWidth(bits.MustParse("10101"), 2)
	assert.Zero(t, score)
	assert.Nil(t, consistency)

	score, consistency = analysis.ScoreWidth(bits.MustParse("101010"), 2)
	assert.InDelta(t, 0.15, score, 1e-9)
	assert.Equal(t, []float64{1, 1}, consistency)

	score, _ = analysis.ScoreWidth(bits.MustParse("1010"), 0)
	assert.Zero(t, score)
}

// TestScoreWidthRandomDataScoresLow tests that random data scores low at every width
func TestScoreWidthRandomDataScoresLow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, 4096)
	rng.Read(data)

	score, _ := analysis.ScoreWidth(bits.FromBytes(data), 8)
	structured, _ := analysis.ScoreWidth(repeated("Hello", 820), 40)
	assert.Less(t, score, 0.1)
	assert.Greater(t, structured, score)
}

// TestScoreWidthWithDelta tests scoring by repetition across a frame delta
func TestScoreWidthWithDelta(t *testing.T) {
	buf := repeated("AB", 10)

	score, agreement := analysis.ScoreWidthWithDelta(buf, 8, 2)
	assert.InDelta(t, 1.0, score, 1e-9)
	assert.Len(t, agreement, 8)

	score, _ = analysis.ScoreWidthWithDelta(buf, 8, 1)
	assert.InDelta(t, 0.75, score, 1e-9)

	score, agreement = analysis.ScoreWidthWithDelta(bits.MustParse("1010"), 2, 1)
	assert.Zero(t, score)
	assert.Nil(t, agreement)
}

// TestFindBestWidthPrefersSmallASCIIWidth tests that the best width for text is the byte width
func TestFindBestWidthPrefersSmallASCIIWidth(t *testing.T) {
	result := analysis.FindBestWidth(repeated("A", 50), scan(1, 400))
	assert.Equal(t, 8, result.BestWidth)
	assert.LessOrEqual(t, result.BestWidth, 16)
	assert.InDelta(t, 1.5, result.BestScore, 1e-9)
	assert.Len(t, result.Scores, 400)
	assert.False(t, result.Corrected)
}

// TestFindBestWidthVariedASCII tests the best width for varied text
func TestFindBestWidthVariedASCII(t *testing.T) {
	result := analysis.FindBestWidth(repeated("AB", 10), scan(4, 16))
	assert.Equal(t, 8, result.BestWidth)
	assert.InDelta(t, 0.75, result.BestScore, 1e-9)

	best, ok := result.Best()
	require.True(t, ok)
	assert.Equal(t, 8, best.Width)
	assert.Len(t, best.Consistency, 8)
}

// TestHarmonicCorrection tests replacing a multiple of the true width with its divisor
func TestHarmonicCorrection(t *testing.T) {
	buf := repeated("AB", 200)

	result := analysis.FindBestWidth(buf, scan(1, 32))
	assert.Equal(t, 8, result.BestWidth)
	assert.InDelta(t, 1.125, result.BestScore, 1e-9)
	assert.True(t, result.Corrected)

	strict := scan(1, 32)
	strict.HarmonicThreshold = 0.8
	result = analysis.FindBestWidth(buf, strict)
	assert.Equal(t, 16, result.BestWidth)
	assert.InDelta(t, 1.425, result.BestScore, 1e-9)
	assert.False(t, result.Corrected)

	disabled := scan(1, 32)
	disabled.HarmonicMinScore = 2
	assert.Equal(t, 16, analysis.FindBestWidth(buf, disabled).BestWidth)
}

// TestFindBestWidthDeltaMode tests the width scan in delta mode
func TestFindBestWidthDeltaMode(t *testing.T) {
	opts := scan(4, 16)
	opts.Delta = 1
	result := analysis.FindBestWidth(repeated("AB", 10), opts)
	// width 16 repeats perfectly but 8 keeps three quarters of that agreement
	assert.Equal(t, 8, result.BestWidth)
	assert.True(t, result.Corrected)
}

// TestFindBestWidthEmptyRange tests a scan over an empty width range
func TestFindBestWidthEmptyRange(t *testing.T) {
	result := analysis.FindBestWidth(repeated("A", 10), scan(9, 4))
	assert.Equal(t, 9, result.BestWidth)
	assert.Zero(t, result.BestScore)
	assert.Empty(t, result.Scores)

	result = analysis.FindBestWidth(bits.New(0), scan(0, 8))
	assert.Equal(t, 0, result.BestWidth)
	assert.Zero(t, result.BestScore)
}

// TestTopWidths tests ranking widths by score
func TestTopWidths(t *testing.T) {
	result := analysis.FindBestWidth(repeated("AB", 200), scan(1, 32))
	top := result.TopWidths(3)
	require.Len(t, top, 3)
	assert.Equal(t, 16, top[0].Width)
	assert.GreaterOrEqual(t, top[0].Score, top[1].Score)
	assert.GreaterOrEqual(t, top[1].Score, top[2].Score)
	assert.Len(t, result.TopWidths(-1), 32)
}

// TestOptionsValidate tests analysis option validation
func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, analysis.DefaultOptions().Validate())

	bad := analysis.DefaultOptions()
	bad.HarmonicThreshold = 1.5
	assert.Error(t, bad.Validate())

	bad = analysis.DefaultOptions()
	bad.Delta = -1
	assert.Error(t, bad.Validate())
}
