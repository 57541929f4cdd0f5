/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: frame_width.go
Description: Automatic frame width detection. Every candidate width is scored by
how predictable each bit column is across frames, using Shannon entropy with sample
size and width penalties, and the best width is corrected towards its fundamental
when a divisor scores nearly as well.
*/

package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/kleascm/bitlens/pkg/bits"
)

const (
	// lowEntropyCutoff marks a column as structured
	lowEntropyCutoff = 0.3
	// confidentFrames is the frame count at which sample confidence saturates
	confidentFrames = 30
	// minFrames is the fewest whole frames a width needs to be scored
	minFrames = 3
	// scoreEpsilon treats scores within this distance as equal
	scoreEpsilon = 1e-6
)

// Options tunes the frame width scan
type Options struct {
	MinWidth int `json:"min_width" mapstructure:"min_width"`
	MaxWidth int `json:"max_width" mapstructure:"max_width"`
	// Delta selects repetition scoring with frames Delta apart when positive
	Delta int `json:"delta" mapstructure:"delta"`
	// HarmonicThreshold is the fraction of the best score a divisor width must
	// reach to replace it
	HarmonicThreshold float64 `json:"harmonic_threshold" mapstructure:"harmonic_threshold"`
	// HarmonicMinScore is the best score above which harmonic correction runs
	HarmonicMinScore float64 `json:"harmonic_min_score" mapstructure:"harmonic_min_score"`
}

// DefaultOptions returns the standard scan settings
func DefaultOptions() Options {
	return Options{
		MinWidth:          1,
		MaxWidth:          512,
		HarmonicThreshold: 0.7,
		HarmonicMinScore:  0.3,
	}
}

// Validate checks the option ranges
func (o Options) Validate() error {
	if o.MinWidth < 0 || o.MaxWidth < 0 {
		return fmt.Errorf("frame width range must not be negative: %d..%d", o.MinWidth, o.MaxWidth)
	}
	if o.Delta < 0 {
		return fmt.Errorf("delta must not be negative: %d", o.Delta)
	}
	if o.HarmonicThreshold < 0 || o.HarmonicThreshold > 1 {
		return fmt.Errorf("harmonic threshold must be within [0,1]: %g", o.HarmonicThreshold)
	}
	return nil
}

// WidthScore is one row of the score table
type WidthScore struct {
	Width int     `json:"width"`
	Score float64 `json:"score"`
	// Consistency holds one value per bit column: 1-entropy in entropy mode, the
	// agreement ratio in delta mode. Empty when the width could not be scored.
	Consistency []float64 `json:"consistency,omitempty"`
}

// FrameWidthResult is the outcome of a scan over a width range
type FrameWidthResult struct {
	Scores    []WidthScore `json:"scores"`
	BestWidth int          `json:"best_width"`
	BestScore float64      `json:"best_score"`
	// Corrected is set when harmonic correction replaced the raw best width
	Corrected bool `json:"corrected"`
}

// Best returns the score row of the chosen width
func (r *FrameWidthResult) Best() (WidthScore, bool) {
	for _, s := range r.Scores {
		if s.Width == r.BestWidth {
			return s, true
		}
	}
	return WidthScore{}, false
}

// ScoreWidth scores width by column entropy. Higher is more structured. It
// returns zero and no consistency data when fewer than three whole frames fit.
func ScoreWidth(buf *bits.Buffer, width int) (float64, []float64) {
	n := buf.Len()
	if width <= 0 || n < width*2 {
		return 0, nil
	}
	frames := n / width
	if frames < minFrames {
		return 0, nil
	}

	consistency := make([]float64, width)
	totalEntropy := 0.0
	lowCount := 0
	for col := 0; col < width; col++ {
		ones := 0
		for f := 0; f < frames; f++ {
			if buf.Bit(f*width + col) {
				ones++
			}
		}
		h := binaryEntropy(ones, frames)
		totalEntropy += h
		if h < lowEntropyCutoff {
			lowCount++
		}
		consistency[col] = 1 - h
	}

	avgEntropy := totalEntropy / float64(width)
	lowRatio := float64(lowCount) / float64(width)

	confidence := 1.0
	if frames < confidentFrames {
		confidence = float64(frames) / confidentFrames
	}
	penalty := math.Max(0, math.Log2(float64(width)/8)) * 0.05

	score := (1 - avgEntropy + 0.5*lowRatio) * confidence * (1 - penalty)
	return score, consistency
}

// ScoreWidthWithDelta scores width by how often each bit column agrees with the
// same column delta frames later, averaged over columns.
func ScoreWidthWithDelta(buf *bits.Buffer, width, delta int) (float64, []float64) {
	n := buf.Len()
	if width <= 0 || delta < 0 || n < width*(delta+2) {
		return 0, nil
	}
	samples := n/width - delta

	agreement := make([]float64, width)
	total := 0.0
	for col := 0; col < width; col++ {
		same := 0
		for f := 0; f < samples; f++ {
			if buf.Bit(f*width+col) == buf.Bit((f+delta)*width+col) {
				same++
			}
		}
		agreement[col] = float64(same) / float64(samples)
		total += agreement[col]
	}
	return total / float64(width), agreement
}

// FindBestWidth scans opts.MinWidth..opts.MaxWidth inclusive and picks the most
// structured width. Ties prefer the smaller width. When the best score exceeds
// opts.HarmonicMinScore, the smallest divisor of the best width scoring at least
// opts.HarmonicThreshold of the best replaces it.
func FindBestWidth(buf *bits.Buffer, opts Options) *FrameWidthResult {
	result := &FrameWidthResult{BestWidth: opts.MinWidth}
	if opts.MaxWidth >= opts.MinWidth {
		result.Scores = make([]WidthScore, 0, opts.MaxWidth-opts.MinWidth+1)
	}

	for width := opts.MinWidth; width <= opts.MaxWidth; width++ {
		var score float64
		var consistency []float64
		if opts.Delta > 0 {
			score, consistency = ScoreWidthWithDelta(buf, width, opts.Delta)
		} else {
			score, consistency = ScoreWidth(buf, width)
		}
		result.Scores = append(result.Scores, WidthScore{Width: width, Score: score, Consistency: consistency})

		if score > result.BestScore+scoreEpsilon {
			result.BestScore = score
			result.BestWidth = width
		} else if math.Abs(score-result.BestScore) < scoreEpsilon && width < result.BestWidth {
			result.BestWidth = width
		}
	}

	if result.BestScore > opts.HarmonicMinScore {
		floor := result.BestScore * opts.HarmonicThreshold
		for _, s := range result.Scores {
			if s.Width <= 0 || s.Width >= result.BestWidth || result.BestWidth%s.Width != 0 {
				continue
			}
			if s.Score >= floor {
				result.BestWidth = s.Width
				result.BestScore = s.Score
				result.Corrected = true
				break
			}
		}
	}
	return result
}

// TopWidths returns up to n score rows ordered by descending score, smaller width
// first on ties.
func (r *FrameWidthResult) TopWidths(n int) []WidthScore {
	sorted := make([]WidthScore, len(r.Scores))
	copy(sorted, r.Scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Width < sorted[j].Width
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func binaryEntropy(ones, total int) float64 {
	if total == 0 || ones == 0 || ones == total {
		return 0
	}
	p1 := float64(ones) / float64(total)
	p0 := 1 - p1
	return -p0*math.Log2(p0) - p1*math.Log2(p1)
}
