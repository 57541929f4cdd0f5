/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interleaver.go
Description: Shared types for the block, convolutional and symbol interleavers.
Every interleaver is a pure, stateless transform over a bit buffer with a true
inverse selected by its Direction.
*/

package interleaver

import (
	"fmt"
	"math"
	"strings"

	"github.com/kleascm/bitlens/pkg/bits"
)

// Direction selects between the forward transform and its inverse
type Direction int

const (
	Interleave Direction = iota
	Deinterleave
)

// String returns the display form of the direction
func (d Direction) String() string {
	if d == Deinterleave {
		return "Deinterleave"
	}
	return "Interleave"
}

// ParseDirection accepts "interleave"/"in" and "deinterleave"/"de"
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "in", "interleave":
		return Interleave, nil
	case "de", "deinterleave":
		return Deinterleave, nil
	default:
		return Interleave, fmt.Errorf("unknown interleaver direction: %s", s)
	}
}

// MarshalText stores the direction by name
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(d.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Type names an interleaver family
type Type string

const (
	TypeBlock         Type = "block"
	TypeConvolutional Type = "convolutional"
	TypeSymbol        Type = "symbol"
)

// Interleaver is implemented by every config type
type Interleaver interface {
	// Type returns the interleaver family
	Type() Type
	// Apply runs the configured direction over input and returns a new buffer
	Apply(input *bits.Buffer) *bits.Buffer
	// Describe returns a short human readable summary
	Describe() string
}

// chunkOrder returns, for a depth x width matrix holding units valid cells, the
// row-major index of each valid cell in column-major visiting order. A cell is
// valid when its row-major index is below units, so a partial trailing chunk keeps
// exactly the cells it filled.
func chunkOrder(units, depth, width int) []int {
	order := make([]int, 0, units)
	for col := 0; col < width && col < units; col++ {
		for row := 0; row < depth; row++ {
			idx := row*width + col
			if idx >= units {
				break
			}
			order = append(order, idx)
		}
	}
	return order
}

// matrixCells returns a*b, or an error when the product does not fit in an int
func matrixCells(a, b int) (int, error) {
	if a > math.MaxInt/b {
		return 0, fmt.Errorf("interleaver matrix %dx%d is too large", a, b)
	}
	return a * b, nil
}

// permuteUnits walks input in chunks of depth*width units of unitBits bits each.
// Interleave emits unit order[k] of the chunk at position k; deinterleave places
// input unit k at position order[k]. Bits past the last whole unit are dropped.
func permuteUnits(input *bits.Buffer, unitBits, depth, width int, dir Direction) *bits.Buffer {
	totalUnits := input.Len() / unitBits
	chunkUnits := depth * width
	out := bits.New(totalUnits * unitBits)

	// both tables only ever cover the units actually present
	var fullOrder []int
	if totalUnits >= chunkUnits {
		fullOrder = chunkOrder(chunkUnits, depth, width)
	}
	slots := make([]int, min(chunkUnits, totalUnits))

	for first := 0; first < totalUnits; first += chunkUnits {
		units := chunkUnits
		order := fullOrder
		if remaining := totalUnits - first; remaining < chunkUnits {
			units = remaining
			order = chunkOrder(units, depth, width)
		}

		if dir == Interleave {
			for _, idx := range order {
				start := (first + idx) * unitBits
				out.AppendRange(input, start, start+unitBits)
			}
			continue
		}

		// slots[rowMajor] = source unit within the chunk
		for k, idx := range order {
			slots[idx] = k
		}
		for idx := 0; idx < units; idx++ {
			start := (first + slots[idx]) * unitBits
			out.AppendRange(input, start, start+unitBits)
		}
	}
	return out
}
