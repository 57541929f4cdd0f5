/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: convolutional.go
Description: Convolutional (Forney) interleaver built from parallel delay lines.
Branch i delays its bits by i*DelayIncrement branch visits when interleaving and by
(Branches-1-i)*DelayIncrement when deinterleaving, so the pair cancels out up to a
fixed latency.
*/

package interleaver

import (
	"fmt"

	"github.com/kleascm/bitlens/pkg/bits"
)

// ConvolutionalConfig configures a convolutional interleaver
type ConvolutionalConfig struct {
	Branches       int       `json:"branches"`        // parallel delay lines (B)
	DelayIncrement int       `json:"delay_increment"` // delay step between branches (M)
	Direction      Direction `json:"direction"`
}

// NewConvolutional returns a convolutional interleaver config
func NewConvolutional(branches, delayIncrement int, dir Direction) ConvolutionalConfig {
	return ConvolutionalConfig{Branches: branches, DelayIncrement: delayIncrement, Direction: dir}
}

// Type implements Interleaver
func (c ConvolutionalConfig) Type() Type { return TypeConvolutional }

// TotalDelay returns (B-1)*M, the delay of the longest branch in branch visits
func (c ConvolutionalConfig) TotalDelay() int {
	if c.Branches <= 0 {
		return 0
	}
	return (c.Branches - 1) * c.DelayIncrement
}

// Latency returns the number of leading zero bits an interleave followed by a
// deinterleave with the same geometry puts in front of the original stream.
func (c ConvolutionalConfig) Latency() int {
	if c.Branches <= 0 {
		return 0
	}
	return c.Branches * c.TotalDelay()
}

// Validate reports degenerate parameters
func (c ConvolutionalConfig) Validate() error {
	if c.Branches <= 0 {
		return fmt.Errorf("convolutional interleaver needs at least one branch, got %d", c.Branches)
	}
	if c.DelayIncrement < 0 {
		return fmt.Errorf("convolutional delay increment must not be negative, got %d", c.DelayIncrement)
	}
	return nil
}

// Apply implements Interleaver. The output has the same length as the input.
func (c ConvolutionalConfig) Apply(input *bits.Buffer) *bits.Buffer {
	if input.IsEmpty() || c.Validate() != nil {
		return input.Clone()
	}

	lines := make([]delayLine, c.Branches)
	for i := range lines {
		depth := i * c.DelayIncrement
		if c.Direction == Deinterleave {
			depth = (c.Branches - 1 - i) * c.DelayIncrement
		}
		lines[i] = delayLine{cells: make([]bool, depth)}
	}

	out := bits.New(input.Len())
	branch := 0
	for i := 0; i < input.Len(); i++ {
		out.Push(lines[branch].shift(input.Bit(i)))
		branch++
		if branch == c.Branches {
			branch = 0
		}
	}
	return out
}

// Describe implements Interleaver
func (c ConvolutionalConfig) Describe() string {
	return fmt.Sprintf("Conv B=%d M=%d %s", c.Branches, c.DelayIncrement, c.Direction)
}

// delayLine is a fixed-depth FIFO pre-filled with zeros. Every push is paired
// with a pop, so it is kept as a ring with a single cursor.
type delayLine struct {
	cells []bool
	next  int
}

// shift pushes in and returns the bit that falls out the other end
func (d *delayLine) shift(in bool) bool {
	if len(d.cells) == 0 {
		return in
	}
	out := d.cells[d.next]
	d.cells[d.next] = in
	d.next++
	if d.next == len(d.cells) {
		d.next = 0
	}
	return out
}
