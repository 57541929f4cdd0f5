/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: block.go
Description: Bit-level block interleaver. Each chunk of BlockSize*Depth bits is
written into a Depth-row matrix row by row and read back column by column;
deinterleaving performs the inverse permutation.
*/

package interleaver

import (
	"fmt"

	"github.com/kleascm/bitlens/pkg/bits"
)

// BlockConfig configures a block interleaver
type BlockConfig struct {
	BlockSize int       `json:"block_size"` // bits per row (matrix columns)
	Depth     int       `json:"depth"`      // rows per chunk
	Direction Direction `json:"direction"`
}

// NewBlock returns a block interleaver config
func NewBlock(blockSize, depth int, dir Direction) BlockConfig {
	return BlockConfig{BlockSize: blockSize, Depth: depth, Direction: dir}
}

// Type implements Interleaver
func (c BlockConfig) Type() Type { return TypeBlock }

// ChunkBits returns the number of bits in one full matrix
func (c BlockConfig) ChunkBits() int {
	return c.BlockSize * c.Depth
}

// Validate reports degenerate dimensions
func (c BlockConfig) Validate() error {
	if c.BlockSize <= 0 || c.Depth <= 0 {
		return fmt.Errorf("block interleaver needs positive dimensions, got %dx%d", c.BlockSize, c.Depth)
	}
	_, err := matrixCells(c.BlockSize, c.Depth)
	return err
}

// Apply implements Interleaver. Degenerate dimensions return a copy of input.
func (c BlockConfig) Apply(input *bits.Buffer) *bits.Buffer {
	if input.IsEmpty() || c.Validate() != nil {
		return input.Clone()
	}
	return permuteUnits(input, 1, c.Depth, c.BlockSize, c.Direction)
}

// Describe implements Interleaver
func (c BlockConfig) Describe() string {
	return fmt.Sprintf("Block %d×%d %s", c.BlockSize, c.Depth, c.Direction)
}
