/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: symbol.go
Description: Symbol interleaver. Works like the block interleaver but moves whole
SymbolSize-bit groups, so byte-oriented data can be reshuffled without splitting
bytes. A trailing partial symbol is dropped.
*/

package interleaver

import (
	"fmt"

	"github.com/kleascm/bitlens/pkg/bits"
)

// SymbolConfig configures a symbol interleaver
type SymbolConfig struct {
	SymbolSize int       `json:"symbol_size"` // bits per symbol
	BlockSize  int       `json:"block_size"`  // symbols per row
	Depth      int       `json:"depth"`       // rows per chunk
	Direction  Direction `json:"direction"`
}

// NewSymbol returns a symbol interleaver config
func NewSymbol(symbolSize, blockSize, depth int, dir Direction) SymbolConfig {
	return SymbolConfig{SymbolSize: symbolSize, BlockSize: blockSize, Depth: depth, Direction: dir}
}

// Type implements Interleaver
func (c SymbolConfig) Type() Type { return TypeSymbol }

// ChunkBits returns the number of bits in one full matrix of symbols
func (c SymbolConfig) ChunkBits() int {
	return c.SymbolSize * c.BlockSize * c.Depth
}

// Validate reports degenerate dimensions
func (c SymbolConfig) Validate() error {
	if c.SymbolSize <= 0 || c.BlockSize <= 0 || c.Depth <= 0 {
		return fmt.Errorf("symbol interleaver needs positive dimensions, got %d-bit %dx%d",
			c.SymbolSize, c.BlockSize, c.Depth)
	}
	cells, err := matrixCells(c.BlockSize, c.Depth)
	if err != nil {
		return err
	}
	_, err = matrixCells(cells, c.SymbolSize)
	return err
}

// Apply implements Interleaver. Degenerate dimensions return a copy of input.
func (c SymbolConfig) Apply(input *bits.Buffer) *bits.Buffer {
	if input.IsEmpty() || c.Validate() != nil {
		return input.Clone()
	}
	return permuteUnits(input, c.SymbolSize, c.Depth, c.BlockSize, c.Direction)
}

// Describe implements Interleaver
func (c SymbolConfig) Describe() string {
	return fmt.Sprintf("Symbol %d×%d (%dbit) %s", c.BlockSize, c.Depth, c.SymbolSize, c.Direction)
}
