/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: operation.go
Description: Pipeline stages. A BitOperation is one named, toggleable step of a
worksheet pipeline. The set of stage types is closed: pure transforms implement
Transformer, while LoadFile and MultiWorksheetLoad only describe the data they need
and are resolved by the Runner.
*/

package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/kleascm/bitlens/pkg/interleaver"
	"github.com/kleascm/bitlens/pkg/operations"
)

// OperationType tags each stage variant
type OperationType string

const (
	TypeLoadFile           OperationType = "load_file"
	TypeTakeSkipSequence   OperationType = "take_skip"
	TypeInvertBits         OperationType = "invert"
	TypeTruncateBits       OperationType = "truncate"
	TypeInterleaveBits     OperationType = "interleave"
	TypeMultiWorksheetLoad OperationType = "multi_worksheet"
)

// BitOperation is implemented only by the stage types in this package
type BitOperation interface {
	Name() string
	Type() OperationType
	Enabled() bool
	SetEnabled(enabled bool)
	Description() string

	isBitOperation()
}

// Transformer is a stage that maps one bit buffer to another without I/O
type Transformer interface {
	BitOperation
	Transform(input *bits.Buffer) *bits.Buffer
}

type stage struct {
	name    string
	enabled bool
}

func newStage(name string) stage { return stage{name: name, enabled: true} }

func (s *stage) Name() string            { return s.name }
func (s *stage) Enabled() bool           { return s.enabled }
func (s *stage) SetEnabled(enabled bool) { s.enabled = enabled }
func (s *stage) isBitOperation()         {}

// LoadFile appends the contents of a file to the pipeline buffer
type LoadFile struct {
	stage
	Path string
}

// NewLoadFile creates an enabled LoadFile stage
func NewLoadFile(name, path string) *LoadFile {
	return &LoadFile{stage: newStage(name), Path: path}
}

func (o *LoadFile) Type() OperationType { return TypeLoadFile }

func (o *LoadFile) Description() string {
	return fmt.Sprintf("Load: %s", filepath.Base(o.Path))
}

// TakeSkipSequence replays a micro-operation sequence over the buffer
type TakeSkipSequence struct {
	stage
	Sequence *operations.Sequence
}

// NewTakeSkipSequence creates an enabled TakeSkipSequence stage
func NewTakeSkipSequence(name string, seq *operations.Sequence) *TakeSkipSequence {
	return &TakeSkipSequence{stage: newStage(name), Sequence: seq}
}

func (o *TakeSkipSequence) Type() OperationType { return TypeTakeSkipSequence }

func (o *TakeSkipSequence) Description() string { return o.Sequence.String() }

func (o *TakeSkipSequence) Transform(input *bits.Buffer) *bits.Buffer {
	return o.Sequence.Apply(input)
}

// InvertBits complements every bit
type InvertBits struct {
	stage
}

// NewInvertBits creates an enabled InvertBits stage
func NewInvertBits(name string) *InvertBits {
	return &InvertBits{stage: newStage(name)}
}

func (o *InvertBits) Type() OperationType { return TypeInvertBits }

func (o *InvertBits) Description() string { return "Inverts all bits" }

func (o *InvertBits) Transform(input *bits.Buffer) *bits.Buffer {
	return input.Inverted()
}

// TruncateBits keeps bits [Start, End), both clamped to the buffer length
type TruncateBits struct {
	stage
	Start int
	End   int
}

// NewTruncateBits creates an enabled TruncateBits stage
func NewTruncateBits(name string, start, end int) *TruncateBits {
	return &TruncateBits{stage: newStage(name), Start: start, End: end}
}

func (o *TruncateBits) Type() OperationType { return TypeTruncateBits }

func (o *TruncateBits) Description() string {
	return fmt.Sprintf("Keep bits %d-%d", o.Start, o.End)
}

func (o *TruncateBits) Transform(input *bits.Buffer) *bits.Buffer {
	return input.Slice(o.Start, o.End)
}

// InterleaveBits runs one configured interleaver
type InterleaveBits struct {
	stage
	Interleaver interleaver.Interleaver
}

// NewInterleaveBits creates an enabled InterleaveBits stage
func NewInterleaveBits(name string, il interleaver.Interleaver) *InterleaveBits {
	return &InterleaveBits{stage: newStage(name), Interleaver: il}
}

func (o *InterleaveBits) Type() OperationType { return TypeInterleaveBits }

func (o *InterleaveBits) Description() string { return o.Interleaver.Describe() }

func (o *InterleaveBits) Transform(input *bits.Buffer) *bits.Buffer {
	return o.Interleaver.Apply(input)
}

// WorksheetSequence applies a sequence to the source bits of another worksheet
type WorksheetSequence struct {
	WorksheetIndex int
	Sequence       *operations.Sequence
}

// MultiWorksheetLoad concatenates processed slices of other worksheets' sources
type MultiWorksheetLoad struct {
	stage
	Sources []WorksheetSequence
}

// NewMultiWorksheetLoad creates an enabled MultiWorksheetLoad stage
func NewMultiWorksheetLoad(name string, sources ...WorksheetSequence) *MultiWorksheetLoad {
	return &MultiWorksheetLoad{stage: newStage(name), Sources: sources}
}

func (o *MultiWorksheetLoad) Type() OperationType { return TypeMultiWorksheetLoad }

func (o *MultiWorksheetLoad) Description() string {
	return fmt.Sprintf("Load from %d worksheet(s)", len(o.Sources))
}

// IsLoader reports whether op synthesizes its buffer instead of transforming one
func IsLoader(op BitOperation) bool {
	switch op.(type) {
	case *LoadFile, *MultiWorksheetLoad:
		return true
	}
	return false
}
