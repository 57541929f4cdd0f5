/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: codec.go
Description: JSON encoding of pipelines for the session store. Each stage becomes an
object tagged by "type"; micro-operation sequences are stored in their grammar form.
*/

package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/kleascm/bitlens/pkg/interleaver"
	"github.com/kleascm/bitlens/pkg/operations"
)

type worksheetRecord struct {
	Worksheet int    `json:"worksheet"`
	Sequence  string `json:"sequence"`
}

type stageRecord struct {
	Type    OperationType `json:"type"`
	Name    string        `json:"name"`
	Enabled bool          `json:"enabled"`

	Path     string `json:"path,omitempty"`
	Sequence string `json:"sequence,omitempty"`
	Start    int    `json:"start,omitempty"`
	End      int    `json:"end,omitempty"`

	Interleaver   interleaver.Type                 `json:"interleaver,omitempty"`
	Block         *interleaver.BlockConfig         `json:"block,omitempty"`
	Convolutional *interleaver.ConvolutionalConfig `json:"convolutional,omitempty"`
	Symbol        *interleaver.SymbolConfig        `json:"symbol,omitempty"`

	Worksheets []worksheetRecord `json:"worksheets,omitempty"`
}

// EncodeOperations serializes a pipeline to JSON
func EncodeOperations(ops []BitOperation) ([]byte, error) {
	records := make([]stageRecord, 0, len(ops))
	for _, op := range ops {
		rec := stageRecord{Type: op.Type(), Name: op.Name(), Enabled: op.Enabled()}
		switch o := op.(type) {
		case *LoadFile:
			rec.Path = o.Path
		case *TakeSkipSequence:
			rec.Sequence = o.Sequence.String()
		case *InvertBits:
		case *TruncateBits:
			rec.Start, rec.End = o.Start, o.End
		case *InterleaveBits:
			rec.Interleaver = o.Interleaver.Type()
			switch cfg := o.Interleaver.(type) {
			case interleaver.BlockConfig:
				rec.Block = &cfg
			case interleaver.ConvolutionalConfig:
				rec.Convolutional = &cfg
			case interleaver.SymbolConfig:
				rec.Symbol = &cfg
			default:
				return nil, fmt.Errorf("stage %q: unsupported interleaver %T", op.Name(), o.Interleaver)
			}
		case *MultiWorksheetLoad:
			for _, src := range o.Sources {
				rec.Worksheets = append(rec.Worksheets, worksheetRecord{
					Worksheet: src.WorksheetIndex,
					Sequence:  src.Sequence.String(),
				})
			}
		}
		records = append(records, rec)
	}
	return json.Marshal(records)
}

// DecodeOperations parses a pipeline produced by EncodeOperations
func DecodeOperations(data []byte) ([]BitOperation, error) {
	var records []stageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}

	ops := make([]BitOperation, 0, len(records))
	for i, rec := range records {
		op, err := rec.operation()
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, rec.Name, err)
		}
		op.SetEnabled(rec.Enabled)
		ops = append(ops, op)
	}
	return ops, nil
}

func (rec stageRecord) operation() (BitOperation, error) {
	switch rec.Type {
	case TypeLoadFile:
		return NewLoadFile(rec.Name, rec.Path), nil

	case TypeTakeSkipSequence:
		seq, err := operations.ParseSequence(rec.Sequence)
		if err != nil {
			return nil, err
		}
		return NewTakeSkipSequence(rec.Name, seq), nil

	case TypeInvertBits:
		return NewInvertBits(rec.Name), nil

	case TypeTruncateBits:
		return NewTruncateBits(rec.Name, rec.Start, rec.End), nil

	case TypeInterleaveBits:
		var il interleaver.Interleaver
		switch {
		case rec.Interleaver == interleaver.TypeBlock && rec.Block != nil:
			il = *rec.Block
		case rec.Interleaver == interleaver.TypeConvolutional && rec.Convolutional != nil:
			il = *rec.Convolutional
		case rec.Interleaver == interleaver.TypeSymbol && rec.Symbol != nil:
			il = *rec.Symbol
		default:
			return nil, fmt.Errorf("missing %q interleaver config", rec.Interleaver)
		}
		return NewInterleaveBits(rec.Name, il), nil

	case TypeMultiWorksheetLoad:
		sources := make([]WorksheetSequence, 0, len(rec.Worksheets))
		for _, w := range rec.Worksheets {
			seq, err := operations.ParseSequence(w.Sequence)
			if err != nil {
				return nil, err
			}
			sources = append(sources, WorksheetSequence{WorksheetIndex: w.Worksheet, Sequence: seq})
		}
		return NewMultiWorksheetLoad(rec.Name, sources...), nil

	default:
		return nil, fmt.Errorf("unknown stage type %q", rec.Type)
	}
}
