/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stages.go
Description: Parses command-line stage specs into pipeline stages and logs stage
results as a pipeline observer.
*/

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/kleascm/bitlens/pkg/interleaver"
	"github.com/kleascm/bitlens/pkg/logging"
	"github.com/kleascm/bitlens/pkg/metrics"
	"github.com/kleascm/bitlens/pkg/operations"
	"github.com/kleascm/bitlens/pkg/pipeline"
)

// ParseStages parses every spec in order
func ParseStages(specs []string) ([]pipeline.BitOperation, error) {
	ops := make([]pipeline.BitOperation, 0, len(specs))
	for i, spec := range specs {
		op, err := ParseStage(spec)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// ParseStage parses one stage spec:
//
//	seq=<grammar>  invert  truncate=<start>:<end>  load=<path>
//	block=<W>x<D>[:de]  conv=<B>x<M>[:de]  symbol=<S>:<W>x<D>[:de]
//	sheets=<idx>@<grammar>,...
//
// A leading '!' adds the stage disabled.
func ParseStage(spec string) (pipeline.BitOperation, error) {
	spec = strings.TrimSpace(spec)
	disabled := strings.HasPrefix(spec, "!")
	spec = strings.TrimPrefix(spec, "!")

	kind, arg, _ := strings.Cut(spec, "=")
	kind = strings.ToLower(strings.TrimSpace(kind))
	arg = strings.TrimSpace(arg)

	var op pipeline.BitOperation
	var err error
	switch kind {
	case "seq":
		op, err = parseSequenceStage(spec, arg)
	case "invert":
		op = pipeline.NewInvertBits(spec)
	case "truncate":
		op, err = parseTruncateStage(spec, arg)
	case "block":
		op, err = parseBlockStage(spec, arg)
	case "conv":
		op, err = parseConvolutionalStage(spec, arg)
	case "symbol":
		op, err = parseSymbolStage(spec, arg)
	case "load":
		if arg == "" {
			return nil, fmt.Errorf("load stage needs a path")
		}
		op = pipeline.NewLoadFile(spec, arg)
	case "sheets":
		op, err = parseSheetsStage(spec, arg)
	default:
		return nil, fmt.Errorf("unknown stage: %q", spec)
	}
	if err != nil {
		return nil, err
	}

	if disabled {
		op.SetEnabled(false)
	}
	return op, nil
}

func parseSequenceStage(name, arg string) (pipeline.BitOperation, error) {
	seq, err := operations.ParseSequence(arg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewTakeSkipSequence(name, seq), nil
}

func parseTruncateStage(name, arg string) (pipeline.BitOperation, error) {
	startExpr, endExpr, ok := strings.Cut(arg, ":")
	if !ok {
		return nil, fmt.Errorf("truncate stage needs <start>:<end>, got %q", arg)
	}
	start, err := ParseCount("truncate start", startExpr)
	if err != nil {
		return nil, err
	}
	end, err := ParseCount("truncate end", endExpr)
	if err != nil {
		return nil, err
	}
	return pipeline.NewTruncateBits(name, start, end), nil
}

// splitDirection separates a trailing ":in" or ":de" from arg
func splitDirection(arg string) (string, interleaver.Direction, error) {
	i := strings.LastIndex(arg, ":")
	if i < 0 {
		return arg, interleaver.Interleave, nil
	}
	suffix := arg[i+1:]
	// symbol specs carry a ':' of their own before the block shape
	if strings.ContainsAny(strings.ToLower(suffix), "x0123456789") {
		return arg, interleaver.Interleave, nil
	}
	dir, err := interleaver.ParseDirection(suffix)
	if err != nil {
		return "", interleaver.Interleave, err
	}
	return arg[:i], dir, nil
}

// parseDimensions parses "<a>x<b>"
func parseDimensions(what, arg string) (int, int, error) {
	aExpr, bExpr, ok := strings.Cut(strings.ToLower(arg), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%s needs <a>x<b>, got %q", what, arg)
	}
	a, err := ParseCount(what, aExpr)
	if err != nil {
		return 0, 0, err
	}
	b, err := ParseCount(what, bExpr)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

type validator interface {
	Validate() error
}

func interleaveStage(name string, il interleaver.Interleaver) (pipeline.BitOperation, error) {
	if v, ok := il.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return pipeline.NewInterleaveBits(name, il), nil
}

func parseBlockStage(name, arg string) (pipeline.BitOperation, error) {
	dims, dir, err := splitDirection(arg)
	if err != nil {
		return nil, err
	}
	width, depth, err := parseDimensions("block size", dims)
	if err != nil {
		return nil, err
	}
	return interleaveStage(name, interleaver.NewBlock(width, depth, dir))
}

func parseConvolutionalStage(name, arg string) (pipeline.BitOperation, error) {
	dims, dir, err := splitDirection(arg)
	if err != nil {
		return nil, err
	}
	branches, delay, err := parseDimensions("convolutional shape", dims)
	if err != nil {
		return nil, err
	}
	return interleaveStage(name, interleaver.NewConvolutional(branches, delay, dir))
}

func parseSymbolStage(name, arg string) (pipeline.BitOperation, error) {
	rest, dir, err := splitDirection(arg)
	if err != nil {
		return nil, err
	}
	sizeExpr, dims, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, fmt.Errorf("symbol stage needs <S>:<W>x<D>, got %q", arg)
	}
	size, err := ParseCount("symbol size", sizeExpr)
	if err != nil {
		return nil, err
	}
	width, depth, err := parseDimensions("symbol block", dims)
	if err != nil {
		return nil, err
	}
	return interleaveStage(name, interleaver.NewSymbol(size, width, depth, dir))
}

func parseSheetsStage(name, arg string) (pipeline.BitOperation, error) {
	if arg == "" {
		return nil, fmt.Errorf("sheets stage needs <idx>@<grammar>,...")
	}
	var sources []pipeline.WorksheetSequence
	for _, part := range strings.Split(arg, ",") {
		idxExpr, grammar, ok := strings.Cut(part, "@")
		if !ok {
			return nil, fmt.Errorf("worksheet source needs <idx>@<grammar>, got %q", part)
		}
		idx, err := ParseCount("worksheet index", idxExpr)
		if err != nil {
			return nil, err
		}
		seq, err := operations.ParseSequence(strings.TrimSpace(grammar))
		if err != nil {
			return nil, err
		}
		sources = append(sources, pipeline.WorksheetSequence{WorksheetIndex: idx, Sequence: seq})
	}
	return pipeline.NewMultiWorksheetLoad(name, sources...), nil
}

// stageLogger logs every evaluated stage
type stageLogger struct {
	logger *logging.Logger
	index  int
}

func newStageObserver(logger *logging.Logger, collector *metrics.Collector) pipeline.Observer {
	return metrics.Chain{collector, &stageLogger{logger: logger}}
}

func (s *stageLogger) StageCompleted(op pipeline.BitOperation, elapsed time.Duration, bitsOut int) {
	s.logger.LogStage(s.index, op.Name(), elapsed, bitsOut)
	s.index++
}

func (s *stageLogger) StageFailed(op pipeline.BitOperation, err error) {
	s.logger.LogStageError(s.index, op.Name(), err)
	s.index++
}
