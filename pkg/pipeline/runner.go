/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: runner.go
Description: Pipeline driver. Evaluates enabled stages strictly in order, resolving
LoadFile through an injected byte loader and MultiWorksheetLoad through an explicit
map of worksheet sources. Failing stages are reported and skipped; the run always
produces a buffer.
*/

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kleascm/bitlens/pkg/bits"
)

// ErrWorksheetOutOfRange is wrapped when a MultiWorksheetLoad source index has no
// entry in the worksheet map
var ErrWorksheetOutOfRange = errors.New("worksheet index out of range")

// ByteLoader reads a whole file for LoadFile stages
type ByteLoader func(ctx context.Context, path string) ([]byte, error)

// Observer is notified after each evaluated stage
type Observer interface {
	StageCompleted(op BitOperation, elapsed time.Duration, bitsOut int)
	StageFailed(op BitOperation, err error)
}

// Progress is reported after each enabled stage
type Progress struct {
	Stage       int    `json:"stage"` // enabled stages finished so far
	Total       int    `json:"total"` // enabled stages in the pipeline
	Description string `json:"description"`
}

// StageError records one failing stage
type StageError struct {
	Index int    // position in the pipeline
	Name  string // stage display name
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Input is everything a run reads besides the stages themselves
type Input struct {
	// Initial is the starting buffer when no load stage is enabled
	Initial *bits.Buffer
	// Worksheets maps worksheet index to its source bits. A nil value marks a
	// worksheet without a source file and is skipped silently.
	Worksheets map[int]*bits.Buffer
	// Failed holds the read error of every worksheet whose source file exists but
	// could not be loaded. A MultiWorksheetLoad reading one of them fails.
	Failed map[int]error
	// Current is the index of the worksheet being evaluated; it is never read as
	// its own source
	Current int
}

// Result is the outcome of a run
type Result struct {
	Bits   *bits.Buffer
	Errors []*StageError
	// FromScratch is set when an enabled load stage replaced the initial buffer
	FromScratch bool
}

// Err joins all stage errors, or returns nil
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Runner evaluates pipelines. The zero value runs pure transforms only; LoadFile
// stages fail without a Loader.
type Runner struct {
	Loader     ByteLoader
	Observer   Observer
	OnProgress func(Progress)
}

// Run evaluates the enabled stages of ops in order. It only returns an error when
// ctx is cancelled between stages; stage failures are collected in the result.
func (r *Runner) Run(ctx context.Context, ops []BitOperation, in Input) (*Result, error) {
	result := &Result{}
	total := 0
	for _, op := range ops {
		if op.Enabled() {
			total++
			if IsLoader(op) {
				result.FromScratch = true
			}
		}
	}

	var current *bits.Buffer
	if result.FromScratch {
		current = bits.New(0)
	} else {
		current = in.Initial.Clone()
	}

	done := 0
	for idx, op := range ops {
		if !op.Enabled() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		next, err := r.evaluate(ctx, op, current, in)
		if err != nil {
			stageErr := &StageError{Index: idx, Name: op.Name(), Err: err}
			result.Errors = append(result.Errors, stageErr)
			if r.Observer != nil {
				r.Observer.StageFailed(op, err)
			}
		} else {
			current = next
			if r.Observer != nil {
				r.Observer.StageCompleted(op, time.Since(start), current.Len())
			}
		}

		done++
		if r.OnProgress != nil {
			r.OnProgress(Progress{Stage: done, Total: total, Description: op.Description()})
		}
	}

	result.Bits = current
	return result, nil
}

func (r *Runner) evaluate(ctx context.Context, op BitOperation, current *bits.Buffer, in Input) (*bits.Buffer, error) {
	switch o := op.(type) {
	case *LoadFile:
		if r.Loader == nil {
			return nil, fmt.Errorf("no file loader configured for %s", o.Path)
		}
		data, err := r.Loader(ctx, o.Path)
		if err != nil {
			return nil, err
		}
		out := current.Clone()
		out.Append(bits.FromBytes(data))
		return out, nil

	case *MultiWorksheetLoad:
		out := current.Clone()
		for _, src := range o.Sources {
			if src.WorksheetIndex == in.Current {
				continue
			}
			if err, failed := in.Failed[src.WorksheetIndex]; failed {
				return nil, fmt.Errorf("worksheet %d: %w", src.WorksheetIndex, err)
			}
			source, ok := in.Worksheets[src.WorksheetIndex]
			if !ok {
				return nil, fmt.Errorf("%w: %d", ErrWorksheetOutOfRange, src.WorksheetIndex)
			}
			if source == nil {
				continue
			}
			out.Append(src.Sequence.Apply(source))
		}
		return out, nil

	case Transformer:
		return o.Transform(current), nil

	default:
		return nil, fmt.Errorf("unsupported stage type %s", op.Type())
	}
}
