/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: worksheet.go
Description: Worksheet model. A worksheet owns an optional source file, an ordered
list of pipeline stages and the search patterns used against its output.
*/

package workspace

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kleascm/bitlens/pkg/pattern"
	"github.com/kleascm/bitlens/pkg/pipeline"
)

// Worksheet is one independent pipeline over a source file
type Worksheet struct {
	ID         string
	Name       string
	FilePath   string // empty when the worksheet has no source file
	Operations []pipeline.BitOperation
	Patterns   []*pattern.Pattern
}

// NewWorksheet creates an empty worksheet
func NewWorksheet(name, filePath string) *Worksheet {
	return &Worksheet{
		ID:       uuid.New().String(),
		Name:     name,
		FilePath: filePath,
	}
}

func (w *Worksheet) checkIndex(index int) error {
	if index < 0 || index >= len(w.Operations) {
		return fmt.Errorf("stage index %d out of range (worksheet %q has %d stages)", index, w.Name, len(w.Operations))
	}
	return nil
}

// AddOperation appends a stage
func (w *Worksheet) AddOperation(op pipeline.BitOperation) {
	w.Operations = append(w.Operations, op)
}

// RemoveOperation deletes the stage at index
func (w *Worksheet) RemoveOperation(index int) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}
	w.Operations = append(w.Operations[:index], w.Operations[index+1:]...)
	return nil
}

// ReplaceOperation swaps the stage at index for op, keeping its position
func (w *Worksheet) ReplaceOperation(index int, op pipeline.BitOperation) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}
	w.Operations[index] = op
	return nil
}

// MoveOperation moves the stage at from so that it ends up at index to
func (w *Worksheet) MoveOperation(from, to int) error {
	if err := w.checkIndex(from); err != nil {
		return err
	}
	if err := w.checkIndex(to); err != nil {
		return err
	}
	op := w.Operations[from]
	w.Operations = append(w.Operations[:from], w.Operations[from+1:]...)
	w.Operations = append(w.Operations[:to], append([]pipeline.BitOperation{op}, w.Operations[to:]...)...)
	return nil
}

// ToggleOperation flips the enabled flag of a stage and returns the new state
func (w *Worksheet) ToggleOperation(index int) (bool, error) {
	if err := w.checkIndex(index); err != nil {
		return false, err
	}
	op := w.Operations[index]
	op.SetEnabled(!op.Enabled())
	return op.Enabled(), nil
}

// EnabledCount returns how many stages will run
func (w *Worksheet) EnabledCount() int {
	n := 0
	for _, op := range w.Operations {
		if op.Enabled() {
			n++
		}
	}
	return n
}

// AddPattern attaches a search pattern
func (w *Worksheet) AddPattern(p *pattern.Pattern) {
	w.Patterns = append(w.Patterns, p)
}
