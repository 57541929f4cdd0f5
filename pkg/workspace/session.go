/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: session.go
Description: Session host for worksheets. Resolves each worksheet's source bits,
builds the explicit source map for multi-worksheet loads and keeps the most recent
error as a single advisory message.
*/

package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/kleascm/bitlens/pkg/pipeline"
	"github.com/kleascm/bitlens/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Session holds the ordered worksheets and the current selection
type Session struct {
	ID         string
	Worksheets []*Worksheet
	Current    int
	// LastError is the most recent failure, cleared by the next successful action
	LastError string

	logger logrus.FieldLogger
}

// NewSession creates an empty session
func NewSession(logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{ID: uuid.New().String(), logger: logger}
}

// Fail records err as the advisory message and returns it
func (s *Session) Fail(err error) error {
	if err != nil {
		s.LastError = err.Error()
	}
	return err
}

// Succeed clears the advisory message
func (s *Session) Succeed() {
	s.LastError = ""
}

// AddWorksheet appends a new worksheet; names are unique
func (s *Session) AddWorksheet(name, filePath string) (*Worksheet, error) {
	if name == "" {
		return nil, s.Fail(errors.New("worksheet name is required"))
	}
	if _, _, err := s.Lookup(name); err == nil {
		return nil, s.Fail(fmt.Errorf("worksheet %q already exists", name))
	}
	ws := NewWorksheet(name, filePath)
	s.Worksheets = append(s.Worksheets, ws)
	s.Succeed()
	return ws, nil
}

// Lookup finds a worksheet by name
func (s *Session) Lookup(name string) (int, *Worksheet, error) {
	for i, ws := range s.Worksheets {
		if ws.Name == name {
			return i, ws, nil
		}
	}
	return -1, nil, fmt.Errorf("worksheet %q not found", name)
}

// RemoveWorksheet deletes a worksheet and keeps Current in range
func (s *Session) RemoveWorksheet(name string) error {
	idx, _, err := s.Lookup(name)
	if err != nil {
		return s.Fail(err)
	}
	s.Worksheets = append(s.Worksheets[:idx], s.Worksheets[idx+1:]...)
	if s.Current >= len(s.Worksheets) {
		s.Current = len(s.Worksheets) - 1
	}
	if s.Current < 0 {
		s.Current = 0
	}
	s.Succeed()
	return nil
}

// Select makes index the current worksheet
func (s *Session) Select(index int) error {
	if index < 0 || index >= len(s.Worksheets) {
		return s.Fail(fmt.Errorf("worksheet index %d out of range", index))
	}
	s.Current = index
	s.Succeed()
	return nil
}

// Sources loads every worksheet's source file. Worksheets without a file map to
// nil. Unreadable files also map to nil and their read errors are returned by
// worksheet index, so a stage reading them can fail instead of skipping them.
func (s *Session) Sources(ctx context.Context, loader pipeline.ByteLoader) (map[int]*bits.Buffer, map[int]error) {
	sources := make(map[int]*bits.Buffer, len(s.Worksheets))
	failed := make(map[int]error)
	for i, ws := range s.Worksheets {
		sources[i] = nil
		if ws.FilePath == "" {
			continue
		}
		data, err := loader(ctx, ws.FilePath)
		if err != nil {
			failed[i] = fmt.Errorf("worksheet %q: %w", ws.Name, err)
			continue
		}
		sources[i] = bits.FromBytes(data)
	}
	return sources, failed
}

// Prepare builds the pipeline input for the worksheet at index. A nil loader reads
// from disk through storage.ReadBytes. An unreadable own source fails only when no
// enabled load stage replaces the initial buffer.
func (s *Session) Prepare(ctx context.Context, index int, loader pipeline.ByteLoader) (pipeline.Input, error) {
	if index < 0 || index >= len(s.Worksheets) {
		return pipeline.Input{}, fmt.Errorf("worksheet index %d out of range", index)
	}
	if loader == nil {
		loader = storage.ReadBytes
	}
	sources, failed := s.Sources(ctx, loader)
	for i, err := range failed {
		s.logger.WithField("worksheet", i).WithError(err).Warn("LOAD: worksheet source could not be read")
	}

	in := pipeline.Input{Worksheets: sources, Failed: failed, Current: index}
	if src := sources[index]; src != nil {
		in.Initial = src
	} else {
		in.Initial = bits.New(0)
	}
	if err, ok := failed[index]; ok && !loadsFromScratch(s.Worksheets[index].Operations) {
		return in, err
	}
	return in, nil
}

func loadsFromScratch(ops []pipeline.BitOperation) bool {
	for _, op := range ops {
		if op.Enabled() && pipeline.IsLoader(op) {
			return true
		}
	}
	return false
}

// Run evaluates the worksheet at index. Stage failures are collected in the result
// and the first of them becomes the advisory message; without stage failures an
// unreadable own source of a load-mode worksheet is the advisory message. Attached
// patterns are searched against the output.
func (s *Session) Run(ctx context.Context, index int, runner *pipeline.Runner) (*pipeline.Result, error) {
	r := *runner
	if r.Loader == nil {
		r.Loader = storage.ReadBytes
	}
	in, err := s.Prepare(ctx, index, r.Loader)
	if err != nil {
		return nil, s.Fail(err)
	}

	ws := s.Worksheets[index]
	result, err := r.Run(ctx, ws.Operations, in)
	if err != nil {
		return nil, s.Fail(err)
	}

	if len(result.Errors) > 0 {
		s.LastError = result.Errors[0].Error()
		for _, stageErr := range result.Errors {
			s.logger.WithFields(logrus.Fields{
				"worksheet": ws.Name,
				"stage":     stageErr.Name,
				"index":     stageErr.Index,
			}).WithError(stageErr.Err).Warn("STAGE: stage failed")
		}
	} else if err, ok := in.Failed[index]; ok {
		s.LastError = err.Error()
	} else {
		s.Succeed()
	}

	for _, p := range ws.Patterns {
		p.Search(result.Bits)
	}
	return result, nil
}
