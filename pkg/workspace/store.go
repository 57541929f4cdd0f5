/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: store.go
Description: Conversion between a live Session and the sqlite session file.
*/

package workspace

import (
	"fmt"

	"github.com/kleascm/bitlens/pkg/pattern"
	"github.com/kleascm/bitlens/pkg/pipeline"
	"github.com/kleascm/bitlens/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Load restores the session stored in db. An empty database yields an empty session.
func Load(db *storage.DB, logger logrus.FieldLogger) (*Session, error) {
	session := NewSession(logger)

	meta, err := db.Sessions().Get()
	if err != nil {
		return nil, err
	}
	session.ID = meta.SessionID

	records, err := db.Worksheets().List()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		ws, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		session.Worksheets = append(session.Worksheets, ws)
	}

	session.Current = meta.CurrentWorksheet
	if session.Current >= len(session.Worksheets) || session.Current < 0 {
		session.Current = 0
	}

	session.logger.WithFields(logrus.Fields{
		"session":    session.ID,
		"worksheets": len(session.Worksheets),
	}).Debug("STORE: session loaded")
	return session, nil
}

// Save writes the whole session to db, replacing what was stored
func Save(db *storage.DB, session *Session) error {
	records := make([]storage.WorksheetRecord, 0, len(session.Worksheets))
	for _, ws := range session.Worksheets {
		rec, err := toRecord(ws)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	if err := db.Worksheets().SaveAll(records); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := db.Sessions().SetCurrent(session.Current); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	session.logger.WithField("worksheets", len(records)).Debug("STORE: session saved")
	return nil
}

func toRecord(ws *Worksheet) (storage.WorksheetRecord, error) {
	ops, err := pipeline.EncodeOperations(ws.Operations)
	if err != nil {
		return storage.WorksheetRecord{}, fmt.Errorf("worksheet %q: %w", ws.Name, err)
	}

	rec := storage.WorksheetRecord{
		ID:         ws.ID,
		Name:       ws.Name,
		FilePath:   ws.FilePath,
		Operations: string(ops),
	}
	for _, p := range ws.Patterns {
		rec.Patterns = append(rec.Patterns, storage.PatternRecord{
			ID:         p.ID,
			Name:       p.Name,
			Format:     string(p.Format),
			Input:      p.Input,
			MaxGarbles: p.MaxGarbles,
		})
	}
	return rec, nil
}

func fromRecord(rec storage.WorksheetRecord) (*Worksheet, error) {
	ops, err := pipeline.DecodeOperations([]byte(rec.Operations))
	if err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", rec.Name, err)
	}

	ws := &Worksheet{
		ID:         rec.ID,
		Name:       rec.Name,
		FilePath:   rec.FilePath,
		Operations: ops,
	}
	for _, pr := range rec.Patterns {
		format, err := pattern.ParseFormat(pr.Format)
		if err != nil {
			return nil, fmt.Errorf("worksheet %q pattern %q: %w", rec.Name, pr.Name, err)
		}
		p, err := pattern.New(pr.Name, format, pr.Input, pr.MaxGarbles)
		if err != nil {
			return nil, fmt.Errorf("worksheet %q pattern %q: %w", rec.Name, pr.Name, err)
		}
		p.ID = pr.ID
		ws.Patterns = append(ws.Patterns, p)
	}
	return ws, nil
}
