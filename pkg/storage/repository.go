/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: repository.go
Description: Repositories over the session tables. Worksheets are kept in Position
order; saving a worksheet replaces its pattern set in the same transaction.
*/

package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a named worksheet does not exist
var ErrNotFound = errors.New("record not found")

// WorksheetRepository provides database operations for worksheets
type WorksheetRepository struct {
	db *gorm.DB
}

// NewWorksheetRepository creates a new repository instance
func NewWorksheetRepository(db *gorm.DB) *WorksheetRepository {
	return &WorksheetRepository{db: db}
}

// List returns all worksheets with their patterns, ordered by position
func (r *WorksheetRepository) List() ([]WorksheetRecord, error) {
	var records []WorksheetRecord
	err := r.db.Preload("Patterns", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at, id")
	}).Order("position, created_at").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}
	return records, nil
}

// GetByName finds a worksheet by name
func (r *WorksheetRepository) GetByName(name string) (*WorksheetRecord, error) {
	var record WorksheetRecord
	err := r.db.Preload("Patterns").Where("name = ?", name).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("worksheet %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save creates or updates a worksheet together with its patterns
func (r *WorksheetRepository) Save(record *WorksheetRecord) error {
	if record == nil {
		return fmt.Errorf("worksheet cannot be nil")
	}
	record.SanitizeFields()
	if !record.IsValid() {
		return fmt.Errorf("worksheet is not valid: name is required")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	patterns := record.Patterns
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Patterns").Save(record).Error; err != nil {
			return fmt.Errorf("failed to save worksheet %q: %w", record.Name, err)
		}
		if err := tx.Where("worksheet_id = ?", record.ID).Delete(&PatternRecord{}).Error; err != nil {
			return err
		}
		for i := range patterns {
			patterns[i].WorksheetID = record.ID
			if patterns[i].ID == "" {
				patterns[i].ID = uuid.New().String()
			}
			if err := tx.Create(&patterns[i]).Error; err != nil {
				return fmt.Errorf("failed to save pattern %q: %w", patterns[i].Name, err)
			}
		}
		record.Patterns = patterns
		return nil
	})
}

// SaveAll replaces the whole worksheet set, assigning positions in slice order.
// Worksheets missing from records are deleted before anything is written, so a
// new record may reuse the name of one it replaces.
func (r *WorksheetRepository) SaveAll(records []WorksheetRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		repo := NewWorksheetRepository(tx)
		keep := make([]string, 0, len(records))
		for i := range records {
			if records[i].ID == "" {
				records[i].ID = uuid.New().String()
			}
			keep = append(keep, records[i].ID)
		}

		stale := tx.Model(&WorksheetRecord{})
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		var ids []string
		if err := stale.Pluck("id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			if err := repo.deleteByID(id); err != nil {
				return err
			}
		}

		for i := range records {
			records[i].Position = i
			if err := repo.Save(&records[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a worksheet and its patterns by name
func (r *WorksheetRepository) Delete(name string) error {
	record, err := r.GetByName(name)
	if err != nil {
		return err
	}
	return r.deleteByID(record.ID)
}

func (r *WorksheetRepository) deleteByID(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("worksheet_id = ?", id).Delete(&PatternRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&WorksheetRecord{}).Error
	})
}

// Count returns the number of stored worksheets
func (r *WorksheetRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&WorksheetRecord{}).Count(&count).Error
	return count, err
}

// SessionRepository stores the single session row
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the session row, creating it on first use
func (r *SessionRepository) Get() (*SessionRecord, error) {
	var record SessionRecord
	err := r.db.First(&record, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = SessionRecord{ID: 1, SessionID: uuid.New().String(), UpdatedAt: time.Now()}
		if err := r.db.Create(&record).Error; err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		return &record, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SetCurrent stores the current worksheet index
func (r *SessionRepository) SetCurrent(index int) error {
	record, err := r.Get()
	if err != nil {
		return err
	}
	record.CurrentWorksheet = index
	record.UpdatedAt = time.Now()
	return r.db.Save(record).Error
}
