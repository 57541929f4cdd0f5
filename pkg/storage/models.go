/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: models.go
Description: Persistent records for the session file: worksheets with their encoded
pipelines, the search patterns attached to them and the session cursor.
*/

package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorksheetRecord is one saved worksheet. Operations holds the JSON produced by
// pipeline.EncodeOperations.
type WorksheetRecord struct {
	ID         string          `gorm:"primarykey;size:36" json:"id"`
	Name       string          `gorm:"uniqueIndex;size:100;not null" json:"name"`
	FilePath   string          `gorm:"size:1024" json:"file_path"`
	Position   int             `gorm:"index" json:"position"`
	Operations string          `gorm:"type:text" json:"operations"`
	Patterns   []PatternRecord `gorm:"foreignKey:WorksheetID;constraint:OnDelete:CASCADE" json:"patterns,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (WorksheetRecord) TableName() string {
	return "worksheets"
}

// BeforeCreate assigns a uuid when the caller did not
func (w *WorksheetRecord) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

// SanitizeFields trims user-provided fields
func (w *WorksheetRecord) SanitizeFields() {
	w.Name = strings.TrimSpace(w.Name)
	w.FilePath = strings.TrimSpace(w.FilePath)
	if w.Operations == "" {
		w.Operations = "[]"
	}
}

// IsValid checks the record has the required fields
func (w WorksheetRecord) IsValid() bool {
	return w.Name != ""
}

// PatternRecord is a saved search pattern
type PatternRecord struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	WorksheetID string    `gorm:"index;size:36;not null" json:"worksheet_id"`
	Name        string    `gorm:"size:100" json:"name"`
	Format      string    `gorm:"size:10" json:"format"`
	Input       string    `gorm:"type:text" json:"input"`
	MaxGarbles  int       `json:"max_garbles"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PatternRecord) TableName() string {
	return "patterns"
}

// BeforeCreate assigns a uuid when the caller did not
func (p *PatternRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// SessionRecord holds the single session row
type SessionRecord struct {
	ID               uint      `gorm:"primarykey" json:"-"`
	SessionID        string    `gorm:"size:36" json:"session_id"`
	CurrentWorksheet int       `json:"current_worksheet"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SessionRecord) TableName() string {
	return "session"
}
