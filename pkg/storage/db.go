/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: db.go
Description: Session database. Opens the sqlite session file through GORM with the
pure Go driver, applies connection pragmas and migrates the worksheet, pattern and
session tables.
*/

package storage

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path string `mapstructure:"db_path"` // sqlite file, or ":memory:"
}

// DB wraps the GORM database instance
type DB struct {
	db *gorm.DB
}

// NewDB opens (creating if needed) the session database
func NewDB(config Config, log logrus.FieldLogger) (*DB, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	var gormLog logger.Interface
	if log != nil {
		gormLog = logger.New(
			log,
			logger.Config{
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	dialector := sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        config.Path,
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// a single connection keeps ":memory:" databases shared across queries
	sqlDB.SetMaxOpenConns(1)

	if err := configureSQLite(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}

	if err := db.AutoMigrate(&WorksheetRecord{}, &PatternRecord{}, &SessionRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate session database: %w", err)
	}

	if log != nil {
		log.WithField("path", config.Path).Debug("STORE: session database initialized")
	}

	return &DB{db: db}, nil
}

func configureSQLite(sqlDB *sql.DB) error {
	pragmaSettings := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=memory",
	}

	for _, pragma := range pragmaSettings {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}

	return nil
}

// GetDB returns the underlying GORM database instance
func (db *DB) GetDB() *gorm.DB {
	return db.db
}

// Worksheets returns a repository over the worksheet table
func (db *DB) Worksheets() *WorksheetRepository {
	return NewWorksheetRepository(db.db)
}

// Sessions returns a repository over the session table
func (db *DB) Sessions() *SessionRepository {
	return NewSessionRepository(db.db)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database connection is healthy
func (db *DB) Health() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
