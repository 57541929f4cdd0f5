/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file retention for bitlens. Lists the timestamped log files in a
directory and removes the oldest beyond the configured count.
*/

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// LogManager applies retention to a log directory
type LogManager struct {
	logDir   string
	maxFiles int
}

// NewLogManager creates a new log manager
func NewLogManager(logDir string, maxFiles int) *LogManager {
	return &LogManager{logDir: logDir, maxFiles: maxFiles}
}

// LogStats holds statistics about log files
type LogStats struct {
	TotalFiles int       `json:"total_files"`
	TotalSize  int64     `json:"total_size"`
	OldestFile time.Time `json:"oldest_file"`
	NewestFile time.Time `json:"newest_file"`
}

type logFile struct {
	path string
	info os.FileInfo
}

func (lm *LogManager) files() ([]logFile, error) {
	paths, err := filepath.Glob(filepath.Join(lm.logDir, logFilePrefix+"*.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob log files: %w", err)
	}

	files := make([]logFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		files = append(files, logFile{path: p, info: info})
	}

	// oldest first; names carry the timestamp so they break ties
	sort.Slice(files, func(i, j int) bool {
		mi, mj := files[i].info.ModTime(), files[j].info.ModTime()
		if mi.Equal(mj) {
			return files[i].path < files[j].path
		}
		return mi.Before(mj)
	})
	return files, nil
}

// CleanupOldLogs removes the oldest log files beyond maxFiles
func (lm *LogManager) CleanupOldLogs() error {
	if lm.maxFiles <= 0 {
		return nil
	}
	files, err := lm.files()
	if err != nil {
		return err
	}
	if len(files) <= lm.maxFiles {
		return nil
	}

	for _, f := range files[:len(files)-lm.maxFiles] {
		if err := os.Remove(f.path); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", f.path, err)
		}
	}
	return nil
}

// GetLogStats returns statistics about log files
func (lm *LogManager) GetLogStats() (*LogStats, error) {
	files, err := lm.files()
	if err != nil {
		return nil, err
	}

	stats := &LogStats{TotalFiles: len(files)}
	for i, f := range files {
		stats.TotalSize += f.info.Size()
		if i == 0 {
			stats.OldestFile = f.info.ModTime()
		}
		stats.NewestFile = f.info.ModTime()
	}
	return stats, nil
}
