/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging system for bitlens. Wraps logrus with timestamped log files,
JSON, text and custom formats, an async entry queue and helpers for pipeline,
analysis, search and load events.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

const logFilePrefix = "bitlens_"

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level" mapstructure:"log_level"`
	Format    LogFormat `json:"format" mapstructure:"log_format"`
	OutputDir string    `json:"output_dir" mapstructure:"log_dir"` // empty disables file output
	MaxFiles  int       `json:"max_files" mapstructure:"log_max_files"`
	Timestamp bool      `json:"timestamp"`
	Caller    bool      `json:"caller"`
	Colors    bool      `json:"colors"`

	// Console receives log lines besides the file; defaults to stderr
	Console io.Writer `json:"-"`
}

// DefaultConfig returns the configuration used when none is given
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatCustom,
		OutputDir: "./logs",
		MaxFiles:  10,
		Timestamp: true,
		Colors:    true,
	}
}

// Validate checks the LoggerConfig for invalid or missing values
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

type logEntry struct {
	level  logrus.Level
	msg    string
	fields logrus.Fields
}

// Logger provides structured logging with an async queue
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	fileHandle *os.File
	filePath   string
	startTime  time.Time

	logQueue  chan logEntry
	done      chan struct{}
	closeOnce sync.Once
}

// NewLogger creates a new logger instance
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
		logQueue:  make(chan logEntry, 1024),
		done:      make(chan struct{}),
	}

	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	go l.runLogQueue()

	return l, nil
}

func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	if err := l.setFormatter(); err != nil {
		return err
	}

	console := l.config.Console
	if console == nil {
		console = os.Stderr
	}
	l.logger.SetOutput(console)

	return l.setupFileOutput(console)
}

func (l *Logger) setFormatter() error {
	prettyCaller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: prettyCaller,
		})

	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.config.Colors,
			DisableColors:    !l.config.Colors,
			CallerPrettyfier: prettyCaller,
		})

	case LogFormatCustom:
		l.logger.SetFormatter(&PrefixFormatter{
			Timestamp: l.config.Timestamp,
			Caller:    l.config.Caller,
			Colors:    l.config.Colors,
		})

	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}

	return nil
}

func (l *Logger) setupFileOutput(console io.Writer) error {
	if l.config.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	l.filePath = filepath.Join(l.config.OutputDir, fmt.Sprintf("%s%s.log", logFilePrefix, timestamp))

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.logger.SetOutput(io.MultiWriter(console, file))

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   l.filePath,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Debug("bitlens logging initialized")

	return nil
}

// runLogQueue flushes queued entries until Close; remaining entries are drained
func (l *Logger) runLogQueue() {
	defer close(l.done)
	for entry := range l.logQueue {
		l.logger.WithFields(entry.fields).Log(entry.level, entry.msg)
	}
}

func (l *Logger) enqueue(level logrus.Level, msg string, fields map[string]interface{}) {
	if !l.logger.IsLevelEnabled(level) {
		return
	}
	l.logQueue <- logEntry{level: level, msg: msg, fields: fields}
}

// LogStage logs a completed pipeline stage
func (l *Logger) LogStage(index int, name string, duration time.Duration, bitsOut int) {
	l.logger.WithFields(logrus.Fields{
		"stage":    index,
		"name":     name,
		"duration": duration,
		"bits":     bitsOut,
	}).Info("Stage completed")
}

// LogStageError logs a failed pipeline stage
func (l *Logger) LogStageError(index int, name string, err error) {
	l.logger.WithFields(logrus.Fields{
		"stage": index,
		"name":  name,
	}).WithError(err).Warn("Stage failed")
}

// LogAnalysis logs a frame-width result
func (l *Logger) LogAnalysis(source string, width int, score float64, corrected bool) {
	l.logger.WithFields(logrus.Fields{
		"source":    source,
		"width":     width,
		"score":     score,
		"corrected": corrected,
	}).Info("Frame width analyzed")
}

// LogSearch logs a pattern search
func (l *Logger) LogSearch(pattern string, matches int) {
	l.logger.WithFields(logrus.Fields{
		"pattern": pattern,
		"matches": matches,
	}).Info("Pattern searched")
}

// LogLoad logs a file read
func (l *Logger) LogLoad(path string, bytes int) {
	l.logger.WithFields(logrus.Fields{
		"path":  path,
		"bytes": bytes,
	}).Debug("File loaded")
}

// Close drains the queue, closes the log file and applies retention
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.logQueue)
		<-l.done

		if l.fileHandle != nil {
			l.fileHandle.Close()
			l.logger.SetOutput(io.Discard)
		}

		if l.config.OutputDir != "" {
			manager := NewLogManager(l.config.OutputDir, l.config.MaxFiles)
			if cerr := manager.CleanupOldLogs(); cerr != nil {
				err = fmt.Errorf("failed to cleanup log files: %w", cerr)
			}
		}
	})
	return err
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// FilePath returns the current log file, or "" when file output is disabled
func (l *Logger) FilePath() string {
	return l.filePath
}

// Debug logs a debug message (async)
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.enqueue(logrus.DebugLevel, msg, fields)
}

// Info logs an info message (async)
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.enqueue(logrus.InfoLevel, msg, fields)
}

// Warning logs a warning message (async)
func (l *Logger) Warning(msg string, fields map[string]interface{}) {
	l.enqueue(logrus.WarnLevel, msg, fields)
}

// Error logs an error message (async)
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.enqueue(logrus.ErrorLevel, msg, fields)
}
