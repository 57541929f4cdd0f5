/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logging_test.go
Description: Tests for logger configuration, formatting, file output and retention.
*/

package logging_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kleascm/bitlens/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigValidation tests logger configuration validation
func TestConfigValidation(t *testing.T) {
	assert.NoError(t, logging.DefaultConfig().Validate())

	cfg := logging.DefaultConfig()
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = logging.DefaultConfig()
	cfg.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = logging.DefaultConfig()
	cfg.MaxFiles = 0
	assert.Error(t, cfg.Validate())

	cfg.OutputDir = ""
	assert.NoError(t, cfg.Validate())

	_, err := logging.NewLogger(&logging.LoggerConfig{Level: "info", Format: "yaml"})
	assert.Error(t, err)
}

// TestLoggerWritesFileAndConsole tests that log entries reach both the file and the console
func TestLoggerWritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LogLevelDebug,
		Format:    logging.LogFormatCustom,
		OutputDir: dir,
		MaxFiles:  5,
		Console:   &console,
	})
	require.NoError(t, err)

	logger.LogStage(0, "invert", 3*time.Millisecond, 64)
	logger.LogStageError(1, "load", errors.New("boom"))
	logger.LogAnalysis("a.bin", 8, 1.5, false)
	logger.LogSearch("sync", 3)
	logger.LogLoad("a.bin", 8)
	logger.Info("queued message", map[string]interface{}{"key": "value"})

	path := logger.FilePath()
	require.NoError(t, logger.Close())

	out := console.String()
	assert.Contains(t, out, "[STAGE] Stage completed")
	assert.Contains(t, out, "bits=64 duration=3ms name=invert stage=0")
	assert.Contains(t, out, "[STAGE] Stage failed")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "[ANALYSIS] Frame width analyzed")
	assert.Contains(t, out, "score=1.5000")
	assert.Contains(t, out, "[SEARCH] Pattern searched")
	assert.Contains(t, out, "[LOAD] File loaded")
	assert.Contains(t, out, "queued message key=value")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

// TestLoggerWithoutFileOutput tests a logger configured without a log directory
func TestLoggerWithoutFileOutput(t *testing.T) {
	var console bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:   logging.LogLevelInfo,
		Format:  logging.LogFormatJSON,
		Console: &console,
	})
	require.NoError(t, err)
	assert.Empty(t, logger.FilePath())

	logger.Debug("hidden", nil)
	logger.Info("shown", nil)
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), `"msg":"shown"`)
}

// TestFormatterStripsExplicitCategory tests that the custom formatter does not repeat the category field
func TestFormatterStripsExplicitCategory(t *testing.T) {
	f := &logging.PrefixFormatter{}
	entry := logrus.NewEntry(logrus.New())
	entry.Level = logrus.WarnLevel
	entry.Message = "STORE: session saved"
	entry.Data = logrus.Fields{"worksheets": 2}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "WARNING [STORE] session saved worksheets=2\n", string(out))
}

// TestLogManagerRetention tests that old log files are pruned past the retention limit
func TestLogManagerRetention(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		p := filepath.Join(dir, fmt.Sprintf("bitlens_2024-01-0%d.log", i+1))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		stamp := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, stamp, stamp))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.log"), []byte("keep"), 0644))

	manager := logging.NewLogManager(dir, 2)
	require.NoError(t, manager.CleanupOldLogs())

	stats, err := manager.GetLogStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, int64(2), stats.TotalSize)

	_, err = os.Stat(filepath.Join(dir, "bitlens_2024-01-05.log"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "bitlens_2024-01-01.log"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "other.log"))
	assert.NoError(t, err)
}
