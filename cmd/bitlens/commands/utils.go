/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the bitlens commands. Provides configuration loading,
logging setup, metrics export and input loading used across all command implementations.
*/

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/kleascm/bitlens/pkg/analysis"
	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/kleascm/bitlens/pkg/logging"
	"github.com/kleascm/bitlens/pkg/mathexpr"
	"github.com/kleascm/bitlens/pkg/metrics"
	"github.com/kleascm/bitlens/pkg/render"
	"github.com/kleascm/bitlens/pkg/storage"
	"github.com/spf13/viper"
)

// Version is stamped into reports
const Version = "1.0.0"

// SetDefaults registers the default value of every configuration key
func SetDefaults(v *viper.Viper) {
	defaults := analysis.DefaultOptions()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "custom")
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("log_max_files", 10)
	v.SetDefault("analysis.min_width", defaults.MinWidth)
	v.SetDefault("analysis.max_width", defaults.MaxWidth)
	v.SetDefault("analysis.delta", defaults.Delta)
	v.SetDefault("analysis.harmonic_threshold", defaults.HarmonicThreshold)
	v.SetDefault("analysis.harmonic_min_score", defaults.HarmonicMinScore)
	v.SetDefault("view.frame_width", render.DefaultFrameWidth)
	v.SetDefault("storage.db_path", "./bitlens.db")
	v.SetDefault("metrics_file", "")
}

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	SetDefaults(viper.GetViper())

	// Set config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// BITLENS_ANALYSIS_MAX_WIDTH overrides analysis.max_width
	viper.SetEnvPrefix("BITLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return nil
}

// SetupLogging builds the logger from the loaded configuration
func SetupLogging() (*logging.Logger, error) {
	config := logging.DefaultConfig()
	config.Level = logging.LogLevel(strings.ToLower(viper.GetString("log_level")))
	config.Format = logging.LogFormat(strings.ToLower(viper.GetString("log_format")))
	config.OutputDir = viper.GetString("log_dir")
	config.MaxFiles = viper.GetInt("log_max_files")

	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// prepare runs the config and logging steps every command starts with
func prepare() (*logging.Logger, *metrics.Collector, error) {
	if err := LoadConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging()
	if err != nil {
		return nil, nil, err
	}
	return logger, metrics.NewCollector(), nil
}

// finish exports metrics when a textfile path is configured and closes the logger
func finish(logger *logging.Logger, collector *metrics.Collector) {
	if path := viper.GetString("metrics_file"); path != "" {
		if err := collector.WriteTextfile(path); err != nil {
			logger.Warning("failed to write metrics file", map[string]interface{}{"path": path, "error": err})
		}
	}
	logger.Close()
}

// AnalysisOptions reads the frame width scan settings
func AnalysisOptions() analysis.Options {
	return analysis.Options{
		MinWidth:          viper.GetInt("analysis.min_width"),
		MaxWidth:          viper.GetInt("analysis.max_width"),
		Delta:             viper.GetInt("analysis.delta"),
		HarmonicThreshold: viper.GetFloat64("analysis.harmonic_threshold"),
		HarmonicMinScore:  viper.GetFloat64("analysis.harmonic_min_score"),
	}
}

// ParseCount evaluates a numeric argument, which may be an arithmetic expression
func ParseCount(name, expr string) (int, error) {
	n, err := mathexpr.Eval(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, expr, err)
	}
	return n, nil
}

// loadInput reads path into a bit buffer, reporting progress for large files
func loadInput(ctx context.Context, path string, logger *logging.Logger, collector *metrics.Collector) (*bits.Buffer, error) {
	progress := make(chan storage.LoadProgress, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if p.Total > storage.ChunkSize {
				logger.Debug("LOAD: reading file", map[string]interface{}{
					"path":     path,
					"progress": fmt.Sprintf("%.0f%%", p.Fraction()*100),
				})
			}
		}
	}()

	buf, err := storage.ReadFileWithProgress(ctx, path, progress)
	<-done
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	logger.LogLoad(path, (buf.Len()+7)/8)
	collector.ObserveLoad((buf.Len() + 7) / 8)
	return buf, nil
}

// openStore opens the sqlite session file
func openStore(logger *logging.Logger) (*storage.DB, error) {
	db, err := storage.NewDB(storage.Config{Path: viper.GetString("storage.db_path")}, logger.GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	return db, nil
}
