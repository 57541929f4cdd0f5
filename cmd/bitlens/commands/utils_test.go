/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils_test.go
Description: Tests for configuration defaults and numeric argument parsing.
*/

package commands_test

import (
	"testing"

	"github.com/kleascm/bitlens/cmd/bitlens/commands"
	"github.com/kleascm/bitlens/pkg/analysis"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultsMatchAnalysisOptions tests that the registered defaults match the analysis defaults
func TestDefaultsMatchAnalysisOptions(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	commands.SetDefaults(viper.GetViper())
	assert.Equal(t, analysis.DefaultOptions(), commands.AnalysisOptions())
	assert.Equal(t, 64, viper.GetInt("view.frame_width"))
	assert.Equal(t, "./bitlens.db", viper.GetString("storage.db_path"))
}

// TestEnvironmentOverridesDefaults tests that BITLENS environment variables override defaults
func TestEnvironmentOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("BITLENS_ANALYSIS_MAX_WIDTH", "128")

	require.NoError(t, commands.LoadConfig())
	assert.Equal(t, 128, commands.AnalysisOptions().MaxWidth)
	assert.Equal(t, 1, commands.AnalysisOptions().MinWidth)
}

// TestParseCount tests evaluating numeric arguments
func TestParseCount(t *testing.T) {
	n, err := commands.ParseCount("width", "8 * 4 + 1")
	require.NoError(t, err)
	assert.Equal(t, 33, n)

	_, err = commands.ParseCount("width", "8/0")
	assert.ErrorContains(t, err, `invalid width "8/0"`)
}
