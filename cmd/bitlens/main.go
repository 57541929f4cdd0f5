/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for bitlens. Wires the apply, analyze, search,
dump and worksheet commands together with configuration and logging flags.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kleascm/bitlens/cmd/bitlens/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile  string
	logLevel    string
	logFormat   string
	logDir      string
	metricsFile string
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "bitlens",
		Short: "bitlens - bit-level file inspector",
		Long: `bitlens reads files as MSB-first bit streams and reshapes them through pipelines
of take/skip sequences, inversion, truncation and block, convolutional or symbol
interleavers. It locates bit patterns within a mismatch tolerance and estimates the
frame width of repetitive data.`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "./logs", "Log output directory (empty disables log files)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write prometheus metrics to this textfile on exit")
	rootCmd.PersistentFlags().String("db", "./bitlens.db", "Session file for worksheets")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))
	viper.BindPFlag("storage.db_path", rootCmd.PersistentFlags().Lookup("db"))

	// Add apply command
	applyCmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Run a stage pipeline over a file",
		Long: `Run the --stage pipeline over a file in order. Stage specs:

  seq=<grammar>            take/reverse/invert/skip sequence, e.g. seq=t4s4
  invert                   invert every bit
  truncate=<start>:<end>   keep bits start..end
  block=<W>x<D>[:de]       block interleaver
  conv=<B>x<M>[:de]        convolutional interleaver
  symbol=<S>:<W>x<D>[:de]  symbol interleaver
  load=<path>              replace the input with a file

Prefix a spec with '!' to add the stage disabled. Numbers accept arithmetic
expressions such as 8*100. Failing stages are reported and the run continues.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunApply,
	}
	applyCmd.Flags().StringArray("stage", []string{}, "Stage spec (repeatable, applied in order)")
	applyCmd.Flags().String("output", "", "Write the result to this file instead of printing it")
	addViewFlags(applyCmd)
	rootCmd.AddCommand(applyCmd)

	// Add analyze command
	analyzeCmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Estimate the frame width of files",
		Long: `Score every frame width in the configured range by column entropy, or by
repetition when --delta is set, and report the most structured width per file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunAnalyze,
	}
	analyzeCmd.Flags().Int("min", 1, "Smallest frame width to score")
	analyzeCmd.Flags().Int("max", 512, "Largest frame width to score")
	analyzeCmd.Flags().Int("delta", 0, "Compare frames this far apart instead of column entropy")
	analyzeCmd.Flags().Float64("harmonic-threshold", 0.7, "Fraction of the best score a divisor width needs to replace it")
	analyzeCmd.Flags().Int("top", 5, "Number of widths to list per file")
	analyzeCmd.Flags().Int("jobs", 0, "Files scanned in parallel (0 = number of CPUs)")
	analyzeCmd.Flags().String("report", "", "Write an HTML and JSON report to this directory")

	viper.BindPFlag("analysis.min_width", analyzeCmd.Flags().Lookup("min"))
	viper.BindPFlag("analysis.max_width", analyzeCmd.Flags().Lookup("max"))
	viper.BindPFlag("analysis.delta", analyzeCmd.Flags().Lookup("delta"))
	viper.BindPFlag("analysis.harmonic_threshold", analyzeCmd.Flags().Lookup("harmonic-threshold"))

	rootCmd.AddCommand(analyzeCmd)

	// Add search command
	searchCmd := &cobra.Command{
		Use:   "search <file>",
		Short: "Locate a bit pattern in a file",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunSearch,
	}
	searchCmd.Flags().String("pattern", "", "Pattern to search for (required)")
	searchCmd.Flags().String("format", "hex", "Pattern format (hex, ascii, bits)")
	searchCmd.Flags().Int("garbles", 0, "Maximum mismatched bits per match")
	searchCmd.Flags().StringArray("stage", []string{}, "Stage spec applied before searching (repeatable)")
	searchCmd.Flags().Int("limit", 50, "Maximum matches to print (0 = all)")
	searchCmd.MarkFlagRequired("pattern")
	rootCmd.AddCommand(searchCmd)

	// Add dump command
	dumpCmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Render a file as bits, hex or ASCII",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunDump,
	}
	addViewFlags(dumpCmd)
	dumpCmd.Flags().String("offset", "0", "First bit (bits view) or byte to render")
	dumpCmd.Flags().String("rows", "0", "Rows to render (0 = all)")
	rootCmd.AddCommand(dumpCmd)

	rootCmd.AddCommand(worksheetCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Execute root command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().String("view", "bits", "View (bits, hex, ascii)")
	cmd.Flags().String("width", "", "Frame width: bits per row in the bits view, bytes per row otherwise")
}

// worksheetCommand builds the worksheet command tree
func worksheetCommand() *cobra.Command {
	worksheetCmd := &cobra.Command{
		Use:   "worksheet",
		Short: "Manage worksheets in the session file",
		Long: `Worksheets pair an optional source file with their own stage list and search
patterns. They are kept in the session file and can feed one another through
sheets=<idx>@<grammar>,... stages.`,
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a worksheet",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunWorksheetAdd,
	}
	addCmd.Flags().String("file", "", "Source file of the worksheet")
	addCmd.Flags().StringArray("stage", []string{}, "Stage spec (repeatable)")

	stageCmd := &cobra.Command{
		Use:   "stage <name> <spec>...",
		Short: "Append stages to a worksheet",
		Args:  cobra.MinimumNArgs(2),
		RunE:  commands.RunWorksheetStage,
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <name> <index>",
		Short: "Enable or disable one stage",
		Args:  cobra.ExactArgs(2),
		RunE:  commands.RunWorksheetToggle,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List worksheets",
		Args:  cobra.NoArgs,
		RunE:  commands.RunWorksheetList,
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a worksheet's stages and patterns",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunWorksheetShow,
	}

	runCmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a worksheet's pipeline and search its patterns",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunWorksheetRun,
	}
	runCmd.Flags().String("output", "", "Write the result to this file")

	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a worksheet",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunWorksheetRemove,
	}

	patternCmd := &cobra.Command{
		Use:   "pattern",
		Short: "Manage worksheet search patterns",
	}
	patternAddCmd := &cobra.Command{
		Use:   "add <worksheet>",
		Short: "Attach a search pattern to a worksheet",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunWorksheetPatternAdd,
	}
	patternAddCmd.Flags().String("name", "", "Pattern name (defaults to the input)")
	patternAddCmd.Flags().String("format", "hex", "Pattern format (hex, ascii, bits)")
	patternAddCmd.Flags().String("input", "", "Pattern text (required)")
	patternAddCmd.Flags().Int("garbles", 0, "Maximum mismatched bits per match")
	patternAddCmd.MarkFlagRequired("input")
	patternCmd.AddCommand(patternAddCmd)

	worksheetCmd.AddCommand(addCmd, stageCmd, toggleCmd, listCmd, showCmd, runCmd, removeCmd, patternCmd)
	return worksheetCmd
}
