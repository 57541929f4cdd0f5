/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analyze.go
Description: Analyze command implementation. Scans input files for their frame width
concurrently, prints the best widths and optionally writes an HTML and JSON report.
*/

package commands

import (
	"fmt"
	"runtime"

	"github.com/kleascm/bitlens/pkg/analysis"
	"github.com/kleascm/bitlens/pkg/reporting"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// RunAnalyze runs the frame width scan over every file in args
func RunAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Println("📐 bitlens - Frame Width Analysis")
	fmt.Println("================================")
	fmt.Println()

	logger, collector, err := prepare()
	if err != nil {
		return err
	}
	defer finish(logger, collector)

	opts := AnalysisOptions()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid analysis options: %w", err)
	}

	top, _ := cmd.Flags().GetInt("top")
	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	fmt.Printf("🎯 Widths %d..%d", opts.MinWidth, opts.MaxWidth)
	if opts.Delta > 0 {
		fmt.Printf(", delta %d", opts.Delta)
	}
	fmt.Printf(", %d file(s), %d job(s)\n\n", len(args), jobs)

	// a file that fails to load is reported without stopping the others
	files := make([]reporting.FileReport, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for i, path := range args {
		g.Go(func() error {
			buf, err := loadInput(ctx, path, logger, collector)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("LOAD: file skipped", map[string]interface{}{"path": path, "error": err})
				files[i] = reporting.FileReport{Path: path, Error: err.Error()}
				return nil
			}

			result := analysis.FindBestWidth(buf, opts)
			logger.LogAnalysis(path, result.BestWidth, result.BestScore, result.Corrected)
			collector.ObserveAnalysis(result.BestWidth, result.BestScore)
			files[i] = reporting.NewFileReport(path, buf.Len(), result, top)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("analysis cancelled: %w", err)
	}

	for _, fr := range files {
		printFileReport(fr)
	}

	reportDir, _ := cmd.Flags().GetString("report")
	if reportDir == "" {
		return nil
	}

	report := reporting.NewReport("Frame width analysis", Version, opts)
	report.Files = files
	htmlPath, jsonPath, err := reporting.NewGenerator(reportDir, logger.GetLogger()).Generate(report)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	fmt.Printf("📊 Report: %s\n", htmlPath)
	fmt.Printf("💾 Data:   %s\n", jsonPath)
	return nil
}

func printFileReport(fr reporting.FileReport) {
	fmt.Printf("📁 %s\n", fr.Path)
	if fr.Error != "" {
		fmt.Printf("  ❌ %s\n\n", fr.Error)
		return
	}

	if fr.BestScore == 0 {
		fmt.Printf("  🔍 No structure found in %d bits\n\n", fr.Bits)
		return
	}

	fmt.Printf("  ✅ Best width: %d (score %.4f)", fr.BestWidth, fr.BestScore)
	if fr.Corrected {
		fmt.Print(" [harmonic corrected]")
	}
	fmt.Println()
	if fr.Strip != "" {
		fmt.Printf("  |%s|\n", fr.Strip)
	}

	for i, s := range fr.Top {
		fmt.Printf("  %2d. width %-5d score %.4f\n", i+1, s.Width, s.Score)
	}
	fmt.Println()
}
