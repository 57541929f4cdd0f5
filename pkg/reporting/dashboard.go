/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dashboard.go
Description: Frame-width report generator. Writes an HTML page with a score chart
per scanned file plus a JSON copy of the same data.
*/

package reporting

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/bitlens/pkg/analysis"
	"github.com/kleascm/bitlens/pkg/render"
	"github.com/sirupsen/logrus"
)

// FileReport is the frame-width scan of one input file
type FileReport struct {
	Path      string                     `json:"path"`
	Bits      int                        `json:"bits"`
	BestWidth int                        `json:"best_width"`
	BestScore float64                    `json:"best_score"`
	Corrected bool                       `json:"corrected"`
	Top       []analysis.WidthScore      `json:"top"`
	Strip     string                     `json:"consistency_strip,omitempty"`
	Result    *analysis.FrameWidthResult `json:"-"`
	Error     string                     `json:"error,omitempty"`
}

// NewFileReport summarizes a scan result, keeping the top n widths
func NewFileReport(path string, bitLen int, result *analysis.FrameWidthResult, n int) FileReport {
	fr := FileReport{
		Path:      path,
		Bits:      bitLen,
		BestWidth: result.BestWidth,
		BestScore: result.BestScore,
		Corrected: result.Corrected,
		Top:       result.TopWidths(n),
		Result:    result,
	}
	if best, ok := result.Best(); ok {
		fr.Strip = render.ConsistencyStrip(best.Consistency)
	}
	// per-column data is only kept for the best width
	for i := range fr.Top {
		fr.Top[i].Consistency = nil
	}
	return fr
}

// Report contains all data for report generation
type Report struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	GeneratedAt time.Time        `json:"generated_at"`
	Version     string           `json:"version"`
	Options     analysis.Options `json:"options"`
	Files       []FileReport     `json:"files"`
}

// NewReport creates an empty report stamped with a fresh id
func NewReport(title, version string, opts analysis.Options) *Report {
	return &Report{
		ID:          uuid.New().String(),
		Title:       title,
		GeneratedAt: time.Now(),
		Version:     version,
		Options:     opts,
	}
}

// ChartConfig contains chart configuration
type ChartConfig struct {
	Type    string      `json:"type"`
	Title   string      `json:"title"`
	Data    interface{} `json:"data"`
	Options interface{} `json:"options"`
}

type fileView struct {
	FileReport
	ChartID   string
	ChartJSON template.JS
}

type pageData struct {
	*Report
	Views []fileView
}

// Generator writes reports into a directory
type Generator struct {
	outputDir string
	logger    logrus.FieldLogger
	templates *template.Template
}

// NewGenerator creates a new report generator
func NewGenerator(outputDir string, logger logrus.FieldLogger) *Generator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Generator{
		outputDir: outputDir,
		logger:    logger,
		templates: template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// Generate writes index.html and a timestamped JSON file, returning both paths
func (g *Generator) Generate(report *Report) (string, string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	htmlPath, err := g.generateHTML(report)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate html report: %w", err)
	}

	jsonPath, err := WriteResult(g.outputDir, "frame-width", report.Version, report)
	if err != nil {
		return "", "", err
	}

	g.logger.WithFields(logrus.Fields{
		"report": report.ID,
		"files":  len(report.Files),
		"dir":    g.outputDir,
	}).Info("ANALYSIS: report generated")
	return htmlPath, jsonPath, nil
}

func (g *Generator) generateHTML(report *Report) (string, error) {
	data := pageData{Report: report}
	for i, fr := range report.Files {
		chart, err := json.Marshal(scoreChart(fr))
		if err != nil {
			return "", err
		}
		data.Views = append(data.Views, fileView{
			FileReport: fr,
			ChartID:    fmt.Sprintf("chart-%d", i),
			ChartJSON:  template.JS(chart),
		})
	}

	outputFile := filepath.Join(g.outputDir, "index.html")
	file, err := os.Create(outputFile)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := g.templates.Execute(file, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return outputFile, nil
}

// scoreChart plots every scanned width against its score
func scoreChart(fr FileReport) *ChartConfig {
	var labels []int
	var scores []float64
	if fr.Result != nil {
		for _, s := range fr.Result.Scores {
			labels = append(labels, s.Width)
			scores = append(scores, s.Score)
		}
	}

	return &ChartConfig{
		Type:  "bar",
		Title: "Score by frame width",
		Data: map[string]interface{}{
			"labels": labels,
			"datasets": []map[string]interface{}{
				{
					"label":           "Score",
					"data":            scores,
					"backgroundColor": "rgba(75, 192, 192, 0.6)",
				},
			},
		},
		Options: map[string]interface{}{
			"responsive": true,
			"scales": map[string]interface{}{
				"y": map[string]interface{}{
					"beginAtZero": true,
				},
			},
		},
	}
}
