/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics.go
Description: Prometheus instrumentation for bitlens. Collector implements the
pipeline Observer and also records frame-width scans and pattern searches. Metrics
live in a private registry and can be exported in the textfile format.
*/

package metrics

import (
	"fmt"
	"time"

	"github.com/kleascm/bitlens/pkg/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bitlens"

// Collector gathers pipeline, analysis and search metrics
type Collector struct {
	registry *prometheus.Registry

	stagesTotal    *prometheus.CounterVec
	stageErrors    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	stageOutput    *prometheus.GaugeVec
	analysesTotal  prometheus.Counter
	bestWidth      prometheus.Gauge
	bestScore      prometheus.Gauge
	searchesTotal  prometheus.Counter
	matchesTotal   prometheus.Counter
	bitsLoadedSize prometheus.Counter
}

var _ pipeline.Observer = (*Collector)(nil)

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stages_total",
			Help:      "Pipeline stages evaluated successfully, by stage type.",
		}, []string{"type"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_errors_total",
			Help:      "Pipeline stages that failed, by stage type.",
		}, []string{"type"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent evaluating one pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"type"}),
		stageOutput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_output_bits",
			Help:      "Buffer length after the most recent stage of each type.",
		}, []string{"type"}),
		analysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "frame_width_scans_total",
			Help:      "Frame-width scans performed.",
		}),
		bestWidth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "best_width",
			Help:      "Best frame width of the most recent scan.",
		}),
		bestScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "best_score",
			Help:      "Score of the best width of the most recent scan.",
		}),
		searchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "searches_total",
			Help:      "Pattern searches performed.",
		}),
		matchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "matches_total",
			Help:      "Pattern matches found.",
		}),
		bitsLoadedSize: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "loaded_bytes_total",
			Help:      "Bytes read from source files.",
		}),
	}

	c.registry.MustRegister(
		c.stagesTotal,
		c.stageErrors,
		c.stageDuration,
		c.stageOutput,
		c.analysesTotal,
		c.bestWidth,
		c.bestScore,
		c.searchesTotal,
		c.matchesTotal,
		c.bitsLoadedSize,
	)
	return c
}

// Registry exposes the private registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// StageCompleted implements pipeline.Observer
func (c *Collector) StageCompleted(op pipeline.BitOperation, elapsed time.Duration, bitsOut int) {
	t := string(op.Type())
	c.stagesTotal.WithLabelValues(t).Inc()
	c.stageDuration.WithLabelValues(t).Observe(elapsed.Seconds())
	c.stageOutput.WithLabelValues(t).Set(float64(bitsOut))
}

// StageFailed implements pipeline.Observer
func (c *Collector) StageFailed(op pipeline.BitOperation, _ error) {
	c.stageErrors.WithLabelValues(string(op.Type())).Inc()
}

// ObserveAnalysis records one frame-width scan
func (c *Collector) ObserveAnalysis(bestWidth int, bestScore float64) {
	c.analysesTotal.Inc()
	c.bestWidth.Set(float64(bestWidth))
	c.bestScore.Set(bestScore)
}

// ObserveSearch records one pattern search
func (c *Collector) ObserveSearch(matches int) {
	c.searchesTotal.Inc()
	c.matchesTotal.Add(float64(matches))
}

// ObserveLoad records bytes read from disk
func (c *Collector) ObserveLoad(bytes int) {
	c.bitsLoadedSize.Add(float64(bytes))
}

// WriteTextfile exports every metric in the node-exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Chain fans observer events out to several observers
type Chain []pipeline.Observer

// StageCompleted implements pipeline.Observer
func (ch Chain) StageCompleted(op pipeline.BitOperation, elapsed time.Duration, bitsOut int) {
	for _, o := range ch {
		if o != nil {
			o.StageCompleted(op, elapsed, bitsOut)
		}
	}
}

// StageFailed implements pipeline.Observer
func (ch Chain) StageFailed(op pipeline.BitOperation, err error) {
	for _, o := range ch {
		if o != nil {
			o.StageFailed(op, err)
		}
	}
}
