// Package metrics provides Prometheus metrics for loadless-unleashed.
//
// A run is a batch job, so the metrics matter two ways: scraped live from
// the optional -metrics server while a long recut grinds along, or written
// once at exit with -metrics-textfile for the node_exporter textfile
// collector.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// Analysis metrics
// =============================================================================

var (
	loadlessInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loadless_info",
			Help: "Information about the run being analyzed (value always 1)",
		},
		[]string{"version", "times_file"},
	)

	loadlessEventsParsedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loadless_events_parsed_total",
			Help: "Log records parsed into events",
		},
	)

	loadlessLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadless_loads_total",
			Help: "Loads counted per category",
		},
		[]string{"category"},
	)

	loadlessLoadSecondsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadless_load_seconds_total",
			Help: "Load time accumulated per category",
		},
		[]string{"category"},
	)

	loadlessTotalLoadSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadless_total_load_seconds",
			Help: "Sum of all load durations in the run",
		},
	)

	loadlessRTASeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadless_rta_seconds",
			Help: "Real-time attack duration (run end - run start)",
		},
	)

	loadlessLoadlessSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadless_loadless_seconds",
			Help: "RTA minus total load time (negative values are surfaced, not clamped)",
		},
	)
)

// =============================================================================
// Recut metrics
// =============================================================================

var (
	loadlessSegmentsPlanned = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadless_segments_planned",
			Help: "Keep segments produced by the planner",
		},
	)

	loadlessSegmentsExtractedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loadless_segments_extracted_total",
			Help: "Segments extracted so far",
		},
	)

	loadlessSegmentBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loadless_segment_bytes_total",
			Help: "Bytes written across extracted segments",
		},
	)

	loadlessExtractDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loadless_segment_extract_duration_seconds",
			Help:    "Wall time per segment extraction",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	loadlessRecutProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadless_recut_progress",
			Help: "Overall recut progress (0.0 to 1.0)",
		},
	)

	loadlessEncodeSpeed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadless_encode_speed",
			Help: "Most recent encode speed relative to realtime",
		},
	)

	loadlessRecutStage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loadless_recut_stage",
			Help: "Current pipeline stage (1 = active)",
		},
		[]string{"stage"},
	)
)

// recutStages are the values the stage gauge cycles through.
var recutStages = []string{"probe", "extract", "concat", "done"}

// =============================================================================
// Collector
// =============================================================================

// Collector manages all Prometheus metrics for a run.
type Collector struct {
	mu        sync.Mutex
	startTime time.Time

	// For the exit summary
	segmentsExtracted int
	segmentBytes      int64
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version   string
	TimesFile string
}

// NewCollector creates a new metrics collector on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		startTime: time.Now(),
	}

	registry.MustRegister(
		// Analysis
		loadlessInfo,
		loadlessEventsParsedTotal,
		loadlessLoadsTotal,
		loadlessLoadSecondsTotal,
		loadlessTotalLoadSeconds,
		loadlessRTASeconds,
		loadlessLoadlessSeconds,

		// Recut
		loadlessSegmentsPlanned,
		loadlessSegmentsExtractedTotal,
		loadlessSegmentBytesTotal,
		loadlessExtractDurationSeconds,
		loadlessRecutProgress,
		loadlessEncodeSpeed,
		loadlessRecutStage,
	)

	loadlessInfo.WithLabelValues(cfg.Version, cfg.TimesFile).Set(1)

	return c
}

// =============================================================================
// Update Methods
// =============================================================================

// CategoryUpdate carries per-category aggregates into the metrics layer.
// A subset of the stats package's summary to avoid coupling the layers.
type CategoryUpdate struct {
	Label   string
	Count   int
	Seconds float64
}

// RecordParsedEvents counts records successfully parsed from the log.
func (c *Collector) RecordParsedEvents(n int) {
	loadlessEventsParsedTotal.Add(float64(n))
}

// RecordReport publishes the aggregate numbers behind the written report.
func (c *Collector) RecordReport(categories []CategoryUpdate, totalLoad, rta, loadless time.Duration) {
	for _, cat := range categories {
		if cat.Count > 0 {
			loadlessLoadsTotal.WithLabelValues(cat.Label).Add(float64(cat.Count))
			loadlessLoadSecondsTotal.WithLabelValues(cat.Label).Add(cat.Seconds)
		}
	}

	loadlessTotalLoadSeconds.Set(totalLoad.Seconds())
	loadlessRTASeconds.Set(rta.Seconds())
	loadlessLoadlessSeconds.Set(loadless.Seconds())
}

// RecordSegmentsPlanned publishes the planner's segment count.
func (c *Collector) RecordSegmentsPlanned(n int) {
	loadlessSegmentsPlanned.Set(float64(n))
}

// RecordSegmentExtracted counts one finished extraction.
func (c *Collector) RecordSegmentExtracted(bytes int64, wall time.Duration) {
	c.mu.Lock()
	c.segmentsExtracted++
	c.segmentBytes += bytes
	c.mu.Unlock()

	loadlessSegmentsExtractedTotal.Inc()
	loadlessSegmentBytesTotal.Add(float64(bytes))
	loadlessExtractDurationSeconds.Observe(wall.Seconds())
}

// RecordProgress publishes the overall recut progress and encode speed.
func (c *Collector) RecordProgress(fraction, speed float64) {
	loadlessRecutProgress.Set(fraction)
	if speed > 0 {
		loadlessEncodeSpeed.Set(speed)
	}
}

// SetStage marks the given pipeline stage active and all others inactive.
func (c *Collector) SetStage(stage string) {
	for _, s := range recutStages {
		v := 0.0
		if s == stage {
			v = 1.0
		}
		loadlessRecutStage.WithLabelValues(s).Set(v)
	}
}

// Elapsed returns the wall time since the collector was created.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// SegmentsExtracted returns the running extraction count and byte total.
func (c *Collector) SegmentsExtracted() (int, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.segmentsExtracted, c.segmentBytes
}
