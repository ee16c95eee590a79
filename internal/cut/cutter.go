package cut

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Refragg/LoadlessUnleashed/internal/config"
	"github.com/Refragg/LoadlessUnleashed/internal/media"
	"github.com/Refragg/LoadlessUnleashed/internal/metrics"
	"github.com/Refragg/LoadlessUnleashed/internal/timeline"
	"github.com/Refragg/LoadlessUnleashed/internal/timeseries"
)

// Stage names the recut pipeline phases, in order.
type Stage string

const (
	StageProbe   Stage = "probe"
	StageExtract Stage = "extract"
	StageConcat  Stage = "concat"
	StageDone    Stage = "done"
)

// Callbacks let a renderer follow the recut as it happens. All callbacks
// are optional and may be invoked from worker goroutines.
type Callbacks struct {
	OnStage          func(stage Stage)
	OnSegmentStart   func(status SegmentStatus)
	OnSegmentDone    func(status SegmentStatus)
	OnConcatProgress func(p media.Progress)
}

// Result summarizes a finished recut.
type Result struct {
	OutputPath string
	Source     media.SourceInfo

	Segments int
	Reused   bool

	// OutputLength is the planned duration of the loadless video.
	OutputLength time.Duration

	// Bytes written across the extracted segments.
	SegmentBytes int64

	Elapsed                   time.Duration
	WallP50, WallP90, WallP99 time.Duration
}

// Cutter runs the recut pipeline: probe the source, extract every planned
// segment, then concatenate the units in index order.
type Cutter struct {
	cfg     *config.Config
	enc     media.Encoder
	logger  *slog.Logger
	metrics *metrics.Collector

	tracker    *Tracker
	throughput *timeseries.ThroughputTracker
	callbacks  Callbacks
}

// NewCutter creates a cutter. The collector may be nil when metrics are
// disabled.
func NewCutter(cfg *config.Config, enc media.Encoder, logger *slog.Logger, collector *metrics.Collector) *Cutter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cutter{
		cfg:        cfg,
		enc:        enc,
		logger:     logger,
		metrics:    collector,
		throughput: timeseries.NewThroughputTracker(),
	}
}

// SetCallbacks installs the renderer callbacks. Call before Run.
func (c *Cutter) SetCallbacks(cb Callbacks) {
	c.callbacks = cb
}

// Tracker returns the live segment state. Nil until Run has planned the
// segments.
func (c *Cutter) Tracker() *Tracker {
	return c.tracker
}

// Throughput returns the encode output throughput tracker.
func (c *Cutter) Throughput() *timeseries.ThroughputTracker {
	return c.throughput
}

// Run executes the recut for the given timeline and returns the summary.
func (c *Cutter) Run(ctx context.Context, tl timeline.Timeline) (Result, error) {
	start := time.Now()

	plan, closed := Plan(tl)
	if len(plan) == 0 {
		return Result{}, fmt.Errorf("the timeline yields no segments to keep")
	}
	if !closed {
		// The log never marked the run end, so everything after the last
		// load is dropped from the recut.
		c.logger.Warn("run_end_missing",
			"segments", len(plan),
			"last_segment_end", plan[len(plan)-1].End.String(),
		)
	}

	c.setStage(StageProbe)
	info, err := c.enc.Probe(ctx, c.cfg.VideoPath)
	if err != nil {
		return Result{}, fmt.Errorf("probe source: %w", err)
	}
	c.logger.Info("source_probed",
		"path", info.Path,
		"duration", info.Duration.String(),
		"bitrate", info.Bitrate,
		"size", info.Size,
	)

	c.tracker = NewTracker(plan, info.Duration)
	if c.metrics != nil {
		c.metrics.RecordSegmentsPlanned(len(plan))
	}

	var outputLength time.Duration
	for _, seg := range plan {
		outputLength += seg.Length(info.Duration)
	}

	// Sample encode throughput once a second while the pipeline runs.
	sampleCtx, stopSampling := context.WithCancel(ctx)
	defer stopSampling()
	go c.sampleThroughput(sampleCtx)

	var units []media.Unit
	if c.cfg.SkipSplit {
		units, err = c.reuseSegments(plan)
	} else {
		c.setStage(StageExtract)
		units, err = c.extractSegments(ctx, plan, info)
	}
	if err != nil {
		return Result{}, err
	}

	c.setStage(StageConcat)
	outPath, err := c.concatenate(ctx, units, info, outputLength)
	if err != nil {
		return Result{}, err
	}
	c.setStage(StageDone)

	p50, p90, p99 := c.tracker.WallQuantiles()
	res := Result{
		OutputPath:   outPath,
		Source:       info,
		Segments:     len(plan),
		Reused:       c.cfg.SkipSplit,
		OutputLength: outputLength,
		SegmentBytes: c.tracker.Bytes(),
		Elapsed:      time.Since(start),
		WallP50:      p50,
		WallP90:      p90,
		WallP99:      p99,
	}
	c.logger.Info("recut_complete",
		"output", res.OutputPath,
		"segments", res.Segments,
		"length", res.OutputLength.String(),
		"elapsed", res.Elapsed.String(),
	)
	return res, nil
}

// extractSegments runs the per-segment extractions, at most cfg.Parallel
// at a time. The first failure cancels the remaining work.
func (c *Cutter) extractSegments(ctx context.Context, plan []Segment, info media.SourceInfo) ([]media.Unit, error) {
	units := make([]media.Unit, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Parallel)
	for _, seg := range plan {
		g.Go(func() error {
			unit, err := c.extractOne(gctx, seg, info)
			if err != nil {
				c.tracker.Fail(seg.Index, err)
				return err
			}
			units[seg.Index] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// extractOne cuts a single segment out of the source.
func (c *Cutter) extractOne(ctx context.Context, seg Segment, info media.SourceInfo) (media.Unit, error) {
	started := time.Now()
	c.tracker.Start(seg.Index)
	c.notifySegmentStart(seg.Index)
	c.logger.Debug("segment_extract_starting",
		"segment", seg.Index,
		"start", seg.Start.String(),
		"open", seg.Open,
	)

	req := media.ExtractRequest{
		Source:       c.cfg.VideoPath,
		Index:        seg.Index,
		Start:        seg.Start,
		End:          seg.End,
		Open:         seg.Open,
		Length:       seg.Length(info.Duration),
		VideoBitrate: info.Bitrate,
		OutPath:      c.cfg.SegmentFile(seg.Index),
		Progress:     c.segmentProgress(seg.Index),
	}
	unit, err := c.enc.ExtractSegment(ctx, req)
	if err != nil {
		return media.Unit{}, err
	}

	wall := time.Since(started)
	c.tracker.Finish(seg.Index, unit.Bytes, wall)
	if c.metrics != nil {
		c.metrics.RecordSegmentExtracted(unit.Bytes, wall)
	}
	c.logger.Info("segment_extracted",
		"segment", seg.Index,
		"bytes", unit.Bytes,
		"wall", wall.String(),
	)
	c.notifySegmentDone(seg.Index)
	return unit, nil
}

// segmentProgress returns the progress sink for one extraction. It feeds
// the tracker, the byte throughput, and the overall progress gauge.
func (c *Cutter) segmentProgress(index int) media.ProgressFunc {
	var lastBytes int64
	return func(p media.Progress) {
		c.tracker.Progress(index, p)
		if p.Bytes > lastBytes {
			c.throughput.AddBytes(p.Bytes - lastBytes)
			lastBytes = p.Bytes
		}
		if c.metrics != nil {
			c.metrics.RecordProgress(c.tracker.OverallFraction(), p.Speed)
		}
	}
}

// reuseSegments resolves the unit files left behind by a previous run
// instead of extracting. Every planned segment must still be on disk.
func (c *Cutter) reuseSegments(plan []Segment) ([]media.Unit, error) {
	units := make([]media.Unit, len(plan))
	for _, seg := range plan {
		path := c.cfg.SegmentFile(seg.Index)
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("skip-split: segment %d not found at %s (run without -skip-split first)", seg.Index, path)
		}
		units[seg.Index] = media.Unit{Index: seg.Index, Path: path, Bytes: fi.Size()}
		c.tracker.Reuse(seg.Index, fi.Size())
	}
	c.logger.Info("segments_reused", "count", len(units), "dir", c.cfg.SegmentDir())
	return units, nil
}

// concatenate joins the units into the final video.
func (c *Cutter) concatenate(ctx context.Context, units []media.Unit, info media.SourceInfo, length time.Duration) (string, error) {
	ordered := make([]media.Unit, len(units))
	copy(ordered, units)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	req := media.ConcatRequest{
		Units:        ordered,
		OutPath:      c.cfg.OutputFile(),
		ReEncode:     c.cfg.DoubleEncode,
		VideoBitrate: info.Bitrate,
		Length:       length,
		Progress: func(p media.Progress) {
			if c.metrics != nil {
				c.metrics.RecordProgress(p.Fraction, p.Speed)
			}
			if c.callbacks.OnConcatProgress != nil {
				c.callbacks.OnConcatProgress(p)
			}
		},
	}
	out, err := c.enc.Concatenate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("concatenate: %w", err)
	}
	return out, nil
}

// sampleThroughput snapshots the cumulative output bytes once a second
// until the context ends.
func (c *Cutter) sampleThroughput(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.throughput.RecordSample()
		}
	}
}

func (c *Cutter) setStage(stage Stage) {
	if c.metrics != nil {
		c.metrics.SetStage(string(stage))
	}
	if c.callbacks.OnStage != nil {
		c.callbacks.OnStage(stage)
	}
	c.logger.Debug("recut_stage", "stage", string(stage))
}

func (c *Cutter) notifySegmentStart(index int) {
	if c.callbacks.OnSegmentStart == nil {
		return
	}
	snap := c.tracker.Snapshot()
	c.callbacks.OnSegmentStart(snap[index])
}

func (c *Cutter) notifySegmentDone(index int) {
	if c.callbacks.OnSegmentDone == nil {
		return
	}
	snap := c.tracker.Snapshot()
	c.callbacks.OnSegmentDone(snap[index])
}
