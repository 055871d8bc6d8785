package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/observability"
	"github.com/couchcryptid/nexrad-data-etl/internal/radar"
)

// Chunk is one live-feed buffer: a slice of a volume in upload order. The
// leading chunk of a volume carries the Archive II header; later chunks
// are bare record sequences.
type Chunk struct {
	// Key identifies the chunk at its source, for logs.
	Key string

	// Volume is the source's rotating volume number; Sequence is the
	// chunk's 1-based position within it.
	Volume   int
	Sequence int

	// Final marks the volume's last chunk.
	Final bool

	Data []byte
}

// ChunkSource yields chunks in upload order, blocking until one is
// available or the context ends.
type ChunkSource interface {
	Next(ctx context.Context) (Chunk, error)
}

// SummaryPublisher delivers a completed scan's summary downstream.
type SummaryPublisher interface {
	Publish(ctx context.Context, summary radar.ScanSummary) error
}

// Feed is the live ETL loop: consume chunks for one site, fold them into
// per-volume scans, publish a summary when each volume completes.
type Feed struct {
	source    ChunkSource
	publisher SummaryPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	workers   int
	ready     atomic.Bool

	assembler *radar.Assembler
	volume    int
}

// NewFeed creates a Feed with the given source, sink and observability.
func NewFeed(source ChunkSource, publisher SummaryPublisher, logger *slog.Logger, metrics *observability.Metrics, workers int) *Feed {
	return &Feed{
		source:    source,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		workers:   workers,
	}
}

// CheckReadiness returns nil once the feed has published at least one
// scan summary, or an error describing why the service is not yet ready.
func (f *Feed) CheckReadiness(_ context.Context) error {
	if !f.ready.Load() {
		return errors.New("feed has not published any scans yet")
	}
	return nil
}

// Run executes the consume-decode-publish loop until the context is
// cancelled.
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("feed started", "workers", f.workers)
	f.metrics.FeedRunning.Set(1)
	defer f.metrics.FeedRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during source outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("feed stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !f.processChunk(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processChunk consumes and folds one chunk. Returns false if the feed
// should stop.
func (f *Feed) processChunk(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	chunk, err := f.source.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		f.logger.Error("chunk fetch failed", "error", err)
		return f.backoffOrStop(ctx, backoff, maxBackoff)
	}
	*backoff = 200 * time.Millisecond

	f.metrics.ChunksConsumed.Inc()
	f.fold(chunk)

	if !chunk.Final {
		return true
	}
	return f.publishVolume(ctx, chunk, backoff, maxBackoff)
}

// fold decodes one chunk's records into the current volume's assembler.
func (f *Feed) fold(chunk Chunk) {
	if f.assembler == nil || chunk.Volume != f.volume || chunk.Sequence == 1 {
		if f.assembler != nil && chunk.Volume != f.volume {
			f.logger.Warn("volume rolled over before completion, dropping partial scan",
				"volume", f.volume, "next_volume", chunk.Volume)
		}
		f.assembler = radar.NewAssembler()
		f.volume = chunk.Volume
	}

	records, err := SplitChunk(chunk.Data)
	if err != nil {
		f.logger.Warn("chunk truncated, decoding what remains", "key", chunk.Key, "error", err)
		f.metrics.DecodeErrors.Inc()
	}

	messages, diags := DecodeRecords(records, f.workers)
	for _, d := range diags {
		f.logger.Warn("chunk decode fault", "key", chunk.Key, "fault", d.String())
		f.metrics.DecodeErrors.Inc()
	}
	for _, m := range messages {
		f.assembler.Add(m)
	}
}

// publishVolume finalizes the current assembler and publishes its scan
// summary. Returns false if the feed should stop.
func (f *Feed) publishVolume(ctx context.Context, chunk Chunk, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()
	scan, err := f.assembler.Scan()
	complete := f.assembler.Complete()
	f.assembler = nil
	if err != nil {
		f.logger.Warn("volume produced no scan", "volume", chunk.Volume, "error", err)
		f.metrics.DecodeErrors.Inc()
		return true
	}

	summary := radar.Summarize(scan, complete)
	if err := f.publisher.Publish(ctx, summary); err != nil {
		if ctx.Err() != nil {
			return false
		}
		f.logger.Error("publish scan summary failed", "site", summary.Site, "error", err)
		return f.backoffOrStop(ctx, backoff, maxBackoff)
	}

	f.metrics.ScansPublished.Inc()
	f.metrics.RadialsDecoded.Add(float64(summary.RadialCount))
	f.metrics.ScanAssemblyDuration.Observe(time.Since(start).Seconds())
	f.ready.Store(true)

	f.logger.Info("scan published",
		"site", summary.Site,
		"vcp", summary.CoveragePatternNumber,
		"sweeps", summary.SweepCount,
		"radials", summary.RadialCount,
		"complete", summary.Complete,
	)
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the feed should stop.
func (f *Feed) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
