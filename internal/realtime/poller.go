package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/nexrad-data-etl/internal/adapter/s3"
	"github.com/couchcryptid/nexrad-data-etl/internal/observability"
	"github.com/couchcryptid/nexrad-data-etl/internal/pipeline"
)

// ErrNoData is returned when a site has no chunks in any volume
// directory.
var ErrNoData = errors.New("no live data for site")

// ObjectStore is the bucket surface the poller needs.
type ObjectStore interface {
	List(ctx context.Context, bucket, prefix, startAfter string) ([]s3.Object, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// Poller streams one site's live chunks in upload order. It implements
// pipeline.ChunkSource.
type Poller struct {
	store   ObjectStore
	bucket  string
	site    string
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	stats   *TimingStats

	minWait time.Duration
	maxWait time.Duration

	// queue holds listed-but-undelivered chunks in order.
	queue []ChunkID

	volume   int
	lastKey  string
	lastSeen time.Time
}

// NewPoller creates a poller for one site. minWait bounds how hard the
// bucket is polled when the timing estimate runs short; maxWait bounds
// the sleep when no estimate exists.
func NewPoller(store ObjectStore, bucket, site string, minWait, maxWait time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		store:   store,
		bucket:  bucket,
		site:    site,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		stats:   NewTimingStats(),
		minWait: minWait,
		maxWait: maxWait,
	}
}

// Next blocks until the next chunk in upload order is available and
// returns it downloaded.
func (p *Poller) Next(ctx context.Context) (pipeline.Chunk, error) {
	if p.volume == 0 {
		if err := p.locateLatestVolume(ctx); err != nil {
			return pipeline.Chunk{}, err
		}
	}

	for {
		if len(p.queue) > 0 {
			return p.deliver(ctx)
		}
		if err := p.refill(ctx); err != nil {
			return pipeline.Chunk{}, err
		}
		if len(p.queue) > 0 {
			continue
		}
		if err := p.wait(ctx); err != nil {
			return pipeline.Chunk{}, err
		}
	}
}

func (p *Poller) deliver(ctx context.Context) (pipeline.Chunk, error) {
	id := p.queue[0]

	data, err := p.store.Download(ctx, p.bucket, id.Key())
	if err != nil {
		return pipeline.Chunk{}, err
	}
	p.queue = p.queue[1:]

	now := p.clock.Now()
	if !p.lastSeen.IsZero() {
		p.stats.Add(id.Type, now.Sub(p.lastSeen))
	}
	p.lastSeen = now
	p.lastKey = id.Key()

	if id.Type == ChunkEnd {
		// Volume finished; rotation continues in the next directory.
		p.volume = NextVolume(id.Volume)
		p.lastKey = ""
	}

	return pipeline.Chunk{
		Key:      id.Key(),
		Volume:   id.Volume,
		Sequence: id.Sequence,
		Final:    id.Type == ChunkEnd,
		Data:     data,
	}, nil
}

// refill lists the current volume directory for chunks past the last
// delivered one.
func (p *Poller) refill(ctx context.Context) error {
	objects, err := p.store.List(ctx, p.bucket, VolumePrefix(p.site, p.volume), p.lastKey)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		id, err := ParseChunkKey(obj.Key)
		if err != nil {
			p.logger.Warn("skipping unrecognized chunk key", "key", obj.Key, "error", err)
			continue
		}
		p.queue = append(p.queue, id)
	}
	sort.Slice(p.queue, func(i, j int) bool { return p.queue[i].Sequence < p.queue[j].Sequence })
	return nil
}

// wait sleeps until the next chunk is expected, using the timing window
// when it has samples.
func (p *Poller) wait(ctx context.Context) error {
	wait := p.maxWait
	if estimate, ok := p.stats.Estimate(ChunkIntermediate); ok {
		wait = estimate
	}
	if wait < p.minWait {
		wait = p.minWait
	}
	if wait > p.maxWait {
		wait = p.maxWait
	}
	p.metrics.PollInterval.Set(wait.Seconds())

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(wait):
		return nil
	}
}

// locateLatestVolume finds the most recently written volume directory.
// Directories fill 1..999 in order and then rotate, so the latest is
// found by binary search on last-modified times: empty directories mean
// the rotation has not reached that high yet, and a newer right neighbor
// means the wrap point is further right.
func (p *Poller) locateLatestVolume(ctx context.Context) error {
	newest := func(volume int) (time.Time, bool, error) {
		objects, err := p.store.List(ctx, p.bucket, VolumePrefix(p.site, volume), "")
		if err != nil {
			return time.Time{}, false, err
		}
		if len(objects) == 0 {
			return time.Time{}, false, nil
		}
		latest := objects[0].LastModified
		for _, obj := range objects[1:] {
			if obj.LastModified.After(latest) {
				latest = obj.LastModified
			}
		}
		return latest, true, nil
	}

	lo, hi := 1, maxVolumes
	for lo < hi {
		mid := (lo + hi + 1) / 2
		midTime, midOK, err := newest(mid)
		if err != nil {
			return err
		}
		if !midOK {
			hi = mid - 1
			continue
		}
		loTime, loOK, err := newest(lo)
		if err != nil {
			return err
		}
		if loOK && loTime.After(midTime) {
			// Wrap point is left of mid; the freshest data is too.
			hi = mid - 1
			continue
		}
		lo = mid
	}

	_, ok, err := newest(lo)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoData, p.site)
	}

	p.volume = lo
	p.lastKey = ""
	p.logger.Info("following live volume", "site", p.site, "volume", p.volume)
	return nil
}
