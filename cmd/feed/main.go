// Command feed follows one radar site's live chunk feed, decodes each
// volume as its chunks arrive, and publishes scan summaries to Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/nexrad-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/nexrad-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/nexrad-data-etl/internal/adapter/s3"
	"github.com/couchcryptid/nexrad-data-etl/internal/config"
	"github.com/couchcryptid/nexrad-data-etl/internal/observability"
	"github.com/couchcryptid/nexrad-data-etl/internal/pipeline"
	"github.com/couchcryptid/nexrad-data-etl/internal/realtime"
)

// chunkStore pairs the listing client with the caching download path.
type chunkStore struct {
	*s3.Client
	cache *s3.CachedDownloader
}

func (c chunkStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	return c.cache.Download(ctx, bucket, key)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := s3.NewClient(cfg.S3Timeout, cfg.S3Endpoint, logger, metrics)
	store := chunkStore{
		Client: client,
		cache:  s3.NewCachedDownloader(client, cfg.CacheSize, metrics),
	}

	poller := realtime.NewPoller(store, cfg.ChunkBucket, cfg.Site,
		cfg.PollMinInterval, cfg.PollInterval, clockwork.NewRealClock(), logger, metrics)
	writer := kafkaadapter.NewWriter(cfg, logger)

	feed := pipeline.NewFeed(poller, writer, logger, metrics, cfg.DecodeWorkers)

	srv := httpadapter.NewServer(cfg.HTTPAddr, feed, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the feed loop.
	go func() {
		if err := feed.Run(ctx); err != nil {
			logger.Error("feed error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
