// Command decode decodes one Archive II volume into a scan summary. The
// volume comes from a local file or straight from the public archive
// bucket by site and day.
//
// Usage:
//
//	go run ./cmd/decode -file KDMX20220305_233003_V06
//	go run ./cmd/decode -site KDMX -day 2022-03-05 -index 42
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/adapter/s3"
	"github.com/couchcryptid/nexrad-data-etl/internal/observability"
	"github.com/couchcryptid/nexrad-data-etl/internal/pipeline"
	"github.com/couchcryptid/nexrad-data-etl/internal/radar"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	file := flag.String("file", "", "path to a local Archive II volume file")
	site := flag.String("site", "", "four-letter ICAO site to fetch from the archive bucket")
	day := flag.String("day", "", "UTC day to fetch, YYYY-MM-DD")
	index := flag.Int("index", -1, "which of the day's volumes to fetch (default: last)")
	bucket := flag.String("bucket", "noaa-nexrad-level2", "archive bucket name")
	workers := flag.Int("workers", 0, "decode workers (0 = one per CPU)")
	flag.Parse()

	buf, err := loadVolume(*file, *site, *day, *index, *bucket)
	if err != nil {
		return err
	}

	result, err := pipeline.DecodeVolume(buf, pipeline.Options{Workers: *workers})
	if err != nil {
		return fmt.Errorf("decode volume: %w", err)
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", d)
	}
	if result.Scan == nil {
		return fmt.Errorf("volume produced no scan")
	}
	if err := result.Scan.ValidateAgainstVCP(); err != nil {
		fmt.Fprintf(os.Stderr, "diagnostic: %v\n", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(radar.Summarize(result.Scan, result.Complete))
}

func loadVolume(file, site, day string, index int, bucket string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	if site == "" || day == "" {
		return nil, fmt.Errorf("either -file or both -site and -day are required")
	}

	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil, fmt.Errorf("parse -day: %w", err)
	}

	logger := observability.NewLogger("warn", "text")
	metrics := observability.NewMetricsForTesting()
	client := s3.NewClient(60*time.Second, "", logger, metrics)
	archive := s3.NewArchive(client, bucket)

	ctx := context.Background()
	keys, err := archive.ListDay(ctx, site, date)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no volumes for %s on %s", site, day)
	}
	if index < 0 || index >= len(keys) {
		index = len(keys) - 1
	}

	fmt.Fprintf(os.Stderr, "downloading %s\n", keys[index])
	return archive.Download(ctx, keys[index])
}
