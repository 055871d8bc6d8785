// Command genvolume writes a synthetic Archive II volume for testing the
// decoder and downstream tooling without a multi-megabyte real capture.
// The generated volume runs a small split-cut pattern: a surveillance
// pass and a Doppler pass at the lowest elevation, then a combined upper
// cut.
//
// Usage:
//
//	go run ./cmd/genvolume -out testdata/synthetic_volume -radials 72
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/synth"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "synthetic_volume", "output path")
	site := flag.String("site", "KDMX", "four-letter ICAO site identifier")
	radials := flag.Int("radials", 72, "radials per sweep pass")
	gates := flag.Int("gates", 16, "gates per radial")
	flag.Parse()

	start := time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC)
	buf, err := synth.SplitCutVolume(*site, start, *radials, *gates)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, buf, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d bytes\n", *out, len(buf))
	return nil
}
