// Command inspect prints the structure of an Archive II volume file:
// header fields, record framing, and the message stream inside each
// record. With -v it decodes recognized messages and prints their fields.
//
// Usage:
//
//	go run ./cmd/inspect -file KDMX20220305_233003_V06
//	go run ./cmd/inspect -file chunk-002-I -v
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
	"github.com/couchcryptid/nexrad-data-etl/internal/message"
	"github.com/couchcryptid/nexrad-data-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	file := flag.String("file", "", "path to an Archive II volume or chunk file")
	verbose := flag.Bool("v", false, "decode and print recognized message fields")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		return fmt.Errorf("-file is required")
	}

	buf, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	if archive.HasVolumeHeader(buf) {
		header, err := archive.ParseHeader(buf)
		if err != nil {
			return err
		}
		fmt.Printf("volume version %s extension %s site %s collected %s\n",
			header.Version(), header.ExtensionNumber, header.ICAO, header.DateTime().Format("2006-01-02 15:04:05 MST"))
	} else {
		fmt.Println("no volume header (chunk file)")
	}

	records, err := pipeline.SplitChunk(buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "diagnostic: %v\n", err)
	}
	fmt.Printf("%d records\n", len(records))

	frames, diags := pipeline.DemuxRecords(records)
	for i, record := range records {
		compressed := "uncompressed"
		if record.Compressed() {
			compressed = "bzip2"
		}
		fmt.Printf("record %d: offset %d, %d bytes %s, %d messages\n",
			i, record.Offset, len(record.Payload()), compressed, len(frames[i]))

		counts := make(map[message.Type]int)
		for _, frame := range frames[i] {
			counts[frame.Header.Type]++
		}
		for typ, n := range counts {
			fmt.Printf("  type %2d (%s): %d\n", typ, typ, n)
		}

		if *verbose {
			printMessages(frames[i])
		}
	}

	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", d)
	}
	return nil
}

func printMessages(frames []message.Frame) {
	for _, frame := range frames {
		m, err := message.Decode(frame)
		if err != nil {
			fmt.Printf("  message %d: %v\n", frame.Index, err)
			continue
		}
		switch {
		case m.DigitalRadarData != nil:
			r := m.DigitalRadarData
			moments := make([]string, 0, 7)
			for tag := range r.Moments() {
				moments = append(moments, tag)
			}
			fmt.Printf("  message %d: radial az=%d (%.2f deg) elev=%d (%.2f deg) status=%s moments=%v\n",
				frame.Index, r.AzimuthNumber, r.AzimuthAngle, r.ElevationNumber, r.ElevationAngle, r.Status, moments)
		case m.VolumeCoveragePattern != nil:
			v := m.VolumeCoveragePattern
			fmt.Printf("  message %d: VCP %d with %d cuts\n", frame.Index, v.PatternNumber, len(v.ElevationCuts))
			for i, cut := range v.ElevationCuts {
				fmt.Printf("    cut %2d: %.2f deg waveform=%d superres=%v\n", i+1, cut.ElevationAngle, cut.WaveformType, cut.SuperResolution())
			}
		case m.RDAStatus != nil:
			s := m.RDAStatus
			fmt.Printf("  message %d: RDA status=%d vcp=%d build=%.2f alarms=%v\n",
				frame.Index, s.Status, s.VolumeCoveragePatternNumber, s.BuildNumber(), s.ActiveAlarms())
		case m.ClutterFilterMap != nil:
			c := m.ClutterFilterMap
			fmt.Printf("  message %d: clutter filter map, %d elevation segments, generated %s\n",
				frame.Index, len(c.ElevationSegments), c.GeneratedAt().Format("2006-01-02 15:04 MST"))
		}
	}
}
