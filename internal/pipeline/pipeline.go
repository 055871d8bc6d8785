package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
	"github.com/couchcryptid/nexrad-data-etl/internal/message"
	"github.com/couchcryptid/nexrad-data-etl/internal/radar"
)

// Diagnostic locates one recoverable decode failure. Record is the
// zero-based record index within the volume; Message is the message index
// within the record, or -1 for record-level failures.
type Diagnostic struct {
	Record  int
	Message int
	Err     error
}

func (d Diagnostic) String() string {
	if d.Message < 0 {
		return fmt.Sprintf("record %d: %v", d.Record, d.Err)
	}
	return fmt.Sprintf("record %d message %d: %v", d.Record, d.Message, d.Err)
}

// Options tunes a volume decode.
type Options struct {
	// Workers bounds the record-decode pool; values below 1 mean one
	// worker per available CPU.
	Workers int
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// Result is a best-effort decode: the domain model built from every
// record that survived, plus diagnostics for everything that did not.
type Result struct {
	Header archive.Header
	Scan   *radar.Scan

	// Complete reports whether an end-of-volume radial was decoded.
	Complete bool

	Diagnostics []Diagnostic
}

// DecodeVolume decodes a full Archive II volume buffer into the domain
// model. Only an invalid volume header is fatal; record and message
// failures become diagnostics on the returned Result.
func DecodeVolume(buf []byte, opts Options) (*Result, error) {
	header, err := archive.ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	records, splitErr := archive.SplitRecords(buf[archive.HeaderSize:])
	for i := range records {
		records[i].Offset += archive.HeaderSize
	}

	result := &Result{Header: header}
	if splitErr != nil {
		// The truncated record is lost; everything before it still decodes.
		result.Diagnostics = append(result.Diagnostics, Diagnostic{Record: len(records), Message: -1, Err: splitErr})
	}

	messages, diags := DecodeRecords(records, opts.workers())
	result.Diagnostics = append(result.Diagnostics, diags...)

	assembler := radar.NewAssembler()
	for _, m := range messages {
		assembler.Add(m)
	}
	scan, err := assembler.Scan()
	if err != nil {
		if errors.Is(err, radar.ErrNoRadials) && len(result.Diagnostics) > 0 {
			// Everything failed upstream; the diagnostics already say why.
			return result, nil
		}
		return result, err
	}
	result.Scan = scan
	result.Complete = assembler.Complete()
	return result, nil
}

// recordOutput is one worker's result, reduced back in record order.
type recordOutput struct {
	messages []message.Message
	diags    []Diagnostic
}

// DecodeRecords decompresses and decodes records on up to workers
// goroutines and returns the messages folded back into record order.
func DecodeRecords(records []archive.Record, workers int) ([]message.Message, []Diagnostic) {
	if workers < 1 {
		workers = 1
	}
	outputs := make([]recordOutput, len(records))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outputs[i] = decodeRecord(i, records[i])
		}(i)
	}
	wg.Wait()

	var messages []message.Message
	var diags []Diagnostic
	for _, out := range outputs {
		messages = append(messages, out.messages...)
		diags = append(diags, out.diags...)
	}
	return messages, diags
}

func decodeRecord(index int, record archive.Record) recordOutput {
	data, err := record.Decompress()
	if err != nil {
		return recordOutput{diags: []Diagnostic{{Record: index, Message: -1, Err: err}}}
	}

	messages, faults := message.DecodeAll(data)
	out := recordOutput{messages: messages}
	for _, fault := range faults {
		out.diags = append(out.diags, Diagnostic{Record: index, Message: fault.Message, Err: fault.Err})
	}
	return out
}

// DemuxRecords is the pre-assembly surface for tooling: every record's
// frames with headers intact, decompressed but not decoded. Ordering and
// failure locality match DecodeRecords.
func DemuxRecords(records []archive.Record) ([][]message.Frame, []Diagnostic) {
	frames := make([][]message.Frame, len(records))
	var diags []Diagnostic
	for i, record := range records {
		data, err := record.Decompress()
		if err != nil {
			diags = append(diags, Diagnostic{Record: i, Message: -1, Err: err})
			continue
		}
		recordFrames, faults := message.Demux(data)
		frames[i] = recordFrames
		for _, fault := range faults {
			diags = append(diags, Diagnostic{Record: i, Message: fault.Message, Err: fault.Err})
		}
	}
	return frames, diags
}

// SplitChunk splits a buffer that may be either a full volume (leading
// chunk of a live feed, or a whole archive file) or a bare record
// sequence (subsequent live chunks).
func SplitChunk(buf []byte) ([]archive.Record, error) {
	if archive.HasVolumeHeader(buf) {
		_, records, err := archive.SplitVolume(buf)
		return records, err
	}
	if bytes.HasPrefix(buf, []byte("BZh")) {
		// A bare compressed stream with no record framing: some chunk
		// producers upload the record payload directly.
		return []archive.Record{archive.NewRecord(buf)}, nil
	}
	return archive.SplitRecords(buf)
}
