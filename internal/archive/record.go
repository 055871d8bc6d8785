package archive

import (
	"bytes"
	"compress/bzip2"
	"encoding/binary"
	"fmt"
	"io"
)

// recordPrefixSize is the size of the signed length prefix framing each
// LDM record.
const recordPrefixSize = 4

// bzip2Magic is the stream signature of a bzip2-compressed record payload.
var bzip2Magic = []byte("BZh")

// Record is one LDM record: an independently compressed block of messages
// within a volume. The payload excludes the length prefix.
type Record struct {
	// Offset is the byte offset of the payload within the source buffer,
	// kept for diagnostics.
	Offset int

	payload []byte
}

// NewRecord wraps an already-isolated record payload, as received in
// real-time chunk files that carry a single unframed record.
func NewRecord(payload []byte) Record {
	return Record{payload: payload}
}

// Payload returns the record's raw (possibly compressed) payload bytes.
func (r Record) Payload() []byte { return r.payload }

// Compressed reports whether the payload is a bzip2 stream.
func (r Record) Compressed() bool {
	return bytes.HasPrefix(r.payload, bzip2Magic)
}

// Decompress materializes the record's message bytes. Compressed payloads
// are run through bzip2; uncompressed payloads are returned as-is. A
// corrupt stream fails only this record.
func (r Record) Decompress() ([]byte, error) {
	if !r.Compressed() {
		return r.payload, nil
	}
	data, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(r.payload)))
	if err != nil {
		return nil, fmt.Errorf("record at offset %d: bzip2: %w", r.Offset, err)
	}
	return data, nil
}

// SplitRecords walks the length-prefixed record framing in buf and returns
// the records in file order. Control records (zero or negative prefix) are
// skipped. If a declared length would run past the end of the buffer the
// records collected so far are returned along with a TruncatedDataError
// for the unrecoverable tail.
func SplitRecords(buf []byte) ([]Record, error) {
	var records []Record

	pos := 0
	for pos+recordPrefixSize <= len(buf) {
		size := int32(binary.BigEndian.Uint32(buf[pos : pos+recordPrefixSize]))
		length := int(size)
		if length < 0 {
			length = -length
		}
		start := pos + recordPrefixSize
		if start+length > len(buf) {
			return records, &TruncatedDataError{
				Unit:      fmt.Sprintf("record at offset %d", start),
				Declared:  length,
				Available: len(buf) - start,
			}
		}
		if size > 0 {
			records = append(records, Record{Offset: start, payload: buf[start : start+length]})
		}
		pos = start + length
	}

	return records, nil
}

// SplitVolume validates the volume header and splits the remainder of the
// buffer into records. The returned error distinguishes a fatal header
// failure (no records) from a truncated tail (prior records intact).
func SplitVolume(buf []byte) (Header, []Record, error) {
	header, err := ParseHeader(buf)
	if err != nil {
		return Header{}, nil, err
	}
	records, err := SplitRecords(buf[HeaderSize:])
	for i := range records {
		records[i].Offset += HeaderSize
	}
	return header, records, err
}

// HasVolumeHeader reports whether buf begins with an Archive II volume
// header. Real-time chunks after the first in a volume do not.
func HasVolumeHeader(buf []byte) bool {
	return len(buf) >= len(headerMagic) && bytes.HasPrefix(buf, []byte(headerMagic))
}
