package message

import (
	"fmt"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
)

// Frame is one complete logical message: its header and content span. For
// reassembled segmented messages the header is that of the first segment
// and the payload is the in-order concatenation of all segment contents.
type Frame struct {
	// Index is the zero-based position of the message (first segment for
	// segmented messages) within its record, for diagnostics.
	Index int

	Header  Header
	Payload []byte
}

// Fault records a per-message demux or decode failure. Sibling messages in
// the record are unaffected.
type Fault struct {
	// Message is the zero-based message index within the record.
	Message int
	Err     error
}

// segmentKey identifies the logical message a segment belongs to.
type segmentKey struct {
	typ Type
	seq uint16
}

// pendingSegments accumulates in-order segments of one logical message.
type pendingSegments struct {
	index   int
	header  Header
	next    uint16
	payload []byte
}

// Demux walks one decompressed record and returns its complete logical
// messages in order, plus per-message faults. A truncated variable-length
// message abandons the remainder of the record (there is no way to find
// the next frame boundary); a truncated fixed-frame message is diagnosed
// and the rest of the record abandoned likewise since the record ends
// there. Segment sets left incomplete at end of record are dropped
// silently: a truncated volume loses that one logical message only.
func Demux(record []byte) ([]Frame, []Fault) {
	var frames []Frame
	var faults []Fault
	pending := make(map[segmentKey]*pendingSegments)

	pos := 0
	index := -1
	for pos+ctmPadSize+HeaderSize <= len(record) {
		header := parseHeader(record[pos+ctmPadSize : pos+ctmPadSize+HeaderSize])
		if header.Size == 0 && header.Type == 0 {
			// Trailing zero padding after the last frame.
			break
		}
		index++

		content := header.contentSize()
		if content < 0 {
			faults = append(faults, Fault{Message: index, Err: &archive.FormatError{
				Unit:   fmt.Sprintf("message %d", index),
				Detail: fmt.Sprintf("declared size %d smaller than header", header.Size),
			}})
			break
		}

		start := pos + ctmPadSize + HeaderSize
		if start+content > len(record) {
			faults = append(faults, Fault{Message: index, Err: &archive.TruncatedDataError{
				Unit:      fmt.Sprintf("message %d (type %d)", index, header.Type),
				Declared:  content,
				Available: len(record) - start,
			}})
			break
		}
		payload := record[start : start+content]

		if header.variableLength() {
			pos = start + content
		} else {
			// Fixed frames advance by the full frame even when the
			// declared content is shorter; the gap is padding.
			pos += frameSize
		}

		if !header.segmented() {
			frames = append(frames, Frame{Index: index, Header: header, Payload: payload})
			continue
		}

		key := segmentKey{typ: header.Type, seq: header.Sequence}
		p := pending[key]
		if header.SegmentNumber == 1 {
			p = &pendingSegments{index: index, header: header, next: 2}
			p.payload = append(p.payload, payload...)
			pending[key] = p
			continue
		}
		if p == nil || header.SegmentNumber != p.next || header.SegmentCount != p.header.SegmentCount {
			// Out-of-order or orphaned segment: reset so a later in-order
			// set can still assemble.
			delete(pending, key)
			continue
		}
		p.payload = append(p.payload, payload...)
		p.next++
		if header.SegmentNumber == header.SegmentCount {
			frames = append(frames, Frame{Index: p.index, Header: p.header, Payload: p.payload})
			delete(pending, key)
		}
	}

	return frames, faults
}
