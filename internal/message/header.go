package message

import (
	"encoding/binary"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
)

const (
	// ctmPadSize is the legacy CTM header preceding every message header.
	ctmPadSize = 12

	// HeaderSize is the size of the message header itself.
	HeaderSize = 16

	// frameSize is the fixed frame length used by segmented message types.
	frameSize = 2432

	// variableSizeSentinel in the size field marks variable-length framing.
	variableSizeSentinel = 0xFFFF
)

// Type is the message type discriminator from the message header.
type Type uint8

// Message types recognized by this decoder plus the identifiers of common
// types that are deliberately skipped.
const (
	TypeDigitalRadarDataLegacy Type = 1
	TypeRDAStatus              Type = 2
	TypePerformanceData        Type = 3
	TypeConsole                Type = 4
	TypeVolumeCoveragePattern  Type = 5
	TypeRDAControlCommands     Type = 6
	TypeClutterFilterBypassMap Type = 13
	TypeClutterFilterMap       Type = 15
	TypeAdaptationData         Type = 18
	TypeDigitalRadarData       Type = 31
	TypePRFData                Type = 32
	TypeLogData                Type = 33
)

// String returns a short human-readable name for the message type.
func (t Type) String() string {
	switch t {
	case TypeDigitalRadarDataLegacy:
		return "digital radar data (legacy)"
	case TypeRDAStatus:
		return "RDA status"
	case TypePerformanceData:
		return "performance/maintenance"
	case TypeConsole:
		return "console"
	case TypeVolumeCoveragePattern:
		return "volume coverage pattern"
	case TypeRDAControlCommands:
		return "RDA control commands"
	case TypeClutterFilterBypassMap:
		return "clutter filter bypass map"
	case TypeClutterFilterMap:
		return "clutter filter map"
	case TypeAdaptationData:
		return "adaptation data"
	case TypeDigitalRadarData:
		return "digital radar data"
	case TypePRFData:
		return "PRF data"
	case TypeLogData:
		return "log data"
	}
	return "unknown"
}

// Header is the fixed 16-byte framing header preceding every message's
// content.
type Header struct {
	// Size of the message in halfwords, including this header but not the
	// CTM pad. 0xFFFF marks variable-length framing.
	Size uint16

	// Channel is the redundant-channel indicator.
	Channel uint8

	// Type discriminates the message content.
	Type Type

	// Sequence is the message sequence number; segments of one logical
	// message share it.
	Sequence uint16

	// Date is days since 1 January 1970 GMT (day 1 = epoch).
	Date uint16

	// Time is milliseconds past midnight GMT.
	Time uint32

	// SegmentCount and SegmentNumber describe multi-frame messages. For
	// variable-length messages they are repurposed as the high and low
	// halves of a 32-bit byte size.
	SegmentCount  uint16
	SegmentNumber uint16
}

func parseHeader(b []byte) Header {
	return Header{
		Size:          binary.BigEndian.Uint16(b[0:2]),
		Channel:       b[2],
		Type:          Type(b[3]),
		Sequence:      binary.BigEndian.Uint16(b[4:6]),
		Date:          binary.BigEndian.Uint16(b[6:8]),
		Time:          binary.BigEndian.Uint32(b[8:12]),
		SegmentCount:  binary.BigEndian.Uint16(b[12:14]),
		SegmentNumber: binary.BigEndian.Uint16(b[14:16]),
	}
}

// DateTime returns the message timestamp in UTC.
func (h Header) DateTime() time.Time {
	return archive.JulianDateTime(h.Date, time.Duration(h.Time)*time.Millisecond)
}

// variableLength reports whether the message carries its own size rather
// than occupying fixed frames. Type 31 is always variable-length; in
// practice its size field holds the real halfword count rather than the
// 0xFFFF sentinel the ICD specifies.
func (h Header) variableLength() bool {
	return h.Type == TypeDigitalRadarData || h.Size == variableSizeSentinel
}

// contentSize returns the message content size in bytes, excluding this
// header and the CTM pad.
func (h Header) contentSize() int {
	if h.Size == variableSizeSentinel {
		total := int(h.SegmentCount)<<16 | int(h.SegmentNumber)
		return total - HeaderSize
	}
	return int(h.Size)*2 - HeaderSize
}

// segmented reports whether the message content spans multiple fixed
// frames.
func (h Header) segmented() bool {
	return !h.variableLength() && h.SegmentCount > 1
}
