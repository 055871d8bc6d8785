package archive

import (
	"encoding/binary"
	"strings"
	"time"
)

// HeaderSize is the fixed size of the Archive II volume header in bytes.
const HeaderSize = 24

// headerMagic is the leading portion of the tape filename common to all
// supported format versions.
const headerMagic = "AR2V"

// Header is the decoded Archive II volume header.
type Header struct {
	// TapeFilename identifies the format version, e.g. "AR2V0006.".
	TapeFilename string

	// ExtensionNumber is the sequential volume number, "001" through "999".
	ExtensionNumber string

	// Date is the volume date as days since 1 January 1970 GMT, where
	// day 1 is the epoch itself.
	Date uint32

	// Time is milliseconds past midnight GMT.
	Time uint32

	// ICAO is the four-letter radar site identifier.
	ICAO string
}

// ParseHeader decodes and validates the volume header at the start of buf.
// A buffer shorter than HeaderSize is a TruncatedDataError; a tape filename
// not beginning "AR2V" is a FormatError. Either failure makes the whole
// volume undecodable.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, &TruncatedDataError{Unit: "volume header", Declared: HeaderSize, Available: len(buf)}
	}

	tape := string(buf[0:9])
	if !strings.HasPrefix(tape, headerMagic) {
		return Header{}, &FormatError{Unit: "volume header", Detail: "tape filename does not begin " + headerMagic}
	}

	return Header{
		TapeFilename:    tape,
		ExtensionNumber: string(buf[9:12]),
		Date:            binary.BigEndian.Uint32(buf[12:16]),
		Time:            binary.BigEndian.Uint32(buf[16:20]),
		ICAO:            strings.TrimRight(string(buf[20:24]), " \x00"),
	}, nil
}

// Version returns the two-digit format version from the tape filename,
// e.g. "06" for "AR2V0006.".
func (h Header) Version() string {
	if len(h.TapeFilename) < 8 {
		return ""
	}
	return h.TapeFilename[6:8]
}

// DateTime returns the volume collection time in UTC.
func (h Header) DateTime() time.Time {
	return JulianDateTime(uint16(h.Date), time.Duration(h.Time)*time.Millisecond)
}

// JulianDateTime converts a NEXRAD "modified Julian date" (days since
// 1 January 1970 GMT, day 1 = epoch) plus an offset past midnight into a
// UTC time. The same encoding appears in message headers and radial data.
func JulianDateTime(days uint16, pastMidnight time.Duration) time.Time {
	if days == 0 {
		return time.Time{}
	}
	midnight := time.Unix(int64(days-1)*86400, 0).UTC()
	return midnight.Add(pastMidnight)
}
