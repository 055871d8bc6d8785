package message

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
)

const (
	clutterMapHeaderSize     = 6
	clutterAzimuthSegments   = 360
	clutterMaxRangeZones     = 20
	clutterFinalEndRangeKM   = 511
	clutterMaxElevationCount = 5
)

// ClutterOpCode is a clutter filter range zone's behavior.
type ClutterOpCode uint16

const (
	OpBypassFilter       ClutterOpCode = 0
	OpBypassMapInControl ClutterOpCode = 1
	OpForceFilter        ClutterOpCode = 2
)

// String returns the ICD name for the op code.
func (c ClutterOpCode) String() string {
	switch c {
	case OpBypassFilter:
		return "bypass filter"
	case OpBypassMapInControl:
		return "bypass map in control"
	case OpForceFilter:
		return "force filter"
	}
	return fmt.Sprintf("unknown (%d)", uint16(c))
}

// ClutterFilterMap is a decoded type 15 message: per-elevation,
// per-azimuth range zones telling the signal processor where to apply
// clutter filtering. The RDA transmits a new map whenever it changes; the
// message spans multiple fixed frames and arrives here already reassembled.
type ClutterFilterMap struct {
	// GenerationDate is days since 1 January 1970 (day 1 = epoch);
	// GenerationTime is minutes past midnight GMT.
	GenerationDate uint16
	GenerationTime uint16

	// ElevationSegments are in order of increasing elevation, 1 to 5 of
	// them (typically 2). Each holds exactly 360 one-degree azimuth
	// segments.
	ElevationSegments []ClutterElevationSegment
}

// GeneratedAt returns the map generation time in UTC.
func (m *ClutterFilterMap) GeneratedAt() time.Time {
	return archive.JulianDateTime(m.GenerationDate, time.Duration(m.GenerationTime)*time.Minute)
}

// ClutterElevationSegment is one elevation's worth of azimuth segments.
type ClutterElevationSegment struct {
	// Number is 1-based in increasing elevation order.
	Number uint8

	// AzimuthSegments[i] covers i <= azimuth < i+1 degrees.
	AzimuthSegments [clutterAzimuthSegments][]ClutterRangeZone
}

// ClutterRangeZone is one contiguous range span and its filter behavior.
// Zones partition 0..511 km; the last zone of each azimuth ends at 511.
type ClutterRangeZone struct {
	OpCode ClutterOpCode

	// EndRangeKM is the zone's stop range in kilometers.
	EndRangeKM uint16
}

func decodeClutterFilterMap(payload []byte) (*ClutterFilterMap, error) {
	unit := "message type 15"
	if len(payload) < clutterMapHeaderSize {
		return nil, &archive.TruncatedDataError{Unit: unit, Declared: clutterMapHeaderSize, Available: len(payload)}
	}

	m := &ClutterFilterMap{
		GenerationDate: binary.BigEndian.Uint16(payload[0:2]),
		GenerationTime: binary.BigEndian.Uint16(payload[2:4]),
	}
	count := int(binary.BigEndian.Uint16(payload[4:6]))
	if count < 1 || count > clutterMaxElevationCount {
		return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("elevation segment count %d outside 1..%d", count, clutterMaxElevationCount)}
	}

	pos := clutterMapHeaderSize
	m.ElevationSegments = make([]ClutterElevationSegment, count)
	for e := 0; e < count; e++ {
		seg := ClutterElevationSegment{Number: uint8(e + 1)}
		for az := 0; az < clutterAzimuthSegments; az++ {
			if pos+2 > len(payload) {
				return nil, &archive.TruncatedDataError{Unit: unit, Declared: pos + 2, Available: len(payload)}
			}
			zones := int(binary.BigEndian.Uint16(payload[pos:]))
			pos += 2
			if zones < 1 || zones > clutterMaxRangeZones {
				return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("elevation %d azimuth %d: range zone count %d outside 1..%d", e+1, az, zones, clutterMaxRangeZones)}
			}
			if pos+zones*4 > len(payload) {
				return nil, &archive.TruncatedDataError{Unit: unit, Declared: pos + zones*4, Available: len(payload)}
			}
			spans := make([]ClutterRangeZone, zones)
			for z := 0; z < zones; z++ {
				spans[z] = ClutterRangeZone{
					OpCode:     ClutterOpCode(binary.BigEndian.Uint16(payload[pos:])),
					EndRangeKM: binary.BigEndian.Uint16(payload[pos+2:]),
				}
				pos += 4
			}
			seg.AzimuthSegments[az] = spans
		}
		m.ElevationSegments[e] = seg
	}

	return m, nil
}
