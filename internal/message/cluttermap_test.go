package message

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
	"github.com/couchcryptid/nexrad-data-etl/internal/synth"
)

func clutterPayload(t *testing.T, elevations int) []byte {
	t.Helper()
	var record []byte
	for _, segment := range synth.ClutterFilterMap(elevations, testTime) {
		record = append(record, segment...)
	}
	frames, faults := Demux(record)
	require.Empty(t, faults)
	require.Len(t, frames, 1)
	return frames[0].Payload
}

func TestDecodeClutterFilterMap(t *testing.T) {
	m, err := decodeClutterFilterMap(clutterPayload(t, 2))
	require.NoError(t, err)

	require.Len(t, m.ElevationSegments, 2)
	assert.Equal(t, uint8(1), m.ElevationSegments[0].Number)
	assert.Equal(t, uint8(2), m.ElevationSegments[1].Number)
	assert.Equal(t, time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC), m.GeneratedAt())

	t.Run("every azimuth carries its zones", func(t *testing.T) {
		for _, seg := range m.ElevationSegments {
			for az, zones := range seg.AzimuthSegments {
				require.Len(t, zones, 1, "azimuth %d", az)
				assert.Equal(t, OpBypassMapInControl, zones[0].OpCode)
				assert.Equal(t, uint16(511), zones[0].EndRangeKM)
			}
		}
	})
}

func TestDecodeClutterFilterMapFaults(t *testing.T) {
	t.Run("truncated header", func(t *testing.T) {
		_, err := decodeClutterFilterMap(make([]byte, 4))

		var truncated *archive.TruncatedDataError
		require.ErrorAs(t, err, &truncated)
	})

	t.Run("elevation count out of range", func(t *testing.T) {
		payload := clutterPayload(t, 1)
		binary.BigEndian.PutUint16(payload[4:6], 6)

		_, err := decodeClutterFilterMap(payload)

		var format *archive.FormatError
		require.ErrorAs(t, err, &format)
		assert.Contains(t, format.Detail, "elevation segment count")
	})

	t.Run("zone count out of range", func(t *testing.T) {
		payload := clutterPayload(t, 1)
		binary.BigEndian.PutUint16(payload[6:8], 21) // first azimuth's zone count

		_, err := decodeClutterFilterMap(payload)

		var format *archive.FormatError
		require.ErrorAs(t, err, &format)
		assert.Contains(t, format.Detail, "range zone count")
	})

	t.Run("map shorter than its segments", func(t *testing.T) {
		payload := clutterPayload(t, 1)

		_, err := decodeClutterFilterMap(payload[:200])

		var truncated *archive.TruncatedDataError
		require.ErrorAs(t, err, &truncated)
	})
}

func TestClutterOpCodeString(t *testing.T) {
	assert.Equal(t, "bypass filter", OpBypassFilter.String())
	assert.Equal(t, "force filter", OpForceFilter.String())
	assert.Contains(t, ClutterOpCode(9).String(), "unknown")
}
