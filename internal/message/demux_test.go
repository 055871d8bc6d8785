package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
	"github.com/couchcryptid/nexrad-data-etl/internal/synth"
)

var testTime = time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)

func testRadial(azimuthNumber uint16, status uint8) []byte {
	return synth.DigitalRadarData(synth.Radial{
		ICAO:            "KDMX",
		Time:            testTime,
		AzimuthNumber:   azimuthNumber,
		Azimuth:         float32(azimuthNumber-1) * 0.5,
		Elevation:       0.5,
		ElevationNumber: 1,
		Status:          status,
		Moments: []synth.Moment{{
			Tag:            "DREF",
			Gates:          []uint16{0, 1, 70, 80},
			WordSize:       8,
			Scale:          2,
			Offset:         66,
			FirstGateRange: 2125,
			GateInterval:   250,
		}},
	})
}

func TestDemuxVariableLength(t *testing.T) {
	record := append(testRadial(1, 3), testRadial(2, 1)...)

	frames, faults := Demux(record)

	require.Empty(t, faults)
	require.Len(t, frames, 2)
	assert.Equal(t, TypeDigitalRadarData, frames[0].Header.Type)
	assert.Equal(t, 0, frames[0].Index)
	assert.Equal(t, 1, frames[1].Index)
	assert.Equal(t, testTime, frames[0].Header.DateTime())
}

func TestDemuxFixedFrames(t *testing.T) {
	record := append(synth.RDAStatus(212, testTime), testRadial(1, 3)...)

	frames, faults := Demux(record)

	require.Empty(t, faults)
	require.Len(t, frames, 2)
	assert.Equal(t, TypeRDAStatus, frames[0].Header.Type)
	assert.Equal(t, TypeDigitalRadarData, frames[1].Header.Type)
}

func TestDemuxStopsAtZeroPadding(t *testing.T) {
	record := append(testRadial(1, 3), make([]byte, 64)...)

	frames, faults := Demux(record)

	require.Empty(t, faults)
	assert.Len(t, frames, 1)
}

func TestDemuxTruncatedMessage(t *testing.T) {
	whole := testRadial(1, 3)
	record := append(testRadial(2, 1), whole[:len(whole)-40]...)

	frames, faults := Demux(record)

	require.Len(t, frames, 1)
	assert.Equal(t, 0, frames[0].Index)

	require.Len(t, faults, 1)
	assert.Equal(t, 1, faults[0].Message)
	var truncated *archive.TruncatedDataError
	require.ErrorAs(t, faults[0].Err, &truncated)
}

func TestDemuxSegmented(t *testing.T) {
	segments := synth.ClutterFilterMap(2, testTime)
	require.Len(t, segments, 2, "two elevations should span two frames")

	t.Run("in order segments reassemble", func(t *testing.T) {
		record := append(append([]byte{}, segments[0]...), segments[1]...)

		frames, faults := Demux(record)

		require.Empty(t, faults)
		require.Len(t, frames, 1)
		assert.Equal(t, TypeClutterFilterMap, frames[0].Header.Type)
		assert.Len(t, frames[0].Payload, 6+2*360*6)
		assert.Equal(t, 0, frames[0].Index)
	})

	t.Run("incomplete set is dropped silently", func(t *testing.T) {
		frames, faults := Demux(segments[0])

		assert.Empty(t, faults)
		assert.Empty(t, frames)
	})

	t.Run("out of order segments are dropped", func(t *testing.T) {
		record := append(append([]byte{}, segments[1]...), segments[0]...)

		frames, faults := Demux(record)

		assert.Empty(t, faults)
		assert.Empty(t, frames)
	})

	t.Run("surrounding messages are unaffected", func(t *testing.T) {
		record := append(append([]byte{}, segments[0]...), segments[1]...)
		record = append(record, testRadial(1, 3)...)

		frames, faults := Demux(record)

		require.Empty(t, faults)
		require.Len(t, frames, 2)
		assert.Equal(t, TypeClutterFilterMap, frames[0].Header.Type)
		assert.Equal(t, TypeDigitalRadarData, frames[1].Header.Type)
		assert.Equal(t, 2, frames[1].Index)
	})
}

func TestDemuxUnknownTypeStillFramed(t *testing.T) {
	frame := testRadial(1, 3)
	record := append(synth.RDAStatus(212, testTime), frame...)
	record[12+3] = 77 // unknown fixed-frame type

	frames, faults := Demux(record)

	require.Empty(t, faults)
	require.Len(t, frames, 2)
	assert.Equal(t, Type(77), frames[0].Header.Type)
	assert.Equal(t, TypeDigitalRadarData, frames[1].Header.Type)
}
