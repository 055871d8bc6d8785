package message

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
	"github.com/couchcryptid/nexrad-data-etl/internal/synth"
)

// radialPayload renders a full synthetic radial and strips the framing,
// leaving the bytes decodeDigitalRadarData sees.
func radialPayload(t *testing.T, r synth.Radial) []byte {
	t.Helper()
	frames, faults := Demux(synth.DigitalRadarData(r))
	require.Empty(t, faults)
	require.Len(t, frames, 1)
	return frames[0].Payload
}

func fullRadial() synth.Radial {
	return synth.Radial{
		ICAO:            "KDMX",
		Time:            testTime,
		AzimuthNumber:   42,
		Azimuth:         20.5,
		Elevation:       0.48,
		ElevationNumber: 1,
		Status:          1,
		Moments: []synth.Moment{
			{Tag: "DREF", Gates: []uint16{0, 1, 70, 80, 90}, WordSize: 8, Scale: 2, Offset: 66, FirstGateRange: 2125, GateInterval: 250},
			{Tag: "DVEL", Gates: []uint16{0, 1, 300, 500}, WordSize: 16, Scale: 2, Offset: 129, FirstGateRange: 2125, GateInterval: 250},
		},
		WithVolumeBlock: true,
		VCPNumber:       212,
		Latitude:        41.73,
		Longitude:       -93.72,
		WithRadialBlock: true,
		NyquistRaw:      2785,
	}
}

func TestDecodeDigitalRadarData(t *testing.T) {
	payload := radialPayload(t, fullRadial())

	m, err := decodeDigitalRadarData(payload)
	require.NoError(t, err)

	t.Run("radial header", func(t *testing.T) {
		assert.Equal(t, "KDMX", m.RadarID)
		assert.Equal(t, uint16(42), m.AzimuthNumber)
		assert.InDelta(t, 20.5, m.AzimuthAngle, 1e-6)
		assert.InDelta(t, 0.48, m.ElevationAngle, 1e-6)
		assert.Equal(t, uint8(1), m.ElevationNumber)
		assert.Equal(t, StatusIntermediate, m.Status)
		assert.Equal(t, testTime, m.DateTime())
		assert.InDelta(t, 0.5, m.AzimuthSpacingDegrees(), 1e-6)
	})

	t.Run("volume block", func(t *testing.T) {
		require.NotNil(t, m.Volume)
		assert.Equal(t, uint16(212), m.Volume.CoveragePatternNumber)
		assert.InDelta(t, 41.73, m.Volume.Latitude, 1e-4)
		assert.InDelta(t, -93.72, m.Volume.Longitude, 1e-4)
		assert.Equal(t, int16(300), m.Volume.SiteHeightMeters)
	})

	t.Run("radial block", func(t *testing.T) {
		require.NotNil(t, m.RadialInfo)
		assert.InDelta(t, 460.0, m.RadialInfo.UnambiguousRangeKM, 1e-3)
		assert.InDelta(t, 27.85, m.RadialInfo.NyquistVelocityMS, 1e-3)
	})

	t.Run("eight bit moment", func(t *testing.T) {
		require.NotNil(t, m.Reflectivity)
		assert.Equal(t, uint16(5), m.Reflectivity.GateCount)
		assert.Equal(t, uint8(8), m.Reflectivity.WordSize)
		assert.InDelta(t, 2.0, m.Reflectivity.Scale, 1e-6)
		assert.InDelta(t, 66.0, m.Reflectivity.Offset, 1e-6)
		assert.Equal(t, uint16(0), m.Reflectivity.RawGate(0))
		assert.Equal(t, uint16(1), m.Reflectivity.RawGate(1))
		assert.Equal(t, uint16(70), m.Reflectivity.RawGate(2))
	})

	t.Run("sixteen bit moment", func(t *testing.T) {
		require.NotNil(t, m.Velocity)
		assert.Equal(t, uint8(16), m.Velocity.WordSize)
		assert.Len(t, m.Velocity.Data, 8)
		assert.Equal(t, uint16(300), m.Velocity.RawGate(2))
		assert.Equal(t, uint16(500), m.Velocity.RawGate(3))
	})

	t.Run("absent moments are nil", func(t *testing.T) {
		assert.Nil(t, m.SpectrumWidth)
		assert.Nil(t, m.CorrelationCoefficient)
		assert.Len(t, m.Moments(), 2)
	})
}

func TestDecodeDigitalRadarDataFaults(t *testing.T) {
	t.Run("truncated header", func(t *testing.T) {
		_, err := decodeDigitalRadarData(make([]byte, 20))

		var truncated *archive.TruncatedDataError
		require.ErrorAs(t, err, &truncated)
	})

	t.Run("zero pointer means absent block", func(t *testing.T) {
		payload := radialPayload(t, fullRadial())
		// Zero the second pointer (RRAD).
		binary.BigEndian.PutUint32(payload[36:40], 0)

		m, err := decodeDigitalRadarData(payload)
		require.NoError(t, err)
		assert.Nil(t, m.RadialInfo)
		require.NotNil(t, m.Volume)
	})

	t.Run("pointer past payload", func(t *testing.T) {
		payload := radialPayload(t, fullRadial())
		binary.BigEndian.PutUint32(payload[36:40], uint32(len(payload)+100))

		_, err := decodeDigitalRadarData(payload)

		var format *archive.FormatError
		require.ErrorAs(t, err, &format)
		assert.Contains(t, format.Detail, "block pointer")
	})

	t.Run("pointer into pointer table", func(t *testing.T) {
		payload := radialPayload(t, fullRadial())
		binary.BigEndian.PutUint32(payload[36:40], 8)

		_, err := decodeDigitalRadarData(payload)

		var format *archive.FormatError
		require.ErrorAs(t, err, &format)
	})

	t.Run("block count out of range", func(t *testing.T) {
		payload := radialPayload(t, fullRadial())
		binary.BigEndian.PutUint16(payload[30:32], 11)

		_, err := decodeDigitalRadarData(payload)

		var format *archive.FormatError
		require.ErrorAs(t, err, &format)
		assert.Contains(t, format.Detail, "data block count")
	})

	t.Run("bad moment word size", func(t *testing.T) {
		r := fullRadial()
		r.Moments = r.Moments[:1]
		r.Moments[0].WordSize = 12
		payload := radialPayload(t, r)

		_, err := decodeDigitalRadarData(payload)

		var format *archive.FormatError
		require.ErrorAs(t, err, &format)
		assert.Contains(t, format.Detail, "word size")
	})
}

func TestDecodeVolumeDataLayouts(t *testing.T) {
	payload := radialPayload(t, fullRadial())
	rvolPointer := int(binary.BigEndian.Uint32(payload[32:36]))
	sizeField := payload[rvolPointer+4 : rvolPointer+6]

	t.Run("size counting the tag", func(t *testing.T) {
		binary.BigEndian.PutUint16(sizeField, 44)
		m, err := decodeDigitalRadarData(payload)
		require.NoError(t, err)
		assert.Equal(t, uint16(212), m.Volume.CoveragePatternNumber)
	})

	t.Run("size excluding the tag", func(t *testing.T) {
		binary.BigEndian.PutUint16(sizeField, 40)
		m, err := decodeDigitalRadarData(payload)
		require.NoError(t, err)
		assert.Equal(t, uint16(212), m.Volume.CoveragePatternNumber)
	})

	t.Run("unknown size rejected", func(t *testing.T) {
		binary.BigEndian.PutUint16(sizeField, 50)
		_, err := decodeDigitalRadarData(payload)

		var format *archive.FormatError
		require.ErrorAs(t, err, &format)
		assert.Contains(t, format.Detail, "RVOL")
	})
}
