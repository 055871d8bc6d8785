package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
	"github.com/couchcryptid/nexrad-data-etl/internal/synth"
)

func statusPayload(t *testing.T) []byte {
	t.Helper()
	frames, faults := Demux(synth.RDAStatus(212, testTime))
	require.Empty(t, faults)
	require.Len(t, frames, 1)
	return frames[0].Payload
}

func TestDecodeRDAStatus(t *testing.T) {
	s, err := decodeRDAStatus(statusPayload(t))
	require.NoError(t, err)

	assert.Equal(t, uint16(16), s.Status)
	assert.Equal(t, uint16(2), s.OperabilityStatus)
	assert.Equal(t, uint16(4), s.ControlStatus)
	assert.Equal(t, int16(212), s.VolumeCoveragePatternNumber)
	assert.InDelta(t, 19.30, s.BuildNumber(), 1e-6)
	assert.Empty(t, s.ActiveAlarms())

	t.Run("unset map dates stay zero", func(t *testing.T) {
		assert.True(t, s.BypassMapGeneratedAt().IsZero())
		assert.True(t, s.ClutterFilterMapGeneratedAt().IsZero())
	})
}

func TestDecodeRDAStatusBuildNumber(t *testing.T) {
	payload := statusPayload(t)
	// Builds before 12.0 are coded in tenths.
	payload[18] = 0
	payload[19] = 114

	s, err := decodeRDAStatus(payload)
	require.NoError(t, err)
	assert.InDelta(t, 11.4, s.BuildNumber(), 1e-6)
}

func TestDecodeRDAStatusAlarms(t *testing.T) {
	payload := statusPayload(t)
	payload[53] = 14 // first alarm slot
	payload[57] = 41 // third alarm slot

	s, err := decodeRDAStatus(payload)
	require.NoError(t, err)
	assert.Equal(t, []uint16{14, 41}, s.ActiveAlarms())
}

func TestDecodeRDAStatusTruncated(t *testing.T) {
	_, err := decodeRDAStatus(make([]byte, 40))

	var truncated *archive.TruncatedDataError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, rdaStatusSize, truncated.Declared)
}

func TestRDAStatusMapGenerationTimes(t *testing.T) {
	payload := statusPayload(t)
	days := uint16(time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC).Unix()/86400) + 1
	payload[36] = byte(days >> 8)
	payload[37] = byte(days)
	payload[38] = 0
	payload[39] = 90 // 01:30

	s, err := decodeRDAStatus(payload)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 26, 1, 30, 0, 0, time.UTC), s.BypassMapGeneratedAt())
}
