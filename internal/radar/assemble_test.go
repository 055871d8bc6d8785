package radar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nexrad-data-etl/internal/message"
	"github.com/couchcryptid/nexrad-data-etl/internal/synth"
)

var testStart = time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)

// decodeRecord runs concatenated synthetic frames through the message
// layer, failing the test on any fault.
func decodeRecord(t *testing.T, frames ...[]byte) []message.Message {
	t.Helper()
	var record []byte
	for _, f := range frames {
		record = append(record, f...)
	}
	messages, faults := message.DecodeAll(record)
	require.Empty(t, faults)
	return messages
}

// radialPass renders one status-delimited run of radials at an elevation.
func radialPass(elevNum uint8, elevation float32, radials int, firstStatus, lastStatus uint8, tags ...string) [][]byte {
	frames := make([][]byte, 0, radials)
	for i := 0; i < radials; i++ {
		status := uint8(1)
		switch i {
		case 0:
			status = firstStatus
		case radials - 1:
			status = lastStatus
		}

		moments := make([]synth.Moment, 0, len(tags))
		for _, tag := range tags {
			moments = append(moments, synth.Moment{
				Tag:            tag,
				Gates:          []uint16{0, 1, 70, 80},
				WordSize:       8,
				Scale:          2,
				Offset:         66,
				FirstGateRange: 2125,
				GateInterval:   250,
			})
		}

		frames = append(frames, synth.DigitalRadarData(synth.Radial{
			ICAO:            "KDMX",
			Time:            testStart.Add(time.Duration(i) * 250 * time.Millisecond),
			AzimuthNumber:   uint16(i + 1),
			Azimuth:         float32(i) * 0.5,
			Elevation:       elevation,
			ElevationNumber: elevNum,
			Status:          status,
			Moments:         moments,
			WithVolumeBlock: i == 0,
			VCPNumber:       212,
			Latitude:        41.73,
			Longitude:       -93.72,
			WithRadialBlock: i == 0,
			NyquistRaw:      2785,
		}))
	}
	return frames
}

func assembleSplitCut(t *testing.T) *Assembler {
	t.Helper()
	frames := [][]byte{
		synth.RDAStatus(212, testStart),
		synth.VolumeCoveragePattern(212, []synth.Cut{
			{Elevation: 0.5, Waveform: 1, SuperRes: 1},
			{Elevation: 0.5, Waveform: 3, SuperRes: 1},
			{Elevation: 1.45, Waveform: 4},
		}, 48, testStart),
	}
	frames = append(frames, radialPass(1, 0.5, 4, 3, 2, "DREF")...)
	frames = append(frames, radialPass(1, 0.5, 4, 0, 2, "DVEL", "DSW ")...)
	frames = append(frames, radialPass(2, 1.45, 4, 5, 4, "DREF", "DVEL", "DSW ")...)

	a := NewAssembler()
	for _, m := range decodeRecord(t, frames...) {
		a.Add(m)
	}
	return a
}

func TestAssemblerSplitCut(t *testing.T) {
	a := assembleSplitCut(t)

	assert.True(t, a.Complete())
	scan, err := a.Scan()
	require.NoError(t, err)

	t.Run("scan metadata", func(t *testing.T) {
		assert.Equal(t, "KDMX", scan.Site)
		assert.Equal(t, uint16(212), scan.CoveragePatternNumber)
		assert.Equal(t, testStart, scan.VolumeStart)
		assert.InDelta(t, 41.73, scan.Latitude, 1e-4)
		assert.InDelta(t, -93.72, scan.Longitude, 1e-4)
		require.NotNil(t, scan.Status)
		require.NotNil(t, scan.VCP)
		assert.Equal(t, uint16(212), scan.VCP.PatternNumber)
	})

	t.Run("split cut merges into one sweep", func(t *testing.T) {
		require.Len(t, scan.Sweeps, 2)

		merged := scan.Sweeps[0]
		assert.Equal(t, uint8(1), merged.ElevationNumber)
		assert.Equal(t, 2, merged.Passes)
		assert.Len(t, merged.Radials, 4)
		assert.Equal(t, []MomentID{MomentReflectivity, MomentVelocity, MomentSpectrumWidth}, merged.MomentIDs())

		// Each merged radial carries both passes' moments.
		for _, r := range merged.Radials {
			_, hasRef := r.Moment(MomentReflectivity)
			_, hasVel := r.Moment(MomentVelocity)
			assert.True(t, hasRef)
			assert.True(t, hasVel)
		}
	})

	t.Run("batch cut stays a single pass", func(t *testing.T) {
		batch := scan.Sweeps[1]
		assert.Equal(t, uint8(2), batch.ElevationNumber)
		assert.Equal(t, 1, batch.Passes)
		assert.Len(t, batch.Radials, 4)
		assert.InDelta(t, 1.45, batch.ElevationAngle(), 1e-3)
	})

	t.Run("pattern validation passes", func(t *testing.T) {
		assert.NoError(t, scan.ValidateAgainstVCP())
	})

	assert.Equal(t, 8, scan.RadialCount())
}

func TestAssemblerElevationChangeBoundsPass(t *testing.T) {
	// No start or end markers at all; only the elevation number moves.
	frames := radialPass(1, 0.5, 3, 1, 1, "DREF")
	frames = append(frames, radialPass(2, 1.45, 3, 1, 1, "DREF")...)

	a := NewAssembler()
	for _, m := range decodeRecord(t, frames...) {
		a.Add(m)
	}

	scan, err := a.Scan()
	require.NoError(t, err)
	require.Len(t, scan.Sweeps, 2)
	assert.Len(t, scan.Sweeps[0].Radials, 3)
	assert.Len(t, scan.Sweeps[1].Radials, 3)
	assert.False(t, a.Complete())
}

func TestAssemblerSweepsOrderByElevationNumber(t *testing.T) {
	// Cuts arriving out of pattern order still come out sorted.
	frames := radialPass(2, 1.45, 3, 0, 2, "DREF")
	frames = append(frames, radialPass(1, 0.5, 3, 0, 2, "DREF")...)

	a := NewAssembler()
	for _, m := range decodeRecord(t, frames...) {
		a.Add(m)
	}

	scan, err := a.Scan()
	require.NoError(t, err)
	require.Len(t, scan.Sweeps, 2)
	assert.Equal(t, uint8(1), scan.Sweeps[0].ElevationNumber)
	assert.Equal(t, uint8(2), scan.Sweeps[1].ElevationNumber)
}

func TestAssemblerPartialVolume(t *testing.T) {
	frames := radialPass(1, 0.5, 3, 3, 1, "DREF") // never reaches an end status

	a := NewAssembler()
	for _, m := range decodeRecord(t, frames...) {
		a.Add(m)
	}

	assert.False(t, a.Complete())
	scan, err := a.Scan()
	require.NoError(t, err)
	require.Len(t, scan.Sweeps, 1)
	assert.Len(t, scan.Sweeps[0].Radials, 3)
}

func TestAssemblerNoRadials(t *testing.T) {
	a := NewAssembler()
	for _, m := range decodeRecord(t, synth.RDAStatus(212, testStart)) {
		a.Add(m)
	}

	_, err := a.Scan()
	assert.ErrorIs(t, err, ErrNoRadials)
}

func TestValidateAgainstVCP(t *testing.T) {
	threeCuts := &message.VolumeCoveragePattern{
		PatternNumber: 212,
		ElevationCuts: make([]message.ElevationCut, 3),
	}

	t.Run("no decoded pattern validates trivially", func(t *testing.T) {
		scan := &Scan{Sweeps: []Sweep{{ElevationNumber: 1, Passes: 1}}}
		assert.NoError(t, scan.ValidateAgainstVCP())
	})

	t.Run("no sweeps", func(t *testing.T) {
		scan := &Scan{VCP: threeCuts}
		assert.Error(t, scan.ValidateAgainstVCP())
	})

	t.Run("more passes than pattern cuts", func(t *testing.T) {
		scan := &Scan{VCP: threeCuts, Sweeps: []Sweep{
			{ElevationNumber: 1, Passes: 2},
			{ElevationNumber: 2, Passes: 2},
		}}
		assert.ErrorContains(t, scan.ValidateAgainstVCP(), "pattern cuts")
	})

	t.Run("elevation numbers must increase", func(t *testing.T) {
		scan := &Scan{VCP: threeCuts, Sweeps: []Sweep{
			{ElevationNumber: 2, Passes: 1},
			{ElevationNumber: 1, Passes: 1},
		}}
		assert.ErrorContains(t, scan.ValidateAgainstVCP(), "strictly increasing")
	})
}
