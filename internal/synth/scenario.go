package synth

import "time"

// SplitCutVolume builds a complete volume exercising the split-cut path:
// an RDA status message, a three-cut coverage pattern (surveillance and
// Doppler passes at 0.5 degrees plus a combined batch cut at 1.45), and
// the matching three radial passes spread across two compressed records.
//
// Every radial's gate 0 is the below-threshold code and gate 1 the
// range-folded code; remaining gates cycle through valid values.
func SplitCutVolume(site string, start time.Time, radials, gates int) ([]byte, error) {
	v := NewVolume(site, start)

	vcp := VolumeCoveragePattern(212, []Cut{
		{Elevation: 0.5, Waveform: 1, SuperRes: 1},
		{Elevation: 0.5, Waveform: 3, SuperRes: 1},
		{Elevation: 1.45, Waveform: 4},
	}, 48, start)
	status := RDAStatus(212, start)

	surveillance := pass(site, start, 1, 0.5, radials, gates, 3, 2, []string{"DREF"})
	doppler := pass(site, start.Add(20*time.Second), 1, 0.5, radials, gates, 0, 2, []string{"DVEL", "DSW "})
	batch := pass(site, start.Add(40*time.Second), 2, 1.45, radials, gates, 5, 4, []string{"DREF", "DVEL", "DSW "})

	record1 := append([][]byte{status, vcp}, surveillance...)
	v.AddRecord(true, record1...)
	v.AddRecord(true, append(doppler, batch...)...)

	return v.Bytes()
}

// pass renders one status-delimited radial run at a single elevation.
func pass(site string, start time.Time, elevNum uint8, elevation float32, radials, gates int, firstStatus, lastStatus uint8, tags []string) [][]byte {
	messages := make([][]byte, 0, radials)
	for i := 0; i < radials; i++ {
		status := uint8(1)
		switch i {
		case 0:
			status = firstStatus
		case radials - 1:
			status = lastStatus
		}

		moments := make([]Moment, 0, len(tags))
		for _, tag := range tags {
			moments = append(moments, Moment{
				Tag:            tag,
				Gates:          gateCodes(i, gates),
				WordSize:       8,
				Scale:          2,
				Offset:         66,
				FirstGateRange: 2125,
				GateInterval:   250,
			})
		}

		messages = append(messages, DigitalRadarData(Radial{
			ICAO:            site,
			Time:            start.Add(time.Duration(i) * 250 * time.Millisecond),
			AzimuthNumber:   uint16(i + 1),
			Azimuth:         float32(i) * 360 / float32(radials),
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
	return messages
}

// gateCodes yields a radial's raw codes: the two sentinels first, then a
// deterministic ramp of valid codes.
func gateCodes(radial, gates int) []uint16 {
	codes := make([]uint16, gates)
	codes[0] = 0
	if gates > 1 {
		codes[1] = 1
	}
	for g := 2; g < gates; g++ {
		codes[g] = uint16(2 + (radial+g)%250)
	}
	return codes
}
