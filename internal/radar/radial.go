package radar

import (
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/message"
)

// Radial is one azimuth's worth of gate data at a given elevation, with
// the collection geometry needed to place its gates.
type Radial struct {
	// AzimuthNumber is the radial's 1-based index within the sweep.
	AzimuthNumber uint16

	// AzimuthAngle and AzimuthSpacing are in degrees.
	AzimuthAngle   float32
	AzimuthSpacing float32

	// ElevationNumber is the VCP cut index; ElevationAngle is in degrees.
	ElevationNumber uint8
	ElevationAngle  float32

	// CollectedAt is the radial collection time in UTC.
	CollectedAt time.Time

	// UnambiguousRangeKM and NyquistVelocityMS are zero when the radial
	// carried no RRAD block.
	UnambiguousRangeKM float32
	NyquistVelocityMS  float32

	moments map[MomentID]MomentData
}

// newRadial builds a radial from a decoded digital radar data message,
// copying the moment gate data out of the message buffer.
func newRadial(m *message.DigitalRadarData) Radial {
	r := Radial{
		AzimuthNumber:   m.AzimuthNumber,
		AzimuthAngle:    m.AzimuthAngle,
		AzimuthSpacing:  m.AzimuthSpacingDegrees(),
		ElevationNumber: m.ElevationNumber,
		ElevationAngle:  m.ElevationAngle,
		CollectedAt:     m.DateTime(),
		moments:         make(map[MomentID]MomentData),
	}
	if m.RadialInfo != nil {
		r.UnambiguousRangeKM = m.RadialInfo.UnambiguousRangeKM
		r.NyquistVelocityMS = m.RadialInfo.NyquistVelocityMS
	}
	for tag, block := range m.Moments() {
		id := MomentID(tag)
		r.moments[id] = newMomentData(id, block)
	}
	return r
}

// Moment returns the radial's data for one moment, if present.
func (r Radial) Moment(id MomentID) (MomentData, bool) {
	m, ok := r.moments[id]
	return m, ok
}

// MomentIDs returns the present moments in stable presentation order.
func (r Radial) MomentIDs() []MomentID {
	var ids []MomentID
	for _, id := range momentOrder {
		if _, ok := r.moments[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// absorb adds the other radial's moments that this radial lacks. Used
// when merging split-cut passes that covered the same azimuth with
// different waveforms.
func (r Radial) absorb(other Radial) Radial {
	for id, m := range other.moments {
		if _, ok := r.moments[id]; !ok {
			r.moments[id] = m
		}
	}
	return r
}
