package radar

import (
	"github.com/couchcryptid/nexrad-data-etl/internal/message"
)

// MomentID names a radar data moment.
type MomentID string

const (
	MomentReflectivity             MomentID = "REF"
	MomentVelocity                 MomentID = "VEL"
	MomentSpectrumWidth            MomentID = "SW"
	MomentDifferentialReflectivity MomentID = "ZDR"
	MomentDifferentialPhase       MomentID = "PHI"
	MomentCorrelationCoefficient  MomentID = "RHO"
	MomentClutterFilterPower      MomentID = "CFP"
)

// momentOrder fixes a stable presentation order for moment sets.
var momentOrder = []MomentID{
	MomentReflectivity,
	MomentVelocity,
	MomentSpectrumWidth,
	MomentDifferentialReflectivity,
	MomentDifferentialPhase,
	MomentCorrelationCoefficient,
	MomentClutterFilterPower,
}

// GateKind distinguishes a measured gate from the two coded sentinels.
type GateKind uint8

const (
	// GateValid means the gate carries a measured physical value.
	GateValid GateKind = iota

	// GateBelowThreshold means the return was below the SNR threshold.
	GateBelowThreshold

	// GateRangeFolded means the return's range was ambiguous.
	GateRangeFolded
)

// Gate is one range gate's tri-state value. Value is meaningful only when
// Kind is GateValid.
type Gate struct {
	Kind  GateKind
	Value float32
}

// MomentData is one moment's gate array for a single radial. Raw gate
// codes are retained and converted on access, so the sentinel codes
// survive rather than collapsing into computed values.
type MomentData struct {
	// ID names the moment.
	ID MomentID

	// FirstGateRange and GateInterval are in meters.
	FirstGateRange float32
	GateInterval   float32

	wordSize uint8
	scale    float32
	offset   float32
	raw      []byte
}

// newMomentData copies the packed gate codes out of the message buffer so
// the model outlives the record it was decoded from.
func newMomentData(id MomentID, b *message.MomentBlock) MomentData {
	raw := make([]byte, len(b.Data))
	copy(raw, b.Data)
	return MomentData{
		ID:             id,
		FirstGateRange: float32(b.FirstGateRange),
		GateInterval:   float32(b.GateInterval),
		wordSize:       b.WordSize,
		scale:          b.Scale,
		offset:         b.Offset,
		raw:            raw,
	}
}

// GateCount returns the number of gates in this radial for this moment.
func (m MomentData) GateCount() int {
	if m.wordSize == 16 {
		return len(m.raw) / 2
	}
	return len(m.raw)
}

// RawGate returns the i'th coded gate value.
func (m MomentData) RawGate(i int) uint16 {
	if m.wordSize == 16 {
		return uint16(m.raw[i*2])<<8 | uint16(m.raw[i*2+1])
	}
	return uint16(m.raw[i])
}

// Gate returns the i'th gate. Codes 0 and 1 are the below-threshold and
// range-folded sentinels; other codes convert as (code - offset) / scale,
// or pass through unscaled when scale is zero.
func (m MomentData) Gate(i int) Gate {
	code := m.RawGate(i)
	switch code {
	case 0:
		return Gate{Kind: GateBelowThreshold}
	case 1:
		return Gate{Kind: GateRangeFolded}
	}
	if m.scale == 0 {
		return Gate{Kind: GateValid, Value: float32(code)}
	}
	return Gate{Kind: GateValid, Value: (float32(code) - m.offset) / m.scale}
}

// Gates materializes all gates in range order.
func (m MomentData) Gates() []Gate {
	gates := make([]Gate, m.GateCount())
	for i := range gates {
		gates[i] = m.Gate(i)
	}
	return gates
}
