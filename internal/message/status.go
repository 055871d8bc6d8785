package message

import (
	"encoding/binary"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
)

const rdaStatusSize = 80

// RDAStatus is a decoded type 2 message: the RDA's operating state at the
// moment of transmission. One is emitted at the start of every volume and
// whenever the state changes.
type RDAStatus struct {
	// Status: 2 start-up, 4 standby, 8 restart, 16 operate, 32 spare,
	// 64 off-line operate.
	Status uint16

	// OperabilityStatus: 2 on-line, 4 maintenance action required,
	// 8 maintenance action mandatory, 16 commanded shut-down,
	// 32 inoperable.
	OperabilityStatus uint16

	// ControlStatus: 2 local only, 4 RPG (remote) only, 8 either.
	ControlStatus uint16

	AuxiliaryPowerGeneratorState uint16

	// AverageTransmitterPowerW is in watts.
	AverageTransmitterPowerW uint16

	// Calibration corrections are in hundredths of a dB.
	HorizontalReflectivityCalibrationCorrection int16
	VerticalReflectivityCalibrationCorrection   int16

	DataTransmissionEnabled uint16

	// VolumeCoveragePatternNumber is negative when locally selected.
	VolumeCoveragePatternNumber int16

	RDAControlAuthorization uint16

	rdaBuildNumber uint16

	OperationalMode       uint16
	SuperResolutionStatus uint16

	ClutterMitigationDecisionStatus uint16
	AvsetStatus                     uint16

	RDAAlarmSummary       uint16
	CommandAcknowledgment uint16
	ChannelControlStatus  uint16
	SpotBlankingStatus    uint16

	BypassMapGenerationDate        uint16
	BypassMapGenerationTime        uint16
	ClutterFilterMapGenerationDate uint16
	ClutterFilterMapGenerationTime uint16

	TransitionPowerSourceStatus uint16
	RMSControlStatus            uint16
	PerformanceCheckStatus      uint16

	// AlarmCodes holds up to 14 active alarm codes; zero entries are
	// unused slots.
	AlarmCodes [14]uint16
}

// BuildNumber returns the RDA software build as a decimal version. Builds
// before 12.0 are coded in tenths, later ones in hundredths.
func (s *RDAStatus) BuildNumber() float64 {
	if s.rdaBuildNumber >= 200 {
		return float64(s.rdaBuildNumber) / 100
	}
	return float64(s.rdaBuildNumber) / 10
}

// BypassMapGeneratedAt returns the bypass map generation time in UTC. The
// time field here is minutes past midnight, unlike the millisecond fields
// elsewhere.
func (s *RDAStatus) BypassMapGeneratedAt() time.Time {
	return archive.JulianDateTime(s.BypassMapGenerationDate, time.Duration(s.BypassMapGenerationTime)*time.Minute)
}

// ClutterFilterMapGeneratedAt returns the clutter filter map generation
// time in UTC.
func (s *RDAStatus) ClutterFilterMapGeneratedAt() time.Time {
	return archive.JulianDateTime(s.ClutterFilterMapGenerationDate, time.Duration(s.ClutterFilterMapGenerationTime)*time.Minute)
}

// ActiveAlarms returns the non-zero alarm codes.
func (s *RDAStatus) ActiveAlarms() []uint16 {
	var alarms []uint16
	for _, code := range s.AlarmCodes {
		if code != 0 {
			alarms = append(alarms, code)
		}
	}
	return alarms
}

func decodeRDAStatus(payload []byte) (*RDAStatus, error) {
	if len(payload) < rdaStatusSize {
		return nil, &archive.TruncatedDataError{Unit: "message type 2", Declared: rdaStatusSize, Available: len(payload)}
	}
	u16 := func(off int) uint16 { return binary.BigEndian.Uint16(payload[off:]) }

	s := &RDAStatus{
		Status:                       u16(0),
		OperabilityStatus:            u16(2),
		ControlStatus:                u16(4),
		AuxiliaryPowerGeneratorState: u16(6),
		AverageTransmitterPowerW:     u16(8),
		HorizontalReflectivityCalibrationCorrection: int16(u16(10)),
		DataTransmissionEnabled:                     u16(12),
		VolumeCoveragePatternNumber:                 int16(u16(14)),
		RDAControlAuthorization:                     u16(16),
		rdaBuildNumber:                              u16(18),
		OperationalMode:                             u16(20),
		SuperResolutionStatus:                       u16(22),
		ClutterMitigationDecisionStatus:             u16(24),
		AvsetStatus:                                 u16(26),
		RDAAlarmSummary:                             u16(28),
		CommandAcknowledgment:                       u16(30),
		ChannelControlStatus:                        u16(32),
		SpotBlankingStatus:                          u16(34),
		BypassMapGenerationDate:                     u16(36),
		BypassMapGenerationTime:                     u16(38),
		ClutterFilterMapGenerationDate:              u16(40),
		ClutterFilterMapGenerationTime:              u16(42),
		VerticalReflectivityCalibrationCorrection:   int16(u16(44)),
		TransitionPowerSourceStatus:                 u16(46),
		RMSControlStatus:                            u16(48),
		PerformanceCheckStatus:                      u16(50),
	}
	for i := range s.AlarmCodes {
		s.AlarmCodes[i] = u16(52 + i*2)
	}
	return s, nil
}
