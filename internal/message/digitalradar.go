package message

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
)

// RadialStatus describes a radial's position within the larger scan. The
// transitions (not elevation numbers, which repeat across split cuts) are
// what delimit sweeps during model assembly.
type RadialStatus uint8

const (
	StatusElevationStart RadialStatus = 0
	StatusIntermediate   RadialStatus = 1
	StatusElevationEnd   RadialStatus = 2
	StatusVolumeStart    RadialStatus = 3
	StatusVolumeEnd      RadialStatus = 4
	// StatusElevationStartFinal marks the start of the last elevation in
	// the VCP.
	StatusElevationStartFinal RadialStatus = 5
)

// String returns the ICD name for the status code.
func (s RadialStatus) String() string {
	switch s {
	case StatusElevationStart:
		return "start of elevation"
	case StatusIntermediate:
		return "intermediate"
	case StatusElevationEnd:
		return "end of elevation"
	case StatusVolumeStart:
		return "start of volume"
	case StatusVolumeEnd:
		return "end of volume"
	case StatusElevationStartFinal:
		return "start of last elevation"
	}
	return fmt.Sprintf("unknown (%d)", uint8(s))
}

const (
	radialHeaderSize       = 32
	blockTagSize           = 4
	momentBlockHeaderSize  = 24 // after the tag
	volumeBlockSizeLegacy  = 40 // after the tag, through RDA Build 18
	volumeBlockSizeCurrent = 48 // after the tag, RDA Build 19 and later
	elevationBlockSize     = 8
	radialBlockSize        = 24
)

// DigitalRadarData is a decoded type 31 message: one radial's header and
// data blocks. Any block may be absent; a nil pointer means the moment was
// not collected for this radial (e.g. no dual-pol data in legacy mode).
type DigitalRadarData struct {
	// RadarID is the ICAO site identifier.
	RadarID string

	// Time is milliseconds past midnight GMT; Date is days since
	// 1 January 1970 (day 1 = epoch).
	Time uint32
	Date uint16

	// AzimuthNumber is the radial's index within the elevation scan,
	// up to 720 at half-degree resolution.
	AzimuthNumber uint16

	// AzimuthAngle is the collection azimuth in degrees.
	AzimuthAngle float32

	// CompressionIndicator: 0 uncompressed, 1 bzip2, 2 zlib.
	CompressionIndicator uint8

	// RadialLength is the uncompressed radial length in bytes.
	RadialLength uint16

	// AzimuthResolutionSpacing is the commanded spacing code:
	// 1 = 0.5 degrees, 2 = 1.0 degrees.
	AzimuthResolutionSpacing uint8

	// Status is the radial's position within the scan.
	Status RadialStatus

	// ElevationNumber is the cut index assigned by the VCP. Split cuts
	// reuse elevation numbers, so it alone cannot delimit sweeps.
	ElevationNumber uint8

	// CutSectorNumber is the sector within the cut; 0 only for continuous
	// surveillance cuts.
	CutSectorNumber uint8

	// ElevationAngle is the collection elevation in degrees.
	ElevationAngle float32

	// SpotBlanking: 0 none, 1 radial, 2 elevation, 4 volume.
	SpotBlanking uint8

	// AzimuthIndexingMode: 0 none, 1-100 = indexing angle in hundredths
	// of a degree.
	AzimuthIndexingMode uint8

	// DataBlockCount is the declared number of block pointers.
	DataBlockCount uint16

	// Volume, Elevation and RadialInfo are the constant-data blocks.
	Volume     *VolumeData
	Elevation  *ElevationData
	RadialInfo *RadialData

	// Moment blocks, nil when absent from this radial.
	Reflectivity              *MomentBlock
	Velocity                  *MomentBlock
	SpectrumWidth             *MomentBlock
	DifferentialReflectivity  *MomentBlock
	DifferentialPhase         *MomentBlock
	CorrelationCoefficient    *MomentBlock
	ClutterFilterPower        *MomentBlock
}

// DateTime returns the radial collection time in UTC.
func (m *DigitalRadarData) DateTime() time.Time {
	return archive.JulianDateTime(m.Date, time.Duration(m.Time)*time.Millisecond)
}

// AzimuthSpacingDegrees converts the resolution spacing code to degrees.
func (m *DigitalRadarData) AzimuthSpacingDegrees() float32 {
	return float32(m.AzimuthResolutionSpacing) * 0.5
}

// Moments returns the present moment blocks keyed by their block tag name.
func (m *DigitalRadarData) Moments() map[string]*MomentBlock {
	out := make(map[string]*MomentBlock, 7)
	for tag, block := range map[string]*MomentBlock{
		"REF": m.Reflectivity,
		"VEL": m.Velocity,
		"SW":  m.SpectrumWidth,
		"ZDR": m.DifferentialReflectivity,
		"PHI": m.DifferentialPhase,
		"RHO": m.CorrelationCoefficient,
		"CFP": m.ClutterFilterPower,
	} {
		if block != nil {
			out[tag] = block
		}
	}
	return out
}

// VolumeData is the RVOL constant block: site coordinates and system
// calibration for the volume.
type VolumeData struct {
	VersionMajor float64
	VersionMinor float64
	// Exported as raw major/minor bytes in the wire layout.
	Latitude                    float32
	Longitude                   float32
	SiteHeightMeters            int16
	TowerHeightMeters           uint16
	CalibrationConstant         float32
	HorizontalTxPowerKW         float32
	VerticalTxPowerKW           float32
	SystemZDR                   float32
	SystemPhiDP                 float32
	CoveragePatternNumber       uint16
	ProcessingStatus            uint16
	// ZDRBiasEstimate is present only in the 48-byte layout introduced
	// with RDA Build 19; zero otherwise.
	ZDRBiasEstimate uint16
}

// ElevationData is the RELV constant block.
type ElevationData struct {
	// AtmosphericAttenuation is in dB/km.
	AtmosphericAttenuation float32
	CalibrationConstant    float32
}

// RadialData is the RRAD constant block.
type RadialData struct {
	UnambiguousRangeKM  float32
	HorizontalNoiseDBM  float32
	VerticalNoiseDBM    float32
	NyquistVelocityMS   float32
	Flags               uint16
	HorizontalCalConst  float32
	VerticalCalConst    float32
}

// MomentBlock is one moment's sub-block: gate metadata plus the packed
// raw gate codes. The codes stay in one contiguous buffer; conversion to
// physical values happens in the model layer so that sentinel codes are
// never lost to eager division.
type MomentBlock struct {
	// GateCount is the number of gates in this radial for this moment.
	GateCount uint16

	// FirstGateRange and GateInterval are in thousandths of a kilometer.
	FirstGateRange uint16
	GateInterval   uint16

	// TOver is the overlay threshold in hundredths of a dB.
	TOver uint16

	// SNRThreshold is in hundredths of a dB.
	SNRThreshold int16

	// ControlFlags: 0 none, 1 recombined azimuthal radials, 2 recombined
	// range gates, 3 both.
	ControlFlags uint8

	// WordSize is bits per gate, 8 or 16.
	WordSize uint8

	// Scale and Offset convert raw codes to physical units as
	// (raw - offset) / scale. A scale of zero means codes pass through
	// unscaled.
	Scale  float32
	Offset float32

	// Data holds GateCount gates packed at WordSize bits each,
	// big-endian for 16-bit words.
	Data []byte
}

// RawGate returns the i'th raw gate code, widening 8-bit words.
func (b *MomentBlock) RawGate(i int) uint16 {
	if b.WordSize == 16 {
		return binary.BigEndian.Uint16(b.Data[i*2:])
	}
	return uint16(b.Data[i])
}

// decodeDigitalRadarData decodes a type 31 payload. The payload begins at
// the radial header; block pointers are byte offsets from that same
// origin. A pointer of zero means the block is absent.
func decodeDigitalRadarData(payload []byte) (*DigitalRadarData, error) {
	unit := "message type 31"
	if len(payload) < radialHeaderSize {
		return nil, &archive.TruncatedDataError{Unit: unit, Declared: radialHeaderSize, Available: len(payload)}
	}

	m := &DigitalRadarData{
		RadarID:                  string(payload[0:4]),
		Time:                     binary.BigEndian.Uint32(payload[4:8]),
		Date:                     binary.BigEndian.Uint16(payload[8:10]),
		AzimuthNumber:            binary.BigEndian.Uint16(payload[10:12]),
		AzimuthAngle:             beFloat32(payload[12:16]),
		CompressionIndicator:     payload[16],
		RadialLength:             binary.BigEndian.Uint16(payload[18:20]),
		AzimuthResolutionSpacing: payload[20],
		Status:                   RadialStatus(payload[21]),
		ElevationNumber:          payload[22],
		CutSectorNumber:          payload[23],
		ElevationAngle:           beFloat32(payload[24:28]),
		SpotBlanking:             payload[28],
		AzimuthIndexingMode:      payload[29],
		DataBlockCount:           binary.BigEndian.Uint16(payload[30:32]),
	}

	count := int(m.DataBlockCount)
	if count < 1 || count > 10 {
		return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("data block count %d outside 1..10", count)}
	}
	pointerEnd := radialHeaderSize + count*4
	if len(payload) < pointerEnd {
		return nil, &archive.TruncatedDataError{Unit: unit, Declared: pointerEnd, Available: len(payload)}
	}

	for i := 0; i < count; i++ {
		pointer := int(binary.BigEndian.Uint32(payload[radialHeaderSize+i*4:]))
		if pointer == 0 {
			// Absent block, not an error: pointers are optional per moment.
			continue
		}
		if pointer < pointerEnd || pointer+blockTagSize > len(payload) {
			return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("block pointer %d outside payload", pointer)}
		}
		if err := decodeDataBlock(m, payload, pointer); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func decodeDataBlock(m *DigitalRadarData, payload []byte, pointer int) error {
	unit := "message type 31"
	tag := string(payload[pointer : pointer+blockTagSize])
	body := payload[pointer+blockTagSize:]

	switch tag {
	case "RVOL":
		vol, err := decodeVolumeData(body)
		if err != nil {
			return err
		}
		m.Volume = vol
	case "RELV":
		if len(body) < elevationBlockSize {
			return &archive.FormatError{Unit: unit, Detail: "RELV block overruns payload"}
		}
		m.Elevation = &ElevationData{
			AtmosphericAttenuation: float32(int16(binary.BigEndian.Uint16(body[2:4]))) * 0.001,
			CalibrationConstant:    beFloat32(body[4:8]),
		}
	case "RRAD":
		if len(body) < radialBlockSize {
			return &archive.FormatError{Unit: unit, Detail: "RRAD block overruns payload"}
		}
		m.RadialInfo = &RadialData{
			UnambiguousRangeKM: float32(binary.BigEndian.Uint16(body[2:4])) * 0.1,
			HorizontalNoiseDBM: beFloat32(body[4:8]),
			VerticalNoiseDBM:   beFloat32(body[8:12]),
			NyquistVelocityMS:  float32(binary.BigEndian.Uint16(body[12:14])) * 0.01,
			Flags:              binary.BigEndian.Uint16(body[14:16]),
			HorizontalCalConst: beFloat32(body[16:20]),
			VerticalCalConst:   beFloat32(body[20:24]),
		}
	case "DREF", "DVEL", "DSW ", "DZDR", "DPHI", "DRHO", "DCFP":
		block, err := decodeMomentBlock(body)
		if err != nil {
			return err
		}
		switch tag {
		case "DREF":
			m.Reflectivity = block
		case "DVEL":
			m.Velocity = block
		case "DSW ":
			m.SpectrumWidth = block
		case "DZDR":
			m.DifferentialReflectivity = block
		case "DPHI":
			m.DifferentialPhase = block
		case "DRHO":
			m.CorrelationCoefficient = block
		case "DCFP":
			m.ClutterFilterPower = block
		}
	default:
		// Unrecognized block tags are skipped for forward compatibility
		// with later ICD builds.
	}
	return nil
}

// decodeVolumeData handles both known RVOL layouts: 40 bytes through RDA
// Build 18 and 48 bytes (ZDR bias estimate added) from Build 19 on. The
// declared block size selects the layout; some writers count the 4-byte
// tag in the size and some do not, so both conventions are accepted.
func decodeVolumeData(body []byte) (*VolumeData, error) {
	unit := "message type 31"
	if len(body) < volumeBlockSizeLegacy {
		return nil, &archive.FormatError{Unit: unit, Detail: "RVOL block overruns payload"}
	}
	width := int(binary.BigEndian.Uint16(body[0:2]))
	if width == volumeBlockSizeLegacy+blockTagSize || width == volumeBlockSizeCurrent+blockTagSize {
		width -= blockTagSize
	}
	if width != volumeBlockSizeLegacy && width != volumeBlockSizeCurrent {
		return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("RVOL block size %d matches neither known layout", width)}
	}
	if len(body) < width {
		return nil, &archive.FormatError{Unit: unit, Detail: "RVOL block overruns payload"}
	}

	vol := &VolumeData{
		VersionMajor:          float64(body[2]),
		VersionMinor:          float64(body[3]),
		Latitude:              beFloat32(body[4:8]),
		Longitude:             beFloat32(body[8:12]),
		SiteHeightMeters:      int16(binary.BigEndian.Uint16(body[12:14])),
		TowerHeightMeters:     binary.BigEndian.Uint16(body[14:16]),
		CalibrationConstant:   beFloat32(body[16:20]),
		HorizontalTxPowerKW:   beFloat32(body[20:24]),
		VerticalTxPowerKW:     beFloat32(body[24:28]),
		SystemZDR:             beFloat32(body[28:32]),
		SystemPhiDP:           beFloat32(body[32:36]),
		CoveragePatternNumber: binary.BigEndian.Uint16(body[36:38]),
		ProcessingStatus:      binary.BigEndian.Uint16(body[38:40]),
	}
	if width == volumeBlockSizeCurrent {
		vol.ZDRBiasEstimate = binary.BigEndian.Uint16(body[40:42])
	}
	return vol, nil
}

func decodeMomentBlock(body []byte) (*MomentBlock, error) {
	unit := "message type 31"
	if len(body) < momentBlockHeaderSize {
		return nil, &archive.FormatError{Unit: unit, Detail: "moment block header overruns payload"}
	}
	block := &MomentBlock{
		GateCount:      binary.BigEndian.Uint16(body[4:6]),
		FirstGateRange: binary.BigEndian.Uint16(body[6:8]),
		GateInterval:   binary.BigEndian.Uint16(body[8:10]),
		TOver:          binary.BigEndian.Uint16(body[10:12]),
		SNRThreshold:   int16(binary.BigEndian.Uint16(body[12:14])),
		ControlFlags:   body[14],
		WordSize:       body[15],
		Scale:          beFloat32(body[16:20]),
		Offset:         beFloat32(body[20:24]),
	}
	if block.WordSize != 8 && block.WordSize != 16 {
		return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("moment word size %d is not 8 or 16", block.WordSize)}
	}
	dataSize := int(block.GateCount) * int(block.WordSize) / 8
	if momentBlockHeaderSize+dataSize > len(body) {
		return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("moment data (%d gates) overruns payload", block.GateCount)}
	}
	block.Data = body[momentBlockHeaderSize : momentBlockHeaderSize+dataSize]
	return block, nil
}

func beFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}
