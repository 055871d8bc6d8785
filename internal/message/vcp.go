package message

import (
	"encoding/binary"
	"fmt"

	"github.com/couchcryptid/nexrad-data-etl/internal/archive"
)

const (
	vcpHeaderSize = 22

	// Known elevation cut record widths: 40 bytes through RDA Build 18,
	// 48 bytes once the supplemental data fields were added.
	cutRecordSizeLegacy  = 40
	cutRecordSizeCurrent = 48

	// Angles are coded in the high 13 bits at 180/4096 degrees per bit;
	// angular velocity uses 22.5/2048 degrees per second per bit.
	angleScale           = 180.0 / 4096.0
	angularVelocityScale = 22.5 / 2048.0
)

// VolumeCoveragePattern is a decoded type 5 message: the scan strategy the
// RDA is executing, one ElevationCut per cut in execution order.
type VolumeCoveragePattern struct {
	// PatternType is 2 for constant elevation cut patterns.
	PatternType uint16

	// PatternNumber identifies the VCP (12, 31, 35, 212, ...).
	PatternNumber uint16

	Version                   uint8
	ClutterMapGroupNumber     uint8
	DopplerVelocityResolution uint8
	PulseWidth                uint8

	VCPSequencing       uint16
	VCPSupplementalData uint16

	// ElevationCuts are in execution order; split cuts appear as separate
	// entries sharing an elevation angle.
	ElevationCuts []ElevationCut
}

// ElevationCut describes one cut of the pattern: its angle, waveform and
// per-moment thresholds, plus the PRF sectors for Doppler waveforms.
type ElevationCut struct {
	// ElevationAngle is in degrees.
	ElevationAngle float32

	ChannelConfiguration uint8

	// WaveformType: 1 CS, 2 CD/W, 3 CD/WO, 4 batch, 5 staggered pulse pair.
	WaveformType uint8

	SuperResolutionControl uint8

	SurveillancePRFNumber     uint8
	SurveillancePRFPulseCount uint16

	// AzimuthRate is in degrees per second.
	AzimuthRate float32

	// SNR thresholds per moment, in eighths of a dB as coded.
	ReflectivityThreshold            int16
	VelocityThreshold                int16
	SpectrumWidthThreshold           int16
	DifferentialReflectivityThreshold int16
	DifferentialPhaseThreshold       int16
	CorrelationCoefficientThreshold  int16

	// Doppler PRF sectors; unused sectors are zeroed by the RDA.
	Sectors [3]PRFSector

	// SupplementalData is present only in the 48-byte cut layout; zero
	// otherwise.
	SupplementalData uint16
}

// PRFSector is one azimuth sector's Doppler PRF assignment.
type PRFSector struct {
	// EdgeAngle is the sector's clockwise edge in degrees.
	EdgeAngle float32

	PRFNumber  uint16
	PulseCount uint16
}

// SuperResolution reports whether the cut collects half-degree radials.
func (c ElevationCut) SuperResolution() bool {
	return c.SuperResolutionControl&0x1 != 0
}

// decodeAngle converts a 13-bit coded angle to degrees.
func decodeAngle(raw uint16) float32 {
	return float32(raw>>3) * angleScale
}

// decodeVolumeCoveragePattern decodes a type 5 payload. The cut record
// width is derived from the declared message size and cut count rather
// than assumed, so both known layouts decode with the same walk.
func decodeVolumeCoveragePattern(payload []byte) (*VolumeCoveragePattern, error) {
	unit := "message type 5"
	if len(payload) < vcpHeaderSize {
		return nil, &archive.TruncatedDataError{Unit: unit, Declared: vcpHeaderSize, Available: len(payload)}
	}

	vcp := &VolumeCoveragePattern{
		PatternType:               binary.BigEndian.Uint16(payload[2:4]),
		PatternNumber:             binary.BigEndian.Uint16(payload[4:6]),
		Version:                   payload[8],
		ClutterMapGroupNumber:     payload[9],
		DopplerVelocityResolution: payload[10],
		PulseWidth:                payload[11],
		VCPSequencing:             binary.BigEndian.Uint16(payload[16:18]),
		VCPSupplementalData:       binary.BigEndian.Uint16(payload[18:20]),
	}

	cutCount := int(binary.BigEndian.Uint16(payload[6:8]))
	if cutCount < 1 || cutCount > 32 {
		return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("elevation cut count %d outside 1..32", cutCount)}
	}

	available := len(payload) - vcpHeaderSize
	if available < cutCount {
		return nil, &archive.TruncatedDataError{Unit: unit, Declared: vcpHeaderSize + cutCount*cutRecordSizeLegacy, Available: len(payload)}
	}
	stride := available / cutCount
	if stride != cutRecordSizeLegacy && stride != cutRecordSizeCurrent {
		return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("elevation cut record size %d matches neither known layout", stride)}
	}
	if stride*cutCount != available {
		return nil, &archive.FormatError{Unit: unit, Detail: fmt.Sprintf("%d elevation cut records leave %d payload bytes unaccounted", cutCount, available-stride*cutCount)}
	}

	vcp.ElevationCuts = make([]ElevationCut, cutCount)
	for i := 0; i < cutCount; i++ {
		b := payload[vcpHeaderSize+i*stride:]
		cut := ElevationCut{
			ElevationAngle:            decodeAngle(binary.BigEndian.Uint16(b[0:2])),
			ChannelConfiguration:      b[2],
			WaveformType:              b[3],
			SuperResolutionControl:    b[4],
			SurveillancePRFNumber:     b[5],
			SurveillancePRFPulseCount: binary.BigEndian.Uint16(b[6:8]),
			AzimuthRate:               float32(binary.BigEndian.Uint16(b[8:10])>>3) * angularVelocityScale,

			ReflectivityThreshold:             int16(binary.BigEndian.Uint16(b[10:12])),
			VelocityThreshold:                 int16(binary.BigEndian.Uint16(b[12:14])),
			SpectrumWidthThreshold:            int16(binary.BigEndian.Uint16(b[14:16])),
			DifferentialReflectivityThreshold: int16(binary.BigEndian.Uint16(b[16:18])),
			DifferentialPhaseThreshold:        int16(binary.BigEndian.Uint16(b[18:20])),
			CorrelationCoefficientThreshold:   int16(binary.BigEndian.Uint16(b[20:22])),
		}
		for s := 0; s < 3; s++ {
			o := 22 + s*6
			cut.Sectors[s] = PRFSector{
				EdgeAngle:  decodeAngle(binary.BigEndian.Uint16(b[o : o+2])),
				PRFNumber:  binary.BigEndian.Uint16(b[o+2 : o+4]),
				PulseCount: binary.BigEndian.Uint16(b[o+4 : o+6]),
			}
		}
		if stride == cutRecordSizeCurrent {
			cut.SupplementalData = binary.BigEndian.Uint16(b[40:42])
		}
		vcp.ElevationCuts[i] = cut
	}

	return vcp, nil
}
