// Package synth builds small synthetic Archive II volumes. The decoder's
// tests and the genvolume tool both need well-formed volumes with known
// contents, and real volumes are megabytes of bzip2; these are built to
// the same layouts, radial by radial.
package synth

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/dsnet/compress/bzip2"
)

const (
	frameSize    = 2432
	ctmPadSize   = 12
	headerSize   = 16
	frameContent = frameSize - ctmPadSize - headerSize

	angleScale = 180.0 / 4096.0
)

// epoch day 1 convention: day 1 is 1 January 1970.
func julian(t time.Time) (days uint16, millis uint32) {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days = uint16(midnight.Unix()/86400) + 1
	millis = uint32(t.Sub(midnight) / time.Millisecond)
	return days, millis
}

// Volume accumulates records and renders a complete Archive II buffer.
type Volume struct {
	icao    string
	start   time.Time
	records []record
}

type record struct {
	compress bool
	messages [][]byte
}

// NewVolume starts a volume for the given four-letter site and start time.
func NewVolume(icao string, start time.Time) *Volume {
	return &Volume{icao: icao, start: start}
}

// AddRecord appends one record built from full message frames.
func (v *Volume) AddRecord(compress bool, messages ...[]byte) {
	v.records = append(v.records, record{compress: compress, messages: messages})
}

// Bytes renders the volume: 24-byte header then length-prefixed records.
func (v *Volume) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	days, millis := julian(v.start)

	buf.WriteString("AR2V0006.")
	buf.WriteString("001")
	binary.Write(&buf, binary.BigEndian, uint32(days))
	binary.Write(&buf, binary.BigEndian, millis)
	buf.WriteString(v.icao)

	for _, r := range v.records {
		payload := bytes.Join(r.messages, nil)
		if r.compress {
			compressed, err := compress(payload)
			if err != nil {
				return nil, err
			}
			payload = compressed
		}
		binary.Write(&buf, binary.BigEndian, int32(len(payload)))
		buf.Write(payload)
	}
	return buf.Bytes(), nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
	if err != nil {
		return nil, fmt.Errorf("bzip2 writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("bzip2 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("bzip2 close: %w", err)
	}
	return buf.Bytes(), nil
}

// Moment describes one moment's gate data for a synthetic radial.
type Moment struct {
	// Tag is the block tag: DREF, DVEL, DSW , DZDR, DPHI, DRHO or DCFP.
	Tag string

	// Gates are raw coded values at the given word size.
	Gates    []uint16
	WordSize uint8

	Scale  float32
	Offset float32

	// FirstGateRange and GateInterval in thousandths of a kilometer.
	FirstGateRange uint16
	GateInterval   uint16
}

// Radial describes one synthetic type 31 message.
type Radial struct {
	ICAO            string
	Time            time.Time
	AzimuthNumber   uint16
	Azimuth         float32
	Elevation       float32
	ElevationNumber uint8
	Status          uint8
	Moments         []Moment

	// WithVolumeBlock attaches an RVOL block carrying VCPNumber and the
	// site coordinates; WithRadialBlock attaches an RRAD block.
	WithVolumeBlock bool
	VCPNumber       uint16
	Latitude        float32
	Longitude       float32

	WithRadialBlock bool
	NyquistRaw      uint16
}

// DigitalRadarData renders the radial as a complete variable-length
// message frame (CTM pad, header, payload).
func DigitalRadarData(r Radial) []byte {
	var blocks [][]byte
	if r.WithVolumeBlock {
		blocks = append(blocks, volumeBlock(r))
	}
	if r.WithRadialBlock {
		blocks = append(blocks, radialBlock(r))
	}
	for _, m := range r.Moments {
		blocks = append(blocks, momentBlock(m))
	}

	pointerBase := 32 + 4*len(blocks)
	var payload bytes.Buffer
	payload.WriteString((r.ICAO + "    ")[:4])
	days, millis := julian(r.Time)
	binary.Write(&payload, binary.BigEndian, millis)
	binary.Write(&payload, binary.BigEndian, days)
	binary.Write(&payload, binary.BigEndian, r.AzimuthNumber)
	binary.Write(&payload, binary.BigEndian, math.Float32bits(r.Azimuth))
	payload.WriteByte(0) // uncompressed
	payload.WriteByte(0)
	binary.Write(&payload, binary.BigEndian, uint16(0)) // radial length, filled below
	payload.WriteByte(1)                                // half-degree spacing
	payload.WriteByte(r.Status)
	payload.WriteByte(r.ElevationNumber)
	payload.WriteByte(1)
	binary.Write(&payload, binary.BigEndian, math.Float32bits(r.Elevation))
	payload.WriteByte(0)
	payload.WriteByte(0)
	binary.Write(&payload, binary.BigEndian, uint16(len(blocks)))

	offset := pointerBase
	for _, b := range blocks {
		binary.Write(&payload, binary.BigEndian, uint32(offset))
		offset += len(b)
	}
	for _, b := range blocks {
		payload.Write(b)
	}

	content := payload.Bytes()
	if len(content)%2 != 0 {
		content = append(content, 0)
	}
	binary.BigEndian.PutUint16(content[18:20], uint16(len(content)))

	return frameVariable(31, content, r.Time)
}

func volumeBlock(r Radial) []byte {
	var b bytes.Buffer
	b.WriteString("RVOL")
	binary.Write(&b, binary.BigEndian, uint16(44))
	b.WriteByte(1) // version major
	b.WriteByte(0) // version minor
	binary.Write(&b, binary.BigEndian, math.Float32bits(r.Latitude))
	binary.Write(&b, binary.BigEndian, math.Float32bits(r.Longitude))
	binary.Write(&b, binary.BigEndian, uint16(300)) // site height m
	binary.Write(&b, binary.BigEndian, uint16(25))  // tower height m
	for i := 0; i < 5; i++ {
		binary.Write(&b, binary.BigEndian, math.Float32bits(0))
	}
	binary.Write(&b, binary.BigEndian, r.VCPNumber)
	binary.Write(&b, binary.BigEndian, uint16(0)) // processing status
	return b.Bytes()
}

func radialBlock(r Radial) []byte {
	var b bytes.Buffer
	b.WriteString("RRAD")
	binary.Write(&b, binary.BigEndian, uint16(28))
	binary.Write(&b, binary.BigEndian, uint16(4600)) // unambiguous range, 0.1 km
	binary.Write(&b, binary.BigEndian, math.Float32bits(-75))
	binary.Write(&b, binary.BigEndian, math.Float32bits(-75))
	binary.Write(&b, binary.BigEndian, r.NyquistRaw)
	binary.Write(&b, binary.BigEndian, uint16(0))
	binary.Write(&b, binary.BigEndian, math.Float32bits(0))
	binary.Write(&b, binary.BigEndian, math.Float32bits(0))
	return b.Bytes()
}

func momentBlock(m Moment) []byte {
	var b bytes.Buffer
	b.WriteString(m.Tag)
	binary.Write(&b, binary.BigEndian, uint32(0))
	binary.Write(&b, binary.BigEndian, uint16(len(m.Gates)))
	binary.Write(&b, binary.BigEndian, m.FirstGateRange)
	binary.Write(&b, binary.BigEndian, m.GateInterval)
	binary.Write(&b, binary.BigEndian, uint16(0)) // tover
	binary.Write(&b, binary.BigEndian, int16(16)) // snr threshold
	b.WriteByte(0)
	b.WriteByte(m.WordSize)
	binary.Write(&b, binary.BigEndian, math.Float32bits(m.Scale))
	binary.Write(&b, binary.BigEndian, math.Float32bits(m.Offset))
	for _, g := range m.Gates {
		if m.WordSize == 16 {
			binary.Write(&b, binary.BigEndian, g)
		} else {
			b.WriteByte(byte(g))
		}
	}
	return b.Bytes()
}

// Cut describes one synthetic VCP elevation cut.
type Cut struct {
	Elevation float32
	Waveform  uint8
	SuperRes  uint8
}

// VolumeCoveragePattern renders a type 5 message as a single fixed frame.
// cutWidth selects the 40 or 48 byte cut record layout.
func VolumeCoveragePattern(pattern uint16, cuts []Cut, cutWidth int, at time.Time) []byte {
	var payload bytes.Buffer
	binary.Write(&payload, binary.BigEndian, uint16(0)) // message size, unused by decoders
	binary.Write(&payload, binary.BigEndian, uint16(2)) // constant-elevation pattern
	binary.Write(&payload, binary.BigEndian, pattern)
	binary.Write(&payload, binary.BigEndian, uint16(len(cuts)))
	payload.WriteByte(1) // version
	payload.WriteByte(1) // clutter map group
	payload.WriteByte(2) // doppler resolution
	payload.WriteByte(2) // pulse width
	binary.Write(&payload, binary.BigEndian, uint32(0))
	binary.Write(&payload, binary.BigEndian, uint16(0))
	binary.Write(&payload, binary.BigEndian, uint16(0))
	binary.Write(&payload, binary.BigEndian, uint16(0))

	for _, cut := range cuts {
		raw := uint16(cut.Elevation/angleScale) << 3
		binary.Write(&payload, binary.BigEndian, raw)
		payload.WriteByte(1) // channel configuration
		payload.WriteByte(cut.Waveform)
		payload.WriteByte(cut.SuperRes)
		payload.WriteByte(1)                                 // surveillance PRF number
		binary.Write(&payload, binary.BigEndian, uint16(28)) // pulse count
		binary.Write(&payload, binary.BigEndian, uint16(21<<3))
		for i := 0; i < 6; i++ {
			binary.Write(&payload, binary.BigEndian, int16(16))
		}
		for s := 0; s < 3; s++ {
			binary.Write(&payload, binary.BigEndian, uint16(0))
			binary.Write(&payload, binary.BigEndian, uint16(0))
			binary.Write(&payload, binary.BigEndian, uint16(0))
		}
		if cutWidth == 48 {
			binary.Write(&payload, binary.BigEndian, uint16(0)) // supplemental
			payload.Write(make([]byte, 6))
		}
	}

	return frameFixed(5, payload.Bytes(), at)
}

// RDAStatus renders a minimal type 2 message as a single fixed frame.
func RDAStatus(vcp int16, at time.Time) []byte {
	payload := make([]byte, 80)
	binary.BigEndian.PutUint16(payload[0:2], 16)  // operate
	binary.BigEndian.PutUint16(payload[2:4], 2)   // on-line
	binary.BigEndian.PutUint16(payload[4:6], 4)   // RPG control
	binary.BigEndian.PutUint16(payload[14:16], uint16(vcp))
	binary.BigEndian.PutUint16(payload[18:20], 1930) // build 19.30
	return frameFixed(2, payload, at)
}

// ClutterFilterMap renders a type 15 message, split across fixed frames
// when the map exceeds one. Every azimuth gets a single
// bypass-map-in-control zone out to 511 km.
func ClutterFilterMap(elevations int, at time.Time) [][]byte {
	var content bytes.Buffer
	days, _ := julian(at)
	binary.Write(&content, binary.BigEndian, days)
	binary.Write(&content, binary.BigEndian, uint16(at.UTC().Hour()*60+at.UTC().Minute()))
	binary.Write(&content, binary.BigEndian, uint16(elevations))
	for e := 0; e < elevations; e++ {
		for az := 0; az < 360; az++ {
			binary.Write(&content, binary.BigEndian, uint16(1))
			binary.Write(&content, binary.BigEndian, uint16(1)) // bypass map in control
			binary.Write(&content, binary.BigEndian, uint16(511))
		}
	}
	return frameSegmented(15, content.Bytes(), at)
}

// frameVariable renders a variable-length message frame: CTM pad, header
// with halfword size, content.
func frameVariable(msgType uint8, content []byte, at time.Time) []byte {
	frame := make([]byte, ctmPadSize+headerSize+len(content))
	writeHeader(frame[ctmPadSize:], msgType, uint16((headerSize+len(content))/2), 1, 1, 1, at)
	copy(frame[ctmPadSize+headerSize:], content)
	return frame
}

// frameFixed renders one fixed 2432-byte frame holding the whole content.
func frameFixed(msgType uint8, content []byte, at time.Time) []byte {
	frame := make([]byte, frameSize)
	writeHeader(frame[ctmPadSize:], msgType, uint16((headerSize+len(content))/2), 1, 1, 1, at)
	copy(frame[ctmPadSize+headerSize:], content)
	return frame
}

// frameSegmented splits content across as many fixed frames as it needs.
func frameSegmented(msgType uint8, content []byte, at time.Time) [][]byte {
	count := (len(content) + frameContent - 1) / frameContent
	frames := make([][]byte, 0, count)
	for n := 1; n <= count; n++ {
		part := content
		if len(part) > frameContent {
			part = part[:frameContent]
		}
		content = content[len(part):]

		frame := make([]byte, frameSize)
		writeHeader(frame[ctmPadSize:], msgType, uint16((headerSize+len(part))/2), 7, uint16(count), uint16(n), at)
		copy(frame[ctmPadSize+headerSize:], part)
		frames = append(frames, frame)
	}
	return frames
}

func writeHeader(b []byte, msgType uint8, size uint16, seq, segCount, segNum uint16, at time.Time) {
	days, millis := julian(at)
	binary.BigEndian.PutUint16(b[0:2], size)
	b[2] = 0
	b[3] = msgType
	binary.BigEndian.PutUint16(b[4:6], seq)
	binary.BigEndian.PutUint16(b[6:8], days)
	binary.BigEndian.PutUint32(b[8:12], millis)
	binary.BigEndian.PutUint16(b[12:14], segCount)
	binary.BigEndian.PutUint16(b[14:16], segNum)
}
