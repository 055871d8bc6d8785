package message

// Message is one demultiplexed message with its decoded content. Exactly
// one content pointer is non-nil for recognized types; all are nil for
// types this decoder deliberately skips.
type Message struct {
	Header Header

	DigitalRadarData      *DigitalRadarData
	VolumeCoveragePattern *VolumeCoveragePattern
	RDAStatus             *RDAStatus
	ClutterFilterMap      *ClutterFilterMap
}

// Decoded reports whether the message carried a recognized, decoded type.
func (m Message) Decoded() bool {
	return m.DigitalRadarData != nil || m.VolumeCoveragePattern != nil ||
		m.RDAStatus != nil || m.ClutterFilterMap != nil
}

// Decode decodes one demultiplexed frame. Unrecognized types return a
// header-only Message and no error.
func Decode(frame Frame) (Message, error) {
	m := Message{Header: frame.Header}

	var err error
	switch frame.Header.Type {
	case TypeDigitalRadarData:
		m.DigitalRadarData, err = decodeDigitalRadarData(frame.Payload)
	case TypeVolumeCoveragePattern:
		m.VolumeCoveragePattern, err = decodeVolumeCoveragePattern(frame.Payload)
	case TypeRDAStatus:
		m.RDAStatus, err = decodeRDAStatus(frame.Payload)
	case TypeClutterFilterMap:
		m.ClutterFilterMap, err = decodeClutterFilterMap(frame.Payload)
	}
	if err != nil {
		return Message{Header: frame.Header}, err
	}
	return m, nil
}

// DecodeAll demultiplexes and decodes one decompressed record. Messages
// that fail to decode become faults; their siblings are unaffected.
func DecodeAll(record []byte) ([]Message, []Fault) {
	frames, faults := Demux(record)

	messages := make([]Message, 0, len(frames))
	for _, frame := range frames {
		m, err := Decode(frame)
		if err != nil {
			faults = append(faults, Fault{Message: frame.Index, Err: err})
			continue
		}
		messages = append(messages, m)
	}
	return messages, faults
}
