package archive

import "fmt"

// FormatError reports a structurally invalid field in a volume header,
// record, or message. It is always scoped to the smallest containing unit:
// a bad message field fails that message, not its record or the volume.
type FormatError struct {
	Unit   string // e.g. "volume header", "message type 5"
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Unit, e.Detail)
}

// TruncatedDataError reports a declared length that exceeds the bytes
// actually available. Like FormatError it is scoped to the smallest
// containing unit.
type TruncatedDataError struct {
	Unit      string
	Declared  int
	Available int
}

func (e *TruncatedDataError) Error() string {
	return fmt.Sprintf("%s truncated: declared %d bytes, %d available",
		e.Unit, e.Declared, e.Available)
}
