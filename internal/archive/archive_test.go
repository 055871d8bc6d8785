package archive

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// volumeHeader builds a valid 24-byte header for KDMX on 26 April 2024.
func volumeHeader(t *testing.T) []byte {
	t.Helper()
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, "AR2V0006."...)
	buf = append(buf, "001"...)
	days := uint32(time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC).Unix()/86400) + 1
	buf = binary.BigEndian.AppendUint32(buf, days)
	buf = binary.BigEndian.AppendUint32(buf, 43_200_000) // noon
	buf = append(buf, "KDMX"...)
	return buf
}

func TestParseHeader(t *testing.T) {
	t.Run("valid header", func(t *testing.T) {
		header, err := ParseHeader(volumeHeader(t))
		require.NoError(t, err)

		assert.Equal(t, "AR2V0006.", header.TapeFilename)
		assert.Equal(t, "06", header.Version())
		assert.Equal(t, "001", header.ExtensionNumber)
		assert.Equal(t, "KDMX", header.ICAO)
		assert.Equal(t, time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC), header.DateTime())
	})

	t.Run("truncated buffer", func(t *testing.T) {
		_, err := ParseHeader(volumeHeader(t)[:10])

		var truncated *TruncatedDataError
		require.ErrorAs(t, err, &truncated)
		assert.Equal(t, HeaderSize, truncated.Declared)
		assert.Equal(t, 10, truncated.Available)
	})

	t.Run("bad magic", func(t *testing.T) {
		buf := volumeHeader(t)
		copy(buf, "NOPE")

		_, err := ParseHeader(buf)

		var format *FormatError
		require.ErrorAs(t, err, &format)
		assert.Equal(t, "volume header", format.Unit)
	})
}

func TestJulianDateTime(t *testing.T) {
	t.Run("day one is the epoch", func(t *testing.T) {
		assert.Equal(t, time.Unix(0, 0).UTC(), JulianDateTime(1, 0))
	})

	t.Run("offset past midnight", func(t *testing.T) {
		got := JulianDateTime(19840, 13*time.Hour+30*time.Minute)
		assert.Equal(t, time.Date(2024, 4, 26, 13, 30, 0, 0, time.UTC), got)
	})

	t.Run("zero date is unset", func(t *testing.T) {
		assert.True(t, JulianDateTime(0, time.Hour).IsZero())
	})
}

// framed prefixes a payload with its signed record length.
func framed(payload []byte) []byte {
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(payload)))
	return append(buf, payload...)
}

func TestSplitRecords(t *testing.T) {
	t.Run("records in order with offsets", func(t *testing.T) {
		buf := append(framed([]byte("first record")), framed([]byte("second"))...)

		records, err := SplitRecords(buf)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, []byte("first record"), records[0].Payload())
		assert.Equal(t, 4, records[0].Offset)
		assert.Equal(t, []byte("second"), records[1].Payload())
		assert.Equal(t, 4+12+4, records[1].Offset)
	})

	t.Run("control records are skipped", func(t *testing.T) {
		control := binary.BigEndian.AppendUint32(nil, uint32(0xFFFFFFFC)) // -4
		control = append(control, []byte("ctrl")...)
		buf := append(control, framed([]byte("data"))...)

		records, err := SplitRecords(buf)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, []byte("data"), records[0].Payload())
	})

	t.Run("truncated tail keeps prior records", func(t *testing.T) {
		buf := append(framed([]byte("whole")), framed([]byte("cut short"))...)
		buf = buf[:len(buf)-4]

		records, err := SplitRecords(buf)

		var truncated *TruncatedDataError
		require.ErrorAs(t, err, &truncated)
		require.Len(t, records, 1)
		assert.Equal(t, []byte("whole"), records[0].Payload())
		assert.Equal(t, 9, truncated.Declared)
		assert.Equal(t, 5, truncated.Available)
	})

	t.Run("empty buffer", func(t *testing.T) {
		records, err := SplitRecords(nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestSplitVolume(t *testing.T) {
	buf := append(volumeHeader(t), framed([]byte("payload"))...)

	header, records, err := SplitVolume(buf)
	require.NoError(t, err)

	assert.Equal(t, "KDMX", header.ICAO)
	require.Len(t, records, 1)
	assert.Equal(t, HeaderSize+4, records[0].Offset)

	t.Run("header failure is fatal", func(t *testing.T) {
		_, records, err := SplitVolume([]byte("too short"))
		require.Error(t, err)
		assert.Nil(t, records)
	})
}

func TestHasVolumeHeader(t *testing.T) {
	assert.True(t, HasVolumeHeader(volumeHeader(t)))
	assert.False(t, HasVolumeHeader([]byte("BZh91AY")))
	assert.False(t, HasVolumeHeader(nil))
}

func TestRecordDecompress(t *testing.T) {
	t.Run("uncompressed passthrough", func(t *testing.T) {
		record := NewRecord([]byte("plain bytes"))

		assert.False(t, record.Compressed())
		data, err := record.Decompress()
		require.NoError(t, err)
		assert.Equal(t, []byte("plain bytes"), data)
	})

	t.Run("bzip2 round trip", func(t *testing.T) {
		original := bytes.Repeat([]byte("radial data "), 100)

		var compressed bytes.Buffer
		w, err := bzip2.NewWriter(&compressed, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		require.NoError(t, err)
		_, err = w.Write(original)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		record := NewRecord(compressed.Bytes())
		assert.True(t, record.Compressed())

		data, err := record.Decompress()
		require.NoError(t, err)
		assert.Equal(t, original, data)
	})

	t.Run("corrupt stream fails only this record", func(t *testing.T) {
		record := NewRecord([]byte("BZh9 corrupt stream"))

		_, err := record.Decompress()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bzip2")
	})
}
