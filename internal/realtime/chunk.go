package realtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxVolumes is the highest rotating volume directory index.
const maxVolumes = 999

// ChunkType marks a chunk's position within its volume.
type ChunkType byte

const (
	ChunkStart        ChunkType = 'S'
	ChunkIntermediate ChunkType = 'I'
	ChunkEnd          ChunkType = 'E'
)

// ChunkID identifies one chunk object in the live bucket.
type ChunkID struct {
	// Site is the four-letter ICAO identifier.
	Site string

	// Volume is the rotating volume directory index, 1..999.
	Volume int

	// Name is the object name within the volume directory.
	Name string

	// Start is the volume start time parsed from the name.
	Start time.Time

	// Sequence is the chunk's 1-based position within the volume.
	Sequence int

	Type ChunkType
}

// Key returns the chunk's full object key.
func (c ChunkID) Key() string {
	return fmt.Sprintf("%s/%03d/%s", c.Site, c.Volume, c.Name)
}

// ParseChunkKey parses a live-bucket object key of the form
// SITE/VVV/YYYYMMDD-HHMMSS-SSS-T.
func ParseChunkKey(key string) (ChunkID, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		return ChunkID{}, fmt.Errorf("chunk key %q: want SITE/VOLUME/NAME", key)
	}

	volume, err := strconv.Atoi(parts[1])
	if err != nil || volume < 1 || volume > maxVolumes {
		return ChunkID{}, fmt.Errorf("chunk key %q: bad volume directory %q", key, parts[1])
	}

	name := parts[2]
	fields := strings.Split(name, "-")
	if len(fields) != 4 {
		return ChunkID{}, fmt.Errorf("chunk key %q: want YYYYMMDD-HHMMSS-SSS-T name", key)
	}

	start, err := time.Parse("20060102-150405", fields[0]+"-"+fields[1])
	if err != nil {
		return ChunkID{}, fmt.Errorf("chunk key %q: bad timestamp: %w", key, err)
	}

	sequence, err := strconv.Atoi(fields[2])
	if err != nil || sequence < 1 {
		return ChunkID{}, fmt.Errorf("chunk key %q: bad sequence %q", key, fields[2])
	}

	var typ ChunkType
	switch fields[3] {
	case "S":
		typ = ChunkStart
	case "I":
		typ = ChunkIntermediate
	case "E":
		typ = ChunkEnd
	default:
		return ChunkID{}, fmt.Errorf("chunk key %q: bad chunk type %q", key, fields[3])
	}

	return ChunkID{
		Site:     parts[0],
		Volume:   volume,
		Name:     name,
		Start:    start,
		Sequence: sequence,
		Type:     typ,
	}, nil
}

// VolumePrefix returns the listing prefix for one site's volume directory.
func VolumePrefix(site string, volume int) string {
	return fmt.Sprintf("%s/%03d/", site, volume)
}

// NextVolume returns the volume directory after v in rotation order.
func NextVolume(v int) int {
	if v >= maxVolumes {
		return 1
	}
	return v + 1
}
