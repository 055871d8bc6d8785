package radar

import (
	"fmt"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/message"
)

// Scan is one volume scan: the sweeps collected under a single volume
// coverage pattern, plus the site and status metadata decoded alongside
// them.
type Scan struct {
	// Site is the four-letter ICAO identifier from the radial headers.
	Site string

	// CoveragePatternNumber comes from the RVOL block; VCP, when present,
	// is the full decoded pattern definition.
	CoveragePatternNumber uint16
	VCP                   *message.VolumeCoveragePattern

	// VolumeStart is the first radial's collection time, UTC.
	VolumeStart time.Time

	// Site coordinates from the RVOL block; zero when no radial carried
	// one.
	Latitude         float32
	Longitude        float32
	SiteHeightMeters int16

	// Status and ClutterMap are the most recent such messages seen while
	// assembling, nil if the volume carried none.
	Status     *message.RDAStatus
	ClutterMap *message.ClutterFilterMap

	Sweeps []Sweep
}

// RadialCount returns the total radial count across sweeps.
func (s *Scan) RadialCount() int {
	n := 0
	for _, sweep := range s.Sweeps {
		n += len(sweep.Radials)
	}
	return n
}

// ValidateAgainstVCP checks that the assembled sweeps' elevation numbers
// match the coverage pattern's cut list in order, with consecutive VCP
// cuts at one elevation number collapsing into a single merged sweep. A
// scan without a decoded VCP validates trivially.
func (s *Scan) ValidateAgainstVCP() error {
	if s.VCP == nil {
		return nil
	}
	expected := len(s.VCP.ElevationCuts)
	if len(s.Sweeps) == 0 {
		return fmt.Errorf("scan has no sweeps against a %d-cut pattern", expected)
	}
	passes := 0
	for _, sweep := range s.Sweeps {
		passes += sweep.Passes
	}
	if passes > expected {
		return fmt.Errorf("scan covers %d pattern cuts but pattern %d defines %d", passes, s.VCP.PatternNumber, expected)
	}
	for i := 1; i < len(s.Sweeps); i++ {
		if s.Sweeps[i].ElevationNumber <= s.Sweeps[i-1].ElevationNumber {
			return fmt.Errorf("sweep elevation numbers not strictly increasing at index %d", i)
		}
	}
	return nil
}
