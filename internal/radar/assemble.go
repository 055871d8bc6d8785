package radar

import (
	"errors"
	"sort"

	"github.com/couchcryptid/nexrad-data-etl/internal/message"
)

// ErrNoRadials is returned when assembly finishes without a single
// decoded radial to build a scan from.
var ErrNoRadials = errors.New("no radials decoded")

// Assembler folds decoded messages, in original record/message order,
// into a Scan. It is sequential on purpose: sweep boundaries are radial
// status transitions, which only make sense in stream order, so parallel
// record decoding must reduce back into volume order before feeding it.
type Assembler struct {
	scan Scan

	// passes are status-delimited radial runs; split cuts produce two
	// passes at the same elevation number which merge at Scan time.
	passes  []Sweep
	current *Sweep

	sawRadial bool
	complete  bool
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Add folds one decoded message into the model. Non-radial messages
// update scan metadata; radial messages extend or delimit the current
// pass.
func (a *Assembler) Add(m message.Message) {
	switch {
	case m.DigitalRadarData != nil:
		a.addRadial(m.DigitalRadarData)
	case m.VolumeCoveragePattern != nil:
		a.scan.VCP = m.VolumeCoveragePattern
	case m.RDAStatus != nil:
		a.scan.Status = m.RDAStatus
	case m.ClutterFilterMap != nil:
		a.scan.ClutterMap = m.ClutterFilterMap
	}
}

func (a *Assembler) addRadial(m *message.DigitalRadarData) {
	radial := newRadial(m)

	if !a.sawRadial {
		a.sawRadial = true
		a.scan.Site = m.RadarID
		a.scan.VolumeStart = radial.CollectedAt
	}
	if m.Volume != nil && a.scan.CoveragePatternNumber == 0 {
		a.scan.CoveragePatternNumber = m.Volume.CoveragePatternNumber
		a.scan.Latitude = m.Volume.Latitude
		a.scan.Longitude = m.Volume.Longitude
		a.scan.SiteHeightMeters = m.Volume.SiteHeightMeters
	}

	switch m.Status {
	case message.StatusVolumeStart, message.StatusElevationStart, message.StatusElevationStartFinal:
		a.closePass()
		a.current = &Sweep{ElevationNumber: m.ElevationNumber, Passes: 1}
	default:
		// Elevation number change without a start marker still bounds the
		// pass; a dropped boundary radial should not bleed one cut's
		// radials into the next.
		if a.current != nil && a.current.ElevationNumber != m.ElevationNumber {
			a.closePass()
		}
		if a.current == nil {
			a.current = &Sweep{ElevationNumber: m.ElevationNumber, Passes: 1}
		}
	}

	a.current.Radials = append(a.current.Radials, radial)

	switch m.Status {
	case message.StatusElevationEnd:
		a.closePass()
	case message.StatusVolumeEnd:
		a.closePass()
		a.complete = true
	}
}

func (a *Assembler) closePass() {
	if a.current == nil {
		return
	}
	if len(a.current.Radials) > 0 {
		a.passes = append(a.passes, *a.current)
	}
	a.current = nil
}

// Complete reports whether an end-of-volume radial has been seen.
func (a *Assembler) Complete() bool { return a.complete }

// Scan finalizes the model: passes sharing an elevation number merge into
// one sweep with the union of their moments, and sweeps order by elevation
// number, the position the coverage pattern assigns the cut, not by
// arrival order. A scan is still returned for volumes cut short before
// end-of-volume; only a volume with no radials at all fails.
func (a *Assembler) Scan() (*Scan, error) {
	a.closePass()
	if !a.sawRadial {
		return nil, ErrNoRadials
	}

	var order []uint8
	byElevation := make(map[uint8]Sweep)
	for _, pass := range a.passes {
		if existing, ok := byElevation[pass.ElevationNumber]; ok {
			byElevation[pass.ElevationNumber] = existing.merge(pass)
			continue
		}
		order = append(order, pass.ElevationNumber)
		byElevation[pass.ElevationNumber] = pass
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	scan := a.scan
	scan.Sweeps = make([]Sweep, 0, len(order))
	for _, elevation := range order {
		scan.Sweeps = append(scan.Sweeps, byElevation[elevation])
	}
	return &scan, nil
}
