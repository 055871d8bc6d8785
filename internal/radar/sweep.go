package radar

import "sort"

// Sweep is one elevation cut's rotation: radials ordered by azimuth
// number. A sweep built from a split cut carries the merged moments of
// both passes.
type Sweep struct {
	// ElevationNumber is the VCP cut index shared by the sweep's radials.
	ElevationNumber uint8

	// Passes counts the status-delimited radial runs merged into this
	// sweep: 1 for a plain cut, 2 for a merged split cut.
	Passes int

	Radials []Radial
}

// ElevationAngle returns the mean collection elevation across radials, in
// degrees.
func (s Sweep) ElevationAngle() float32 {
	if len(s.Radials) == 0 {
		return 0
	}
	var sum float64
	for _, r := range s.Radials {
		sum += float64(r.ElevationAngle)
	}
	return float32(sum / float64(len(s.Radials)))
}

// MomentIDs returns the union of moments across the sweep's radials in
// stable presentation order.
func (s Sweep) MomentIDs() []MomentID {
	present := make(map[MomentID]bool)
	for _, r := range s.Radials {
		for _, id := range r.MomentIDs() {
			present[id] = true
		}
	}
	var ids []MomentID
	for _, id := range momentOrder {
		if present[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// merge combines a later pass at the same elevation number into this
// sweep. Radials sharing an azimuth number are merged moment-wise;
// azimuths only the other pass covered are appended. The result is
// re-sorted by azimuth number.
func (s Sweep) merge(other Sweep) Sweep {
	byAzimuth := make(map[uint16]int, len(s.Radials))
	merged := make([]Radial, len(s.Radials))
	copy(merged, s.Radials)
	for i, r := range merged {
		byAzimuth[r.AzimuthNumber] = i
	}

	for _, r := range other.Radials {
		if i, ok := byAzimuth[r.AzimuthNumber]; ok {
			merged[i] = merged[i].absorb(r)
			continue
		}
		byAzimuth[r.AzimuthNumber] = len(merged)
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].AzimuthNumber < merged[j].AzimuthNumber
	})
	return Sweep{ElevationNumber: s.ElevationNumber, Passes: s.Passes + other.Passes, Radials: merged}
}
