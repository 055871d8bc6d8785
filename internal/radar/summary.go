package radar

import "time"

// ScanSummary is the compact, serializable digest of a scan published
// downstream. It carries the shape of the volume, not the gate data.
type ScanSummary struct {
	Site                  string         `json:"site"`
	VolumeStart           time.Time      `json:"volume_start"`
	CoveragePatternNumber uint16         `json:"vcp"`
	Latitude              float32        `json:"latitude"`
	Longitude             float32        `json:"longitude"`
	Complete              bool           `json:"complete"`
	SweepCount            int            `json:"sweep_count"`
	RadialCount           int            `json:"radial_count"`
	Sweeps                []SweepSummary `json:"sweeps"`
}

// SweepSummary digests one sweep.
type SweepSummary struct {
	ElevationNumber uint8    `json:"elevation_number"`
	ElevationAngle  float32  `json:"elevation_angle"`
	RadialCount     int      `json:"radial_count"`
	Moments         []string `json:"moments"`
}

// Summarize builds the scan's downstream digest. complete should reflect
// whether the source volume reached end-of-volume status.
func Summarize(scan *Scan, complete bool) ScanSummary {
	summary := ScanSummary{
		Site:                  scan.Site,
		VolumeStart:           scan.VolumeStart,
		CoveragePatternNumber: scan.CoveragePatternNumber,
		Latitude:              scan.Latitude,
		Longitude:             scan.Longitude,
		Complete:              complete,
		SweepCount:            len(scan.Sweeps),
		RadialCount:           scan.RadialCount(),
	}
	for _, sweep := range scan.Sweeps {
		moments := make([]string, 0, 7)
		for _, id := range sweep.MomentIDs() {
			moments = append(moments, string(id))
		}
		summary.Sweeps = append(summary.Sweeps, SweepSummary{
			ElevationNumber: sweep.ElevationNumber,
			ElevationAngle:  sweep.ElevationAngle(),
			RadialCount:     len(sweep.Radials),
			Moments:         moments,
		})
	}
	return summary
}
