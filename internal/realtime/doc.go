// Package realtime follows the live chunk bucket for one radar site.
//
// The RDA uploads each volume as ~55 chunks to a rotating series of
// volume directories (001-999), named
//
//	SITE/VVV/YYYYMMDD-HHMMSS-SSS-T
//
// where VVV is the volume directory, the timestamp is the volume start,
// SSS is the chunk's sequence within the volume, and T marks its position
// (S start, I intermediate, E end). The Poller discovers the most recent
// volume, then streams chunks in order as they appear, pacing its listing
// requests with a per-chunk-type moving average of observed upload
// intervals so it neither hammers the bucket nor lags the radar.
package realtime
