// Package radar is the decoded domain model: a Scan of elevation Sweeps,
// each a rotation's worth of azimuthal Radials carrying per-moment gate
// data in physical units.
//
// The model is assembled from decoded digital radar data messages in their
// original record/message order. Sweep boundaries come from radial status
// transitions rather than elevation numbers alone: super-resolution
// volumes run split cuts, two passes at the same elevation number (one
// surveillance, one Doppler), and the assembler merges those passes into
// one sweep whose radials carry the union of both passes' moments.
//
// Gate values stay tri-state. The coded values 0 and 1 are reserved as
// below-threshold and range-folded sentinels, so a gate is a marker or a
// physical value, never a physical value that happens to collide with a
// sentinel.
//
// Everything here is immutable once assembled; decoding the same buffer
// twice yields identical output.
package radar
