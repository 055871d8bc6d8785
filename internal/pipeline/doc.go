// Package pipeline ties the decoding stages together: volume splitting,
// parallel record decompression and message decoding, ordered reduction
// into the domain model, and the long-running feed loop that turns live
// chunks into published scan summaries.
//
// Records are independent, so decompression and decoding fan out across a
// bounded worker pool. Model assembly is not independent: radial status
// transitions only make sense in stream order, so worker results are
// reduced back into record order before the assembler sees them.
//
// Failures stay local. A bad record or message becomes a Diagnostic and
// its siblings still decode; only an unreadable volume header fails the
// whole decode.
package pipeline
