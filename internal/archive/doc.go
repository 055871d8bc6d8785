// Package archive parses the outer framing of NEXRAD WSR-88D Archive II
// volume files.
//
// # File layout
//
// An Archive II file begins with a 24-byte volume header:
//
//	bytes  0-8   tape filename, "AR2V00xx." where xx is the format version
//	bytes  9-11  extension number, "001"-"999", rolling
//	bytes 12-15  volume date, big-endian days since 1 Jan 1970 (day 1 = epoch)
//	bytes 16-19  milliseconds past midnight GMT, big-endian
//	bytes 20-23  ICAO site identifier, e.g. "KDMX"
//
// The header is followed by a sequence of LDM records, each framed by a
// signed big-endian 32-bit length prefix. A zero or negative prefix marks a
// control record whose |length| bytes are skipped. Record payloads are
// usually bzip2 streams; real-time chunk files may carry uncompressed
// payloads after the first chunk of a volume.
//
// Records are independent: one record failing to split or decompress never
// invalidates its siblings. That independence is what allows the decode
// pipeline to fan records out across workers.
//
// Known format versions:
//
//	02 = Super Resolution disabled at the RDA (pre RDA Build 12.0)
//	03 = Super Resolution (pre RDA Build 12.0)
//	04 = Recombined Super Resolution
//	05 = Super Resolution disabled at the RDA (RDA Build 12.0 and later)
//	06 = Super Resolution (RDA Build 12.0 and later)
//	07 = Recombined Super Resolution (RDA Build 12.0 and later)
package archive
