// Package message demultiplexes a decompressed LDM record into framed
// messages and decodes the recognized types into structured form.
//
// # Framing
//
// Every message frame starts with a 12-byte legacy CTM pad followed by a
// 16-byte message header. Three framing modes exist:
//
//   - Digital Radar Data (type 31) is variable-length; the header's size
//     field holds the message size in halfwords including the header.
//   - A size field of 0xFFFF marks a variable-length message whose byte
//     size is carried in the segment count/number fields as a 32-bit value.
//   - Everything else occupies fixed 2432-byte frames. Messages larger than
//     one frame are split into segments, one frame each, which the
//     demultiplexer reassembles by (type, sequence) identity.
//
// Unknown message types are skipped using the same framing rules and are
// never an error: future ICD builds add types, and a decoder that chokes
// on them would brick itself on every new deployment. For the same reason
// the typed decoders ignore trailing payload bytes they do not recognize.
//
// All multi-byte integers are big-endian per the ICD.
package message
