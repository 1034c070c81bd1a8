// Package protocol implements the binary wire format for applier batches.
//
// A batch is an ordered list of applier operations with a sequence number.
// Batches travel inside frames so that a live host can multiplex them with
// render results and errors over one connection.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Encoding
//
//   - Varint: compact encoding for counts and sequence numbers
//   - ZigZag: operation indices, so that negative indices survive the trip
//     and are rejected by the applier rather than the decoder
//   - Length-prefixed: strings
//
// # Operations
//
//	InsertTopDown   [0x01][Index: svarint][Node]
//	InsertBottomUp  [0x02][Index: svarint][Node]
//	Remove          [0x03][Index: svarint][Count: svarint]
//	Move            [0x04][From: svarint][To: svarint][Count: svarint]
//	Down            [0x05][Child index: svarint]
//	Up              [0x06]
//	Clear           [0x07]
//
// Down names its target by position among the current container's children,
// since node identity does not cross the wire.
//
// A batch payload is [Seq: uvarint][OpCount: varint]{Op}.
//
// # Scripts
//
// ParseScript reads the same operations from YAML, with inserted subtrees
// written as markup. It exists for tooling and tests.
package protocol
