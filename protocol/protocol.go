// Package protocol implements the framed serial link between the host tool
// and the radio firmware. Frames carry VLQ-encoded commands in the style of
// the Klipper MCU protocol.
package protocol

// Version is reported by the firmware in its dictionary
const Version = "0.1.0"

// Frame layout:
//
//	+--------+--------+-----------------+---------+------+
//	| len    | seq    | payload         | crc16   | sync |
//	+--------+--------+-----------------+---------+------+
//	| 1 byte | 1 byte | 0-59 bytes      | 2 bytes | 0x7E |
//	+--------+--------+-----------------+---------+------+
//
// len counts the whole frame. crc16 covers len, seq and payload, big endian.
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameMin         = FrameHeaderSize + FrameTrailerSize
	FrameMax         = 64
	PayloadMax       = FrameMax - FrameMin

	posLen = 0
	posSeq = 1

	SyncByte = 0x7E

	// SeqDest is the fixed high nibble of every sequence byte
	SeqDest = 0x10
	SeqMask = 0x0F

	// ScratchSize bounds a batch of frames built in one pass
	ScratchSize = 512
)

// NextSeq advances a sequence byte, wrapping within 0x10-0x1F
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | SeqDest
}
