package protocol

// ScanResult classifies the bytes at the head of an input buffer
type ScanResult uint8

const (
	// ScanNeedMore means a frame has started but is incomplete
	ScanNeedMore ScanResult = iota
	// ScanFrame means a valid frame was found
	ScanFrame
	// ScanSkip means bytes must be discarded to regain sync
	ScanSkip
)

// Frame is a decoded link frame. Payload aliases the scanned buffer.
type Frame struct {
	Seq     uint8
	Payload []byte
}

// IsAck reports whether the frame carries no payload. Empty frames are
// acknowledgements on this link.
func (f Frame) IsAck() bool { return len(f.Payload) == 0 }

// Scan inspects data and returns the classification plus the number of
// bytes the caller should pop. On ScanSkip the count advances past the next
// sync byte, or over everything when there is none.
func Scan(data []byte) (Frame, ScanResult, int) {
	if len(data) < FrameMin {
		return Frame{}, ScanNeedMore, 0
	}
	n := int(data[posLen])
	if n < FrameMin || n > FrameMax || data[posSeq]&^SeqMask != SeqDest {
		return Frame{}, ScanSkip, skipToSync(data)
	}
	if len(data) < n {
		return Frame{}, ScanNeedMore, 0
	}
	if data[n-1] != SyncByte {
		return Frame{}, ScanSkip, skipToSync(data)
	}
	crc := uint16(data[n-3])<<8 | uint16(data[n-2])
	if CRC16(data[:n-FrameTrailerSize]) != crc {
		return Frame{}, ScanSkip, skipToSync(data)
	}
	return Frame{
		Seq:     data[posSeq],
		Payload: data[FrameHeaderSize : n-FrameTrailerSize],
	}, ScanFrame, n
}

func skipToSync(data []byte) int {
	for i, b := range data {
		if b == SyncByte {
			return i + 1
		}
	}
	return len(data)
}

// EncodeFrame wraps payload in a frame and writes it to out
func EncodeFrame(out OutputBuffer, seq uint8, payload []byte) error {
	if len(payload) > PayloadMax {
		return ErrPayloadTooLarge
	}
	var buf [FrameMax]byte
	n := len(payload) + FrameMin
	buf[posLen] = byte(n)
	buf[posSeq] = seq
	copy(buf[FrameHeaderSize:], payload)
	crc := CRC16(buf[:n-FrameTrailerSize])
	buf[n-3] = byte(crc >> 8)
	buf[n-2] = byte(crc)
	buf[n-1] = SyncByte
	out.Output(buf[:n])
	return nil
}
