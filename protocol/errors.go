package protocol

import "errors"

var (
	ErrShortBuffer     = errors.New("buffer too short for VLQ value")
	ErrPayloadTooLarge = errors.New("payload does not fit in one frame")
	ErrTimeout         = errors.New("link timeout")
	ErrClosed          = errors.New("transport closed")
	ErrSequence        = errors.New("acknowledged sequence mismatch")
)
