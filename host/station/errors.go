package station

import (
	"errors"
	"strconv"
)

var (
	ErrNotConnected   = errors.New("station not connected")
	ErrTimeout        = errors.New("timed out waiting for firmware")
	ErrUnknownCommand = errors.New("command not in firmware dictionary")
	ErrRemote         = errors.New("firmware reported an error")
	ErrBadDictionary  = errors.New("malformed dictionary")
)

// RemoteError carries the code from an ook_error response
type RemoteError struct {
	Code uint8
}

func (e *RemoteError) Error() string {
	return "firmware error " + strconv.Itoa(int(e.Code)) + ": " + codeText(e.Code)
}

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }
