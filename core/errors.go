package core

import "errors"

var (
	ErrBadPeriod          = errors.New("bit period must be positive")
	ErrBadLength          = errors.New("message length must be positive")
	ErrBadDutyRatio       = errors.New("duty ratio must be within (0, 1)")
	ErrBadTolerance       = errors.New("tolerance must be within (0, 0.2)")
	ErrOverlappingWindows = errors.New("one and zero tolerance windows overlap")
	ErrBadDeadline        = errors.New("bounded-window profile needs a deadline")
	ErrBadTrainer         = errors.New("trainer needs a half period and repeat count")
	ErrUnknownSync        = errors.New("unknown synchronization strategy")
	ErrUnknownProfile     = errors.New("unknown profile")

	ErrMessageLength   = errors.New("bit count does not match profile message length")
	ErrUntransmittable = errors.New("message contains invalid symbols")
	ErrBadBitString    = errors.New("bit string may only contain 0 and 1")

	ErrUnknownCommand = errors.New("unknown command")
	ErrNotConfigured  = errors.New("radio not configured")
)
