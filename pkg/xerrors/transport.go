package xerrors

import "github.com/yanun0323/errors"

// Transport and framing errors.
var (
	ErrTransportInit   = errors.New("transport: initialization timed out")
	ErrNotConnected    = errors.New("transport: not connected")
	ErrBackPressured   = errors.New("transport: back pressured")
	ErrInvalidFrame    = errors.New("transport: frame shorter than declared size")
	ErrAlreadyStarted  = errors.New("transport: worker already started")
	ErrNotStarted      = errors.New("transport: worker not started")
)
