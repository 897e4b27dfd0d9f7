package xerrors

import "github.com/yanun0323/errors"

// DC detector errors.
var (
	ErrInvalidTheta = errors.New("detector: theta must be > 0")
	ErrInvalidPrice = errors.New("detector: price must be finite")
)
