package xerrors

import "github.com/yanun0323/errors"

// Execution and order errors.
var (
	ErrAdapterFailure  = errors.New("execution: live adapter failure")
	ErrInvalidOrder    = errors.New("execution: order is invalid")
	ErrUnknownHandle   = errors.New("execution: unknown order handle")
)
