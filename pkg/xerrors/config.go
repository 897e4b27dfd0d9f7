package xerrors

import "github.com/yanun0323/errors"

// Configuration errors.
var (
	ErrConfigMissing  = errors.New("config: file not found")
	ErrConfigMalformed = errors.New("config: malformed document")
	ErrConfigInvalid  = errors.New("config: value out of range")
)
