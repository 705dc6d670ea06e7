package shared

import "errors"

var (
	// ErrInvalidDifficulty is returned for a difficulty outside of [0, MaxDifficulty].
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrInvalidArgument is returned for byte buffers of the wrong length.
	ErrInvalidArgument = errors.New("invalid argument")
)
