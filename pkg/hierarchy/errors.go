package hierarchy

import "errors"

// Contract violations. These abort the call; they never leave the index
// partially mutated.
var (
	ErrInvalidRange = errors.New("index out of range")
	ErrNullArgument = errors.New("argument cannot be null")
	ErrDisposed     = errors.New("widget is disposed")
)
