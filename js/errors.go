package js

import "errors"

var (
	// ErrAlreadySettled is reported when a native completion arrives for a
	// callback whose promise has already been resolved or rejected.
	ErrAlreadySettled = errors.New("callback already settled")
	// ErrUnknownHandle is reported for completions carrying a handle that was
	// never registered.
	ErrUnknownHandle = errors.New("unknown callback handle")
	// ErrContextClosed is returned by operations on a closed Context.
	ErrContextClosed = errors.New("context closed")
)
