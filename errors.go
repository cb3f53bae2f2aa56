package dewarp

import "errors"

var (
	// ErrSetup wraps every failure that prevents a player from starting:
	// bad arguments, an unopenable source, or a stage that cannot be built.
	ErrSetup = errors.New("dewarp: setup failed")

	// ErrDecode is returned by Step and Run when the decoder fails.
	ErrDecode = errors.New("dewarp: decode failed")

	// ErrEndOfStream is returned by Step once the source is exhausted.
	ErrEndOfStream = errors.New("dewarp: end of stream")

	// ErrQuit is returned by Step after a quit command.
	ErrQuit = errors.New("dewarp: quit requested")

	// ErrClosed is returned when a closed player is used.
	ErrClosed = errors.New("dewarp: player closed")
)
