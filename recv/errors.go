package recv

import "errors"

var (
	// ErrInvalidMinimum indicates a non-positive minimum capacity.
	ErrInvalidMinimum = errors.New("recv: minimum must be positive")

	// ErrInvalidInitial indicates an initial capacity below the configured minimum.
	ErrInvalidInitial = errors.New("recv: initial must not be less than minimum")

	// ErrInvalidMaximum indicates a maximum capacity below the configured initial.
	ErrInvalidMaximum = errors.New("recv: maximum must not be less than initial")

	// ErrInvalidFixedSize indicates a non-positive fixed capacity.
	ErrInvalidFixedSize = errors.New("recv: fixed size must be positive")

	// ErrInvalidMaxMessages indicates a non-positive per-cycle read limit.
	ErrInvalidMaxMessages = errors.New("recv: max messages per read must be positive")
)
