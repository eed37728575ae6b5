package pattern

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrMalformedPattern marks a pattern that fails the authoring
	// invariants. Loading such a pattern is refused outright.
	ErrMalformedPattern = errors.New("malformed pattern")
)
