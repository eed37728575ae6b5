package store

import "errors"

// ErrNotFound is returned when a pattern or recording does not exist.
var ErrNotFound = errors.New("not found")
