package app

import "errors"

// ErrNotStarted is returned when Stop is called before Start.
var ErrNotStarted = errors.New("session not started")
