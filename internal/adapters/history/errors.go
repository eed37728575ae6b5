package history

import "errors"

// ErrNoHistory is returned when a pattern has no stored scores yet.
var ErrNoHistory = errors.New("no history for pattern")
