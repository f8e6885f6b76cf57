package hotkey

import (
	"errors"
	"fmt"
)

// ErrNoBackend means no global shortcut facility is available.
var ErrNoBackend = errors.New("no global shortcut backend")

// Unavailable is a Backend that refuses every grab. The daemon runs on it when
// neither the X server nor the shortcuts portal can be reached, leaving the
// control commands as the only way to summon the overlay.
type Unavailable struct {
	Reason error
}

// Grab always fails.
func (u Unavailable) Grab(c Combination, _ func()) (Grab, error) {
	reason := u.Reason
	if reason == nil {
		reason = ErrNoBackend
	}
	return nil, fmt.Errorf("grab %s: %w", c, reason)
}
