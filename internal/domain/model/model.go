// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// LogicalTime is a position on the unified playback timeline, in seconds.
// It is derived from the external video clock and is monotonic within a
// session except for explicit or inferred seeks.
type LogicalTime float64

// Millis returns the logical time expressed in milliseconds.
func (t LogicalTime) Millis() float64 {
	return float64(t) * 1000
}

// Seconds returns the logical time as a plain float64 of seconds.
func (t LogicalTime) Seconds() float64 {
	return float64(t)
}

// KeyAction is the kind of an input event.
type KeyAction int

const (
	// Press marks a key going down.
	Press KeyAction = iota
	// Release marks a key coming back up.
	Release
)

// String returns the wire name of the action ("press"/"release").
func (a KeyAction) String() string {
	switch a {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("keyaction(%d)", int(a))
	}
}

// ParseKeyAction converts a wire name back into a KeyAction.
func ParseKeyAction(s string) (KeyAction, error) {
	switch s {
	case "press":
		return Press, nil
	case "release":
		return Release, nil
	default:
		return 0, fmt.Errorf("unknown key action %q", s)
	}
}

// InputEvent is a single timestamped keyboard action on the logical
// timeline. The timestamp is assigned at record time and never rewritten,
// even when the playback clock later seeks.
type InputEvent struct {
	Time   LogicalTime
	Key    string
	Action KeyAction
}

// ClockSample is one reading from the external playback clock, as handed
// to the core by the video player.
type ClockSample struct {
	Wall    time.Time   // wall-clock instant the sample was taken
	Reading LogicalTime // playback position reported by the player
	Paused  bool        // player reports playback as not advancing
	Seek    bool        // player signals an intentional jump
}

// RawInput is an input-device event before it has been mapped onto the
// logical timeline.
type RawInput struct {
	Wall   time.Time
	Key    string
	Action KeyAction
}

// AnomalyKind names a non-fatal deviation captured during a session.
type AnomalyKind string

const (
	// AnomalyOrphanRelease is a release with no outstanding press.
	AnomalyOrphanRelease AnomalyKind = "orphan_release"
	// AnomalyRepeatPress is a press for a key that is already held down.
	AnomalyRepeatPress AnomalyKind = "repeat_press"
	// AnomalyClockRegression is a backward clock reading without a seek signal.
	AnomalyClockRegression AnomalyKind = "clock_regression"
)

// Anomaly annotates a recording with a deviation that was observed and
// absorbed. Anomalies never abort a session.
type Anomaly struct {
	Kind AnomalyKind
	Time LogicalTime
	Key  string // empty for clock anomalies
}

// Recording is a finalized input capture for one session. Once built it is
// never mutated; the recorder hands out copies of its internal state.
type Recording struct {
	ID            string
	SourceID      string // identifier of the reference video
	TotalDuration LogicalTime
	CreatedAt     time.Time
	Events        []InputEvent
	Anomalies     []Anomaly
}
