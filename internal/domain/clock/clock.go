// Package clock maps the external playback clock onto the logical timeline
// used for all comparisons.
//
// The adapter absorbs the three discontinuities a video player produces:
// pauses freeze logical time, seeks jump it, and rate changes flow through
// the sampled reading untouched. A backward reading without a seek signal is
// treated as a backward seek and annotated, never raised as an error, since
// users scrub backward intentionally.
package clock

import (
	"github.com/okian/dojo/internal/domain/model"
)

// Adapter turns ClockSamples into logical time. It holds only the state of
// the mapping; Advance is a pure function of that state and the sample.
// Not safe for concurrent use; a session owns its adapter exclusively.
type Adapter struct {
	started     bool
	lastReading model.LogicalTime
	logical     model.LogicalTime
	regressions []model.Anomaly
}

// New creates an adapter positioned at logical time zero.
func New() *Adapter {
	return &Adapter{}
}

// Advance consumes one sample from the external clock and returns the
// current logical time.
func (a *Adapter) Advance(sample model.ClockSample) model.LogicalTime {
	if !a.started {
		a.started = true
		a.lastReading = sample.Reading
		a.logical = sample.Reading
		return a.logical
	}

	// A paused player keeps reporting the same reading; logical time holds.
	if sample.Paused {
		a.lastReading = sample.Reading
		return a.logical
	}

	if sample.Reading < a.lastReading && !sample.Seek {
		// Backward jump with no seek signal: inferred backward seek.
		a.regressions = append(a.regressions, model.Anomaly{
			Kind: model.AnomalyClockRegression,
			Time: sample.Reading,
		})
	}

	// Seeks (explicit or inferred) and rate changes both arrive as the
	// reading itself; the jump passes through. Previously recorded events
	// keep their original timestamps.
	a.lastReading = sample.Reading
	a.logical = sample.Reading
	return a.logical
}

// Now returns the logical time of the last sample.
func (a *Adapter) Now() model.LogicalTime {
	return a.logical
}

// Regressions returns the backward jumps observed without a seek signal.
// The returned slice is a copy.
func (a *Adapter) Regressions() []model.Anomaly {
	out := make([]model.Anomaly, len(a.regressions))
	copy(out, a.regressions)
	return out
}

// Reset returns the adapter to logical time zero. Used on explicit restart;
// a mid-session reset would retroactively skew comparisons, so sessions
// create fresh adapters instead.
func (a *Adapter) Reset() {
	a.started = false
	a.lastReading = 0
	a.logical = 0
	a.regressions = nil
}
