// Package recorder builds an ordered, deduplicated Recording from raw input
// events stamped with logical time.
package recorder

import (
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/pkg/metrics"
)

// Recorder accumulates input events for one session. It enforces the
// press/release pairing invariant: a release with no outstanding press and a
// press for a key already held are both dropped and annotated, never fatal.
// Not safe for concurrent use; the session consumer is the single writer.
type Recorder struct {
	sourceID  string
	duration  model.LogicalTime
	events    []model.InputEvent
	anomalies []model.Anomaly
	held      map[string]bool
	lastTime  model.LogicalTime
	unsorted  bool // a backward seek put events out of order
	finalized *model.Recording
}

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithDuration sets the total duration of the reference video, carried into
// the finalized Recording.
func WithDuration(d model.LogicalTime) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.duration = d
		}
	}
}

// New creates a recorder for the given source video.
func New(sourceID string, opts ...Option) *Recorder {
	r := &Recorder{
		sourceID: sourceID,
		held:     make(map[string]bool),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Record appends one event at the given logical time. It returns false when
// the event violates the pairing invariant and was dropped; the violation is
// kept as an anomaly annotation on the eventual Recording.
func (r *Recorder) Record(key string, action model.KeyAction, t model.LogicalTime) bool {
	if r.finalized != nil {
		// A finalized recorder is frozen; late events are dropped silently.
		return false
	}

	switch action {
	case model.Press:
		if r.held[key] {
			r.annotate(model.AnomalyRepeatPress, t, key)
			return false
		}
		r.held[key] = true
	case model.Release:
		if !r.held[key] {
			r.annotate(model.AnomalyOrphanRelease, t, key)
			return false
		}
		delete(r.held, key)
	}

	if t < r.lastTime {
		r.unsorted = true
	}
	r.lastTime = t

	r.events = append(r.events, model.InputEvent{Time: t, Key: key, Action: action})
	metrics.RecordEventRecorded()
	return true
}

// NoteClockRegression annotates the recording with a backward clock jump
// observed by the clock adapter.
func (r *Recorder) NoteClockRegression(t model.LogicalTime) {
	if r.finalized != nil {
		return
	}
	r.annotate(model.AnomalyClockRegression, t, "")
}

func (r *Recorder) annotate(kind model.AnomalyKind, t model.LogicalTime, key string) {
	r.anomalies = append(r.anomalies, model.Anomaly{Kind: kind, Time: t, Key: key})
	metrics.RecordAnomaly(string(kind))
}

// Len returns the number of accepted events so far.
func (r *Recorder) Len() int {
	if r.finalized != nil {
		return len(r.finalized.Events)
	}
	return len(r.events)
}

// Finalize freezes the recorder and returns the Recording. Events are
// re-sorted (stable, by logical time then insertion order) only if a
// backward seek put them out of order. Finalize is idempotent: repeated
// calls return an equal Recording without further mutation.
func (r *Recorder) Finalize() model.Recording {
	if r.finalized != nil {
		return *r.finalized
	}

	events := make([]model.InputEvent, len(r.events))
	copy(events, r.events)
	if r.unsorted {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Time < events[j].Time
		})
	}

	anomalies := make([]model.Anomaly, len(r.anomalies))
	copy(anomalies, r.anomalies)

	duration := r.duration
	if duration == 0 && len(events) > 0 {
		duration = events[len(events)-1].Time
	}

	rec := model.Recording{
		ID:            ulid.Make().String(),
		SourceID:      r.sourceID,
		TotalDuration: duration,
		CreatedAt:     time.Now().UTC(),
		Events:        events,
		Anomalies:     anomalies,
	}
	r.finalized = &rec
	return rec
}
