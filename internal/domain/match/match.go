// Package match aligns a candidate input stream against a reference pattern.
//
// The engine is a greedy nearest-neighbor assignment scanned in increasing
// reference-time order, not a full optimal bipartite matching: training
// feedback must be computable incrementally as events arrive, O(1) amortized
// per event against the per-key queues of pending reference actions.
//
// Every reference action ends in exactly one of Hit or Miss; every candidate
// is classified Matched or Extra at arrival. All classifications are
// terminal. The matcher is single-threaded on purpose: the session consumer
// feeds it one causally ordered stream, which is what the chronological
// FIFO-per-key policy depends on.
package match

import (
	"sort"
	"time"

	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/pattern"
	"github.com/okian/dojo/pkg/metrics"
)

// timeEpsilonMS absorbs float64 noise from the seconds-to-milliseconds
// conversion so the tolerance boundary stays inclusive.
const timeEpsilonMS = 1e-6

// State is the lifecycle of a reference action.
type State int

const (
	// Pending means the action's tolerance window is still open.
	Pending State = iota
	// Hit means a candidate matched within tolerance. Terminal.
	Hit
	// Miss means the window closed unmatched. Terminal.
	Miss
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return "unknown"
	}
}

// Timing is the early/late verdict of a matched pair, derived from the sign
// of the delta. Display feedback only; scoring cares about Hit vs not-Hit.
type Timing int

const (
	// OnTime means the delta is zero.
	OnTime Timing = iota
	// Early means the candidate arrived before the reference time.
	Early
	// Late means the candidate arrived after the reference time.
	Late
)

// String returns a short name for the timing verdict.
func (t Timing) String() string {
	switch t {
	case OnTime:
		return "on_time"
	case Early:
		return "early"
	case Late:
		return "late"
	default:
		return "unknown"
	}
}

// RefResult is the classification of one reference action.
type RefResult struct {
	Index     int
	Action    pattern.Action
	State     State
	DeltaMS   float64 // signed; negative is early, valid only when Hit
	Candidate int     // index into the candidate list, -1 when unmatched
}

// Timing derives the early/late verdict for a Hit.
func (r RefResult) Timing() Timing {
	switch {
	case r.State != Hit || r.DeltaMS == 0:
		return OnTime
	case r.DeltaMS < 0:
		return Early
	default:
		return Late
	}
}

// CandidateResult is the classification of one candidate action, decided
// immediately at arrival.
type CandidateResult struct {
	Event    model.InputEvent
	Matched  bool
	RefIndex int     // -1 when Extra
	DeltaMS  float64 // signed, valid only when matched
}

// streamKey groups reference actions that a candidate may legally match:
// same key and same action kind.
type streamKey struct {
	key    string
	action model.KeyAction
}

// Matcher incrementally classifies a candidate stream against one pattern.
// Not safe for concurrent use; a session owns its matcher exclusively.
type Matcher struct {
	p          *pattern.Pattern
	pending    map[streamKey][]int // FIFO queues of pending reference indices
	results    []RefResult
	candidates []CandidateResult
	now        model.LogicalTime // high-water mark; never moves backward
	open       int
	finished   bool
}

// New creates a matcher for the given pattern.
func New(p *pattern.Pattern) *Matcher {
	m := &Matcher{
		p:       p,
		pending: make(map[streamKey][]int),
		results: make([]RefResult, p.Len()),
		open:    p.Len(),
	}
	for i := 0; i < p.Len(); i++ {
		a := p.At(i)
		m.results[i] = RefResult{Index: i, Action: a, State: Pending, Candidate: -1}
		k := streamKey{key: a.Key, action: a.Action}
		m.pending[k] = append(m.pending[k], i)
	}
	metrics.UpdateOpenReferences(m.open)
	return m
}

// AdvanceTo moves logical time forward and permanently misses every pending
// reference action whose tolerance window has closed. The newly missed
// results are returned for live feedback. Backward jumps are ignored: Miss
// is terminal and a backward scrub never reopens a window.
func (m *Matcher) AdvanceTo(t model.LogicalTime) []RefResult {
	if t <= m.now {
		return nil
	}
	m.now = t

	var missed []RefResult
	for k, q := range m.pending {
		kept := q[:0]
		for _, idx := range q {
			tol := m.p.ToleranceMS(idx)
			if m.now.Millis()-m.results[idx].Action.Time.Millis() > tol+timeEpsilonMS {
				m.results[idx].State = Miss
				m.open--
				metrics.RecordMiss()
				missed = append(missed, m.results[idx])
			} else {
				kept = append(kept, idx)
			}
		}
		if len(kept) == 0 {
			delete(m.pending, k)
		} else {
			m.pending[k] = kept
		}
	}
	// Map iteration order is random; feedback wants pattern order.
	sort.Slice(missed, func(i, j int) bool { return missed[i].Index < missed[j].Index })
	metrics.UpdateOpenReferences(m.open)
	return missed
}

// Observe classifies one candidate event. The candidate is tested against
// the front of its per-key queue only: the earliest still-open reference
// action of the same key and kind. It matches when the front's tolerance
// window contains it (boundary inclusive); otherwise it is Extra, even when
// a later same-key reference carries a wider override window that would
// have admitted it. Skipping an open front would let a later candidate
// match an earlier reference, breaking the non-decreasing match-index
// guarantee for repeated keys. The decision is committed immediately to
// support live feedback.
func (m *Matcher) Observe(ev model.InputEvent) CandidateResult {
	start := time.Now()
	defer func() {
		metrics.RecordMatchLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	}()

	// Close windows up to the candidate's own timestamp first, so the
	// per-key queue front is the earliest reference that is still open.
	m.AdvanceTo(ev.Time)

	cand := CandidateResult{Event: ev, RefIndex: -1}
	if !m.finished {
		k := streamKey{key: ev.Key, action: ev.Action}
		if q := m.pending[k]; len(q) > 0 {
			idx := q[0]
			delta := ev.Time.Millis() - m.results[idx].Action.Time.Millis()
			if abs(delta) <= m.p.ToleranceMS(idx)+timeEpsilonMS {
				m.results[idx].State = Hit
				m.results[idx].DeltaMS = delta
				m.results[idx].Candidate = len(m.candidates)
				m.open--
				if len(q) == 1 {
					delete(m.pending, k)
				} else {
					m.pending[k] = q[1:]
				}
				cand.Matched = true
				cand.RefIndex = idx
				cand.DeltaMS = delta
				metrics.RecordHit()
				metrics.UpdateOpenReferences(m.open)
			}
		}
	}

	if !cand.Matched {
		metrics.RecordExtra()
	}
	m.candidates = append(m.candidates, cand)
	return cand
}

// Finish closes the session: every reference action still pending becomes a
// Miss. Idempotent. Returns the newly missed results.
func (m *Matcher) Finish() []RefResult {
	if m.finished {
		return nil
	}
	m.finished = true

	var missed []RefResult
	for i := range m.results {
		if m.results[i].State == Pending {
			m.results[i].State = Miss
			m.open--
			metrics.RecordMiss()
			missed = append(missed, m.results[i])
		}
	}
	m.pending = make(map[streamKey][]int)
	metrics.UpdateOpenReferences(m.open)
	return missed
}

// Results returns a copy of the per-reference classifications in pattern
// order. After Finish, no result is Pending.
func (m *Matcher) Results() []RefResult {
	out := make([]RefResult, len(m.results))
	copy(out, m.results)
	return out
}

// Candidates returns a copy of the per-candidate classifications in arrival
// order.
func (m *Matcher) Candidates() []CandidateResult {
	out := make([]CandidateResult, len(m.candidates))
	copy(out, m.candidates)
	return out
}

// Open returns the number of reference actions still pending.
func (m *Matcher) Open() int { return m.open }

// Extras returns the number of candidates classified Extra so far.
func (m *Matcher) Extras() int {
	n := 0
	for _, c := range m.candidates {
		if !c.Matched {
			n++
		}
	}
	return n
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
