// Package pattern holds the authored reference patterns a trainee is scored
// against. Patterns are immutable by construction: they can only be created
// through the Builder, which validates the authoring invariants and freezes
// the action list.
package pattern

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/dojo/internal/domain/model"
)

// Action is one timestamped reference action in a pattern.
type Action struct {
	Time   model.LogicalTime
	Key    string
	Action model.KeyAction

	// ToleranceMS overrides the pattern default for this action.
	// Zero means inherit.
	ToleranceMS float64
}

// Pattern is an ordered, immutable sequence of reference actions plus a
// default tolerance window and a name.
type Pattern struct {
	name               string
	defaultToleranceMS float64
	actions            []Action
}

// Name returns the pattern identifier.
func (p *Pattern) Name() string { return p.name }

// DefaultToleranceMS returns the default tolerance window half-width.
func (p *Pattern) DefaultToleranceMS() float64 { return p.defaultToleranceMS }

// Len returns the number of reference actions.
func (p *Pattern) Len() int { return len(p.actions) }

// At returns the reference action at index i.
func (p *Pattern) At(i int) Action { return p.actions[i] }

// Actions returns a copy of the reference actions in order.
func (p *Pattern) Actions() []Action {
	out := make([]Action, len(p.actions))
	copy(out, p.actions)
	return out
}

// ToleranceMS returns the effective tolerance window for action i:
// the per-action override when set, the pattern default otherwise.
func (p *Pattern) ToleranceMS(i int) float64 {
	if t := p.actions[i].ToleranceMS; t > 0 {
		return t
	}
	return p.defaultToleranceMS
}

// Upcoming returns the press actions falling in (now, now+lookahead],
// for the display layer's timeline feed.
func (p *Pattern) Upcoming(now model.LogicalTime, lookahead float64) []Action {
	var out []Action
	horizon := now + model.LogicalTime(lookahead)
	for _, a := range p.actions {
		if a.Action != model.Press {
			continue
		}
		if a.Time > now && a.Time <= horizon {
			out = append(out, a)
		}
	}
	return out
}

// Builder accumulates actions and produces a validated, frozen Pattern.
type Builder struct {
	name               string
	defaultToleranceMS float64
	actions            []Action
}

// NewBuilder creates a builder for a named pattern with a default tolerance
// window (milliseconds, half-width).
func NewBuilder(name string, defaultToleranceMS float64) *Builder {
	return &Builder{
		name:               name,
		defaultToleranceMS: defaultToleranceMS,
	}
}

// Add appends an action inheriting the pattern default tolerance.
func (b *Builder) Add(t model.LogicalTime, key string, action model.KeyAction) *Builder {
	return b.AddWithTolerance(t, key, action, 0)
}

// AddWithTolerance appends an action with a per-action tolerance override.
func (b *Builder) AddWithTolerance(t model.LogicalTime, key string, action model.KeyAction, toleranceMS float64) *Builder {
	b.actions = append(b.actions, Action{
		Time:        t,
		Key:         key,
		Action:      action,
		ToleranceMS: toleranceMS,
	})
	return b
}

// Build validates the authoring invariants and returns the frozen Pattern.
// Violations return ErrMalformedPattern: the pattern is hand-authored ground
// truth, so it is refused outright rather than repaired.
func (b *Builder) Build() (*Pattern, error) {
	if b.name == "" {
		return nil, fmt.Errorf("%w: pattern name must not be empty", ErrMalformedPattern)
	}
	if b.defaultToleranceMS <= 0 || math.IsNaN(b.defaultToleranceMS) {
		return nil, fmt.Errorf("%w: default tolerance must be positive, got %v", ErrMalformedPattern, b.defaultToleranceMS)
	}

	actions := make([]Action, len(b.actions))
	copy(actions, b.actions)

	for i, a := range actions {
		if math.IsNaN(float64(a.Time)) || math.IsInf(float64(a.Time), 0) {
			return nil, fmt.Errorf("%w: action %d has a non-numeric timestamp", ErrMalformedPattern, i)
		}
		if a.Time < 0 {
			return nil, fmt.Errorf("%w: action %d has a negative timestamp %v", ErrMalformedPattern, i, a.Time)
		}
		if a.Key == "" {
			return nil, fmt.Errorf("%w: action %d has an empty key", ErrMalformedPattern, i)
		}
		if a.Action != model.Press && a.Action != model.Release {
			return nil, fmt.Errorf("%w: action %d has an unknown kind", ErrMalformedPattern, i)
		}
		if a.ToleranceMS < 0 || math.IsNaN(a.ToleranceMS) {
			return nil, fmt.Errorf("%w: action %d has an invalid tolerance override %v", ErrMalformedPattern, i, a.ToleranceMS)
		}
	}

	// Order by time; ties keep authoring order.
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Time < actions[j].Time
	})

	// Release pairing, scanned in timeline order. Repeated presses of the
	// same key with no intervening release are legal pattern content (rapid
	// re-taps matched FIFO); only a release with no outstanding press is
	// refused.
	outstanding := make(map[string]int)
	for i, a := range actions {
		switch a.Action {
		case model.Press:
			outstanding[a.Key]++
		case model.Release:
			if outstanding[a.Key] == 0 {
				return nil, fmt.Errorf("%w: action %d releases %q without a preceding press", ErrMalformedPattern, i, a.Key)
			}
			outstanding[a.Key]--
		}
	}

	return &Pattern{
		name:               b.name,
		defaultToleranceMS: b.defaultToleranceMS,
		actions:            actions,
	}, nil
}
