package store

import (
	"fmt"
	"time"

	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/pattern"
)

// patternWire is the on-disk shape of a pattern file.
type patternWire struct {
	Name               string       `json:"name"`
	DefaultToleranceMS float64      `json:"default_tolerance_ms"`
	Actions            []actionWire `json:"actions"`
}

type actionWire struct {
	Time        float64 `json:"time"`
	Key         string  `json:"key"`
	Action      string  `json:"action"`
	ToleranceMS float64 `json:"tolerance_ms,omitempty"`
}

// recordingWire is the on-disk shape of a recording file.
type recordingWire struct {
	ID            string        `json:"id"`
	SourceID      string        `json:"source_id"`
	TotalDuration float64       `json:"total_duration"`
	CreatedAt     time.Time     `json:"created_at"`
	Events        []eventWire   `json:"events"`
	Anomalies     []anomalyWire `json:"anomalies,omitempty"`
}

type eventWire struct {
	Time   float64 `json:"time"`
	Key    string  `json:"key"`
	Action string  `json:"action"`
}

type anomalyWire struct {
	Kind string  `json:"kind"`
	Time float64 `json:"time"`
	Key  string  `json:"key,omitempty"`
}

func encodePattern(p *pattern.Pattern) patternWire {
	actions := p.Actions()
	wire := patternWire{
		Name:               p.Name(),
		DefaultToleranceMS: p.DefaultToleranceMS(),
		Actions:            make([]actionWire, len(actions)),
	}
	for i, a := range actions {
		wire.Actions[i] = actionWire{
			Time:        a.Time.Seconds(),
			Key:         a.Key,
			Action:      a.Action.String(),
			ToleranceMS: a.ToleranceMS,
		}
	}
	return wire
}

func decodePattern(wire patternWire) (*pattern.Pattern, error) {
	b := pattern.NewBuilder(wire.Name, wire.DefaultToleranceMS)
	for _, a := range wire.Actions {
		action, err := model.ParseKeyAction(a.Action)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pattern.ErrMalformedPattern, err)
		}
		b.AddWithTolerance(model.LogicalTime(a.Time), a.Key, action, a.ToleranceMS)
	}
	return b.Build()
}

func encodeRecording(rec model.Recording) recordingWire {
	wire := recordingWire{
		ID:            rec.ID,
		SourceID:      rec.SourceID,
		TotalDuration: rec.TotalDuration.Seconds(),
		CreatedAt:     rec.CreatedAt,
		Events:        make([]eventWire, len(rec.Events)),
	}
	for i, ev := range rec.Events {
		wire.Events[i] = eventWire{
			Time:   ev.Time.Seconds(),
			Key:    ev.Key,
			Action: ev.Action.String(),
		}
	}
	for _, a := range rec.Anomalies {
		wire.Anomalies = append(wire.Anomalies, anomalyWire{
			Kind: string(a.Kind),
			Time: a.Time.Seconds(),
			Key:  a.Key,
		})
	}
	return wire
}

func decodeRecording(wire recordingWire) (model.Recording, error) {
	rec := model.Recording{
		ID:            wire.ID,
		SourceID:      wire.SourceID,
		TotalDuration: model.LogicalTime(wire.TotalDuration),
		CreatedAt:     wire.CreatedAt,
		Events:        make([]model.InputEvent, len(wire.Events)),
	}
	for i, ev := range wire.Events {
		action, err := model.ParseKeyAction(ev.Action)
		if err != nil {
			return model.Recording{}, fmt.Errorf("event %d: %w", i, err)
		}
		rec.Events[i] = model.InputEvent{
			Time:   model.LogicalTime(ev.Time),
			Key:    ev.Key,
			Action: action,
		}
	}
	for _, a := range wire.Anomalies {
		rec.Anomalies = append(rec.Anomalies, model.Anomaly{
			Kind: model.AnomalyKind(a.Kind),
			Time: model.LogicalTime(a.Time),
			Key:  a.Key,
		})
	}
	return rec, nil
}
