// Package scoring aggregates match classifications into a numeric score and
// per-action feedback. Scoring is a pure function of the match results:
// identical inputs always produce identical reports, which regression tests
// and reproducible training feedback both depend on.
package scoring

import (
	"encoding/json"
	"math"

	"github.com/okian/dojo/internal/domain/match"
	"github.com/okian/dojo/internal/domain/pattern"
)

// Score scale and feedback grade cutoffs, as fractions of the tolerance
// window.
const (
	maxScoreValue   = 100
	perfectFraction = 1.0 / 3
	goodFraction    = 2.0 / 3
)

// Grade is the per-hit accuracy feedback shown by the display layer.
type Grade string

const (
	GradePerfect Grade = "perfect"
	GradeGood    Grade = "good"
	GradeOK      Grade = "ok"
	GradeMiss    Grade = "miss"
)

// GradeFor buckets a hit's absolute delta against the tolerance window.
func GradeFor(deltaMS, toleranceMS float64) Grade {
	d := math.Abs(deltaMS)
	switch {
	case d <= toleranceMS*perfectFraction:
		return GradePerfect
	case d <= toleranceMS*goodFraction:
		return GradeGood
	default:
		return GradeOK
	}
}

// ActionResult is the feedback row for one reference action.
type ActionResult struct {
	Time    float64 `json:"time"`
	Key     string  `json:"key"`
	Action  string  `json:"action"`
	State   string  `json:"state"`
	DeltaMS float64 `json:"delta_ms"`
	Timing  string  `json:"timing,omitempty"`
	Grade   Grade   `json:"grade"`
}

// Report is the aggregated outcome of one comparison run.
type Report struct {
	Pattern      string         `json:"pattern"`
	TotalScore   float64        `json:"total_score"`
	Hits         int            `json:"hits"`
	Misses       int            `json:"misses"`
	Extras       int            `json:"extras"`
	MaxCombo     int            `json:"max_combo"`
	EmptyPattern bool           `json:"empty_pattern,omitempty"`
	PerAction    []ActionResult `json:"per_action"`
}

// JSON renders the report for persistence and the display layer.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithExtraPenalty sets the score deduction applied per extra candidate
// action. The default is 0: extras are reported but do not cost points.
func WithExtraPenalty(penalty float64) Option {
	return func(s *Scorer) {
		if penalty >= 0 {
			s.penaltyPerExtra = penalty
		}
	}
}

// Scorer computes score reports from match results. Stateless apart from
// configuration; safe to reuse across runs.
type Scorer struct {
	penaltyPerExtra float64
}

// New creates a scorer with configuration options.
func New(opts ...Option) *Scorer {
	s := &Scorer{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score aggregates the per-reference results and the extra count into a
// report. The base score is the hit percentage over max(1, n), so a
// zero-length pattern scores 0 with a warning flag instead of dividing by
// zero.
func (s *Scorer) Score(p *pattern.Pattern, results []match.RefResult, extras int) Report {
	report := Report{
		Pattern:      p.Name(),
		Extras:       extras,
		EmptyPattern: len(results) == 0,
		PerAction:    make([]ActionResult, 0, len(results)),
	}

	combo := 0
	for _, r := range results {
		row := ActionResult{
			Time:   r.Action.Time.Seconds(),
			Key:    r.Action.Key,
			Action: r.Action.Action.String(),
			State:  r.State.String(),
		}
		switch r.State {
		case match.Hit:
			report.Hits++
			row.DeltaMS = r.DeltaMS
			row.Timing = r.Timing().String()
			row.Grade = GradeFor(r.DeltaMS, p.ToleranceMS(r.Index))
			combo++
			if combo > report.MaxCombo {
				report.MaxCombo = combo
			}
		default:
			report.Misses++
			row.Grade = GradeMiss
			combo = 0
		}
		report.PerAction = append(report.PerAction, row)
	}

	n := len(results)
	if n < 1 {
		n = 1
	}
	total := maxScoreValue*float64(report.Hits)/float64(n) - s.penaltyPerExtra*float64(extras)
	report.TotalScore = math.Max(0, math.Min(maxScoreValue, total))

	return report
}
