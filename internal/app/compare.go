package app

import (
	"github.com/okian/dojo/internal/domain/match"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/pattern"
	"github.com/okian/dojo/internal/domain/scoring"
)

// Compare replays a finished recording against a pattern and scores it.
// Recorded timestamps already carry the logical timeline, so no clock adapter
// or queue is involved; the matcher sees the same ordered stream a live
// session would have fed it and produces the same report.
func Compare(p *pattern.Pattern, rec model.Recording, scorer *scoring.Scorer) scoring.Report {
	if scorer == nil {
		scorer = scoring.New()
	}

	m := match.New(p)
	for _, ev := range rec.Events {
		m.Observe(ev)
	}
	// The recording's end closes windows the event stream never reached.
	m.AdvanceTo(rec.TotalDuration)
	m.Finish()

	return scorer.Score(p, m.Results(), m.Extras())
}
