// Package session runs the single consumer draining the merged session queue.
package session

import (
	"github.com/okian/dojo/internal/domain/pattern"
	"github.com/okian/dojo/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithName sets the runner name for identification and logging.
func WithName(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.name = name
			r.logger = logger.Get().Named(name)
		}
	}
}

// WithSink sets the live feedback sink.
func WithSink(sink Sink) Option {
	return func(r *Runner) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithUpcomingFeed makes every clock tick push the pattern's presses due
// within the next lookahead seconds to the sink, for the display layer's
// timeline.
func WithUpcomingFeed(p *pattern.Pattern, lookaheadSeconds float64) Option {
	return func(r *Runner) {
		if p != nil && lookaheadSeconds > 0 {
			r.upcoming = p
			r.lookahead = lookaheadSeconds
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
