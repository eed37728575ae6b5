// Package session runs the single consumer that drains the merged session
// queue. One goroutine owns the clock adapter, the recorder, and the matcher
// for the whole session, so the matching engine never needs a lock and the
// chronological-order invariant holds by construction.
package session

import (
	"context"
	"fmt"

	"github.com/okian/dojo/internal/adapters/mq/queue"
	"github.com/okian/dojo/internal/domain/clock"
	"github.com/okian/dojo/internal/domain/match"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/pattern"
	"github.com/okian/dojo/internal/domain/recorder"
	"github.com/okian/dojo/pkg/logger"
)

// Sink receives live per-event feedback for the display layer.
type Sink interface {
	// Classified is called for every candidate the moment it is decided.
	Classified(ctx context.Context, cand match.CandidateResult)
	// Missed is called when a reference action's window closes unmatched.
	Missed(ctx context.Context, ref match.RefResult)
	// Upcoming is called on every clock tick with the presses due inside
	// the lookahead window, when an upcoming feed is configured.
	Upcoming(ctx context.Context, actions []pattern.Action)
}

// NopSink discards all feedback. Used when no display layer is attached.
type NopSink struct{}

func (NopSink) Classified(context.Context, match.CandidateResult) {}
func (NopSink) Missed(context.Context, match.RefResult)           {}
func (NopSink) Upcoming(context.Context, []pattern.Action)        {}

// Queue defines how the runner receives session items.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Item
}

// Runner drains the session queue in arrival order and drives the clock
// adapter, recorder, and matcher. Exactly one Runner consumes a queue.
type Runner struct {
	queue   Queue
	clock   *clock.Adapter
	rec     *recorder.Recorder
	matcher *match.Matcher
	sink    Sink
	name    string

	// Upcoming feed for the display layer, off unless configured
	upcoming  *pattern.Pattern
	lookahead float64

	// tracks clock regressions already copied into the recording
	regressionsSeen int

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// New creates a runner over the given session components.
func New(q Queue, clk *clock.Adapter, rec *recorder.Recorder, m *match.Matcher, opts ...Option) *Runner {
	r := &Runner{
		queue:    q,
		clock:    clk,
		rec:      rec,
		matcher:  m,
		sink:     NopSink{},
		name:     "session",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("session"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts the consumer loop. It returns when the context is cancelled,
// Shutdown is called, or the queue closes.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	items := r.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case it, ok := <-items:
			if !ok {
				// Queue closed, session is over.
				return
			}
			r.process(ctx, it)
		}
	}
}

// Done is closed once the runner has exited, either because the queue
// closed and drained or because it was cancelled. Closing the queue and
// waiting on Done is the orderly way to end a session: every item already
// enqueued is still processed.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Shutdown stops the runner without waiting for the queue to drain. Used
// for cancellation; in-flight matching state is simply abandoned.
func (r *Runner) Shutdown(ctx context.Context) error {
	close(r.shutdown)

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process handles one item off the merged stream.
func (r *Runner) process(ctx context.Context, it queue.Item) {
	switch it.Kind {
	case queue.TickItem:
		r.processTick(ctx, it.Sample)
	case queue.InputItem:
		r.processInput(ctx, it.Input)
	}
}

func (r *Runner) processTick(ctx context.Context, sample model.ClockSample) {
	lt := r.clock.Advance(sample)

	// Copy any newly inferred backward seek into the recording annotations.
	if regs := r.clock.Regressions(); len(regs) > r.regressionsSeen {
		for _, reg := range regs[r.regressionsSeen:] {
			r.rec.NoteClockRegression(reg.Time)
			r.logger.Debug(ctx, "clock regression absorbed",
				logger.Float64("logicalTime", reg.Time.Seconds()),
			)
		}
		r.regressionsSeen = len(regs)
	}

	for _, missed := range r.matcher.AdvanceTo(lt) {
		r.sink.Missed(ctx, missed)
	}

	if r.upcoming != nil && r.lookahead > 0 {
		r.sink.Upcoming(ctx, r.upcoming.Upcoming(lt, r.lookahead))
	}
}

func (r *Runner) processInput(ctx context.Context, in model.RawInput) {
	// Input events are stamped with the logical time of the latest tick.
	lt := r.clock.Now()

	if !r.rec.Record(in.Key, in.Action, lt) {
		// Dropped by the pairing invariant; annotated on the recording,
		// never fed to the matcher so live results equal replayed results.
		r.logger.Debug(ctx, "input dropped by pairing invariant",
			logger.String("key", in.Key),
			logger.String("action", in.Action.String()),
		)
		return
	}

	cand := r.matcher.Observe(model.InputEvent{Time: lt, Key: in.Key, Action: in.Action})
	r.sink.Classified(ctx, cand)
}
