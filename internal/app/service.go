// Package app provides the session service that wires the playback clock,
// the recorder, and the matching engine together behind a small producer API.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dojo/internal/adapters/mq/queue"
	sessionmq "github.com/okian/dojo/internal/adapters/mq/session"
	"github.com/okian/dojo/internal/domain/clock"
	"github.com/okian/dojo/internal/domain/match"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/pattern"
	"github.com/okian/dojo/internal/domain/recorder"
	"github.com/okian/dojo/internal/domain/scoring"
	"github.com/okian/dojo/pkg/logger"
	"github.com/okian/dojo/pkg/metrics"
)

// Outcome is the final product of one session: the frozen recording and the
// score report computed from it.
type Outcome struct {
	SessionID string
	Recording model.Recording
	Report    scoring.Report
}

// Session owns one comparison run of a trainee against a pattern. Producers
// push clock samples and raw inputs through OfferSample and OfferInput; the
// single consumer goroutine does everything else.
type Session struct {
	mu sync.Mutex

	id       string
	pattern  *pattern.Pattern
	sourceID string

	// Core components, built on Start
	queue   *queue.InMemoryQueue
	clock   *clock.Adapter
	rec     *recorder.Recorder
	matcher *match.Matcher
	runner  *sessionmq.Runner
	scorer  *scoring.Scorer

	// Configuration
	queueSize    int
	extraPenalty float64
	duration     model.LogicalTime
	lookahead    float64
	sink         sessionmq.Sink

	// State
	started   bool
	startedAt time.Time
	outcome   *Outcome

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithQueueSize sets the capacity of the merged session queue.
func WithQueueSize(size int) Option {
	return func(s *Session) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithExtraPenalty sets the score deduction per extra input.
func WithExtraPenalty(penalty float64) Option {
	return func(s *Session) {
		if penalty >= 0 {
			s.extraPenalty = penalty
		}
	}
}

// WithDuration sets the reference video duration, carried into the recording.
func WithDuration(d model.LogicalTime) Option {
	return func(s *Session) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithLookahead enables the upcoming-actions feed: every clock tick pushes
// the presses due within the next lookahead seconds to the sink.
func WithLookahead(seconds float64) Option {
	return func(s *Session) {
		if seconds > 0 {
			s.lookahead = seconds
		}
	}
}

// WithSink attaches a live feedback sink for the display layer.
func WithSink(sink sessionmq.Sink) Option {
	return func(s *Session) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates a session for the given pattern and source video.
func NewSession(p *pattern.Pattern, sourceID string, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		pattern:   p,
		sourceID:  sourceID,
		queueSize: 4096,
		sink:      sessionmq.NopSink{},
		logger:    nil, // Will be replaced when the session starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start builds the session components and launches the consumer goroutine.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("session")
	}

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.clock = clock.New()
	s.rec = recorder.New(s.sourceID, recorder.WithDuration(s.duration))
	s.matcher = match.New(s.pattern)
	s.scorer = scoring.New(scoring.WithExtraPenalty(s.extraPenalty))
	s.runner = sessionmq.New(s.queue, s.clock, s.rec, s.matcher,
		sessionmq.WithSink(s.sink),
		sessionmq.WithName("session-"+s.id),
		sessionmq.WithUpcomingFeed(s.pattern, s.lookahead),
	)

	go s.runner.Run(ctx)

	s.started = true
	s.startedAt = time.Now()
	metrics.RecordSessionStarted()
	metrics.UpdateQueueCapacity(s.queueSize)
	s.logger.Info(ctx, "session started",
		logger.String("sessionID", s.id),
		logger.String("pattern", s.pattern.Name()),
		logger.String("sourceID", s.sourceID),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// OfferSample submits one playback clock reading. It never blocks; false
// means the session is not running or the queue was full or closed.
func (s *Session) OfferSample(ctx context.Context, sample model.ClockSample) bool {
	if s.queue == nil {
		return false
	}
	return s.queue.Enqueue(ctx, queue.Tick(sample))
}

// OfferInput submits one raw input event. It never blocks; false means the
// session is not running or the queue was full or closed.
func (s *Session) OfferInput(ctx context.Context, in model.RawInput) bool {
	if s.queue == nil {
		return false
	}
	return s.queue.Enqueue(ctx, queue.Input(in))
}

// Stop drains the session and produces its outcome: the queue is closed,
// every already-enqueued item is still processed, remaining open windows
// become misses, and the recording is frozen and scored. Idempotent.
func (s *Session) Stop(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return Outcome{}, ErrNotStarted
	}
	if s.outcome != nil {
		return *s.outcome, nil
	}

	if err := s.queue.Close(); err != nil {
		return Outcome{}, fmt.Errorf("close session queue: %w", err)
	}

	select {
	case <-s.runner.Done():
	case <-ctx.Done():
		return Outcome{}, fmt.Errorf("session drain interrupted: %w", ctx.Err())
	}

	// End of session closes every window still pending.
	for _, missed := range s.matcher.Finish() {
		s.sink.Missed(ctx, missed)
	}

	recording := s.rec.Finalize()
	report := s.scorer.Score(s.pattern, s.matcher.Results(), s.matcher.Extras())
	metrics.ObserveSessionDuration(time.Since(s.startedAt).Seconds())

	s.outcome = &Outcome{
		SessionID: s.id,
		Recording: recording,
		Report:    report,
	}
	s.logger.Info(ctx, "session stopped",
		logger.String("sessionID", s.id),
		logger.Float64("totalScore", report.TotalScore),
		logger.Int("hits", report.Hits),
		logger.Int("misses", report.Misses),
		logger.Int("extras", report.Extras),
	)

	return *s.outcome, nil
}

// Abort cancels the session without draining or scoring. In-flight matching
// state is abandoned, but the recorder is still finalized so a valid partial
// recording survives the cancellation.
func (s *Session) Abort(ctx context.Context) (model.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.Recording{}, ErrNotStarted
	}
	if s.outcome != nil {
		return s.outcome.Recording, nil
	}

	_ = s.queue.Close()
	if err := s.runner.Shutdown(ctx); err != nil {
		return model.Recording{}, err
	}

	recording := s.rec.Finalize()
	s.logger.Info(ctx, "session aborted",
		logger.String("sessionID", s.id),
		logger.Int("events", len(recording.Events)),
	)
	return recording, nil
}
