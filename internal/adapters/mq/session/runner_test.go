package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/dojo/internal/adapters/mq/queue"
	session "github.com/okian/dojo/internal/adapters/mq/session"
	clock "github.com/okian/dojo/internal/domain/clock"
	match "github.com/okian/dojo/internal/domain/match"
	model "github.com/okian/dojo/internal/domain/model"
	pattern "github.com/okian/dojo/internal/domain/pattern"
	recorder "github.com/okian/dojo/internal/domain/recorder"
	"github.com/okian/dojo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// captureSink collects live feedback for assertions.
type captureSink struct {
	mu         sync.Mutex
	classified []match.CandidateResult
	missed     []match.RefResult
	upcoming   [][]pattern.Action
}

func (s *captureSink) Classified(_ context.Context, cand match.CandidateResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classified = append(s.classified, cand)
}

func (s *captureSink) Missed(_ context.Context, ref match.RefResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missed = append(s.missed, ref)
}

func (s *captureSink) Upcoming(_ context.Context, actions []pattern.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upcoming = append(s.upcoming, actions)
}

func (s *captureSink) upcomingFeeds() [][]pattern.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]pattern.Action(nil), s.upcoming...)
}

func (s *captureSink) snapshot() ([]match.CandidateResult, []match.RefResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]match.CandidateResult(nil), s.classified...),
		append([]match.RefResult(nil), s.missed...)
}

func tick(reading float64) queue.Item {
	return queue.Tick(model.ClockSample{Wall: time.Now(), Reading: model.LogicalTime(reading)})
}

func input(key string, action model.KeyAction) queue.Item {
	return queue.Input(model.RawInput{Wall: time.Now(), Key: key, Action: action})
}

func TestRunnerDrainsMergedStream(t *testing.T) {
	Convey("Given a session over a two-press pattern", t, func() {
		p, err := pattern.NewBuilder("drill", 100).
			Add(1.0, "1", model.Press).
			Add(2.0, "2", model.Press).
			Build()
		So(err, ShouldBeNil)

		q := queue.NewInMemoryQueue(queue.WithCapacity(64), queue.WithBufferSize(64))
		clk := clock.New()
		rec := recorder.New("video-1")
		m := match.New(p)
		sink := &captureSink{}
		runner := session.New(q, clk, rec, m, session.WithSink(sink), session.WithName("test-session"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go runner.Run(ctx)

		Convey("When ticks and inputs are enqueued in causal order", func() {
			So(q.Enqueue(ctx, tick(1.02)), ShouldBeTrue)
			So(q.Enqueue(ctx, input("1", model.Press)), ShouldBeTrue)
			So(q.Enqueue(ctx, tick(2.03)), ShouldBeTrue)
			So(q.Enqueue(ctx, input("2", model.Press)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			// Queue closed; the runner drains whatever is left and exits.
			select {
			case <-runner.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("runner did not drain")
			}

			Convey("Then both candidates are classified as hits live", func() {
				classified, _ := sink.snapshot()
				So(classified, ShouldHaveLength, 2)
				So(classified[0].Matched, ShouldBeTrue)
				So(classified[0].RefIndex, ShouldEqual, 0)
				So(classified[1].Matched, ShouldBeTrue)
				So(classified[1].RefIndex, ShouldEqual, 1)
			})

			Convey("And the recording carries both events with tick timestamps", func() {
				recording := rec.Finalize()
				So(recording.Events, ShouldHaveLength, 2)
				So(recording.Events[0].Time, ShouldEqual, model.LogicalTime(1.02))
				So(recording.Events[1].Time, ShouldEqual, model.LogicalTime(2.03))
			})
		})
	})
}

func TestRunnerReportsMissesLive(t *testing.T) {
	Convey("Given a session over a one-press pattern", t, func() {
		p, err := pattern.NewBuilder("drill", 100).
			Add(1.0, "1", model.Press).
			Build()
		So(err, ShouldBeNil)

		q := queue.NewInMemoryQueue()
		clk := clock.New()
		rec := recorder.New("video-1")
		m := match.New(p)
		sink := &captureSink{}
		runner := session.New(q, clk, rec, m, session.WithSink(sink))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go runner.Run(ctx)

		Convey("When playback passes the window with no input", func() {
			So(q.Enqueue(ctx, tick(0.5)), ShouldBeTrue)
			So(q.Enqueue(ctx, tick(1.5)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			select {
			case <-runner.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("runner did not drain")
			}

			Convey("Then the miss is surfaced through the sink", func() {
				_, missed := sink.snapshot()
				So(missed, ShouldHaveLength, 1)
				So(missed[0].Index, ShouldEqual, 0)
				So(missed[0].State, ShouldEqual, match.Miss)
			})
		})
	})
}

func TestRunnerDropsInvariantViolations(t *testing.T) {
	Convey("Given a running session", t, func() {
		p, err := pattern.NewBuilder("drill", 100).
			Add(1.0, "1", model.Press).
			Build()
		So(err, ShouldBeNil)

		q := queue.NewInMemoryQueue()
		clk := clock.New()
		rec := recorder.New("video-1")
		m := match.New(p)
		sink := &captureSink{}
		runner := session.New(q, clk, rec, m, session.WithSink(sink))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go runner.Run(ctx)

		Convey("When an orphan release arrives", func() {
			So(q.Enqueue(ctx, tick(1.0)), ShouldBeTrue)
			So(q.Enqueue(ctx, input("1", model.Release)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			select {
			case <-runner.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("runner did not drain")
			}

			Convey("Then it reaches neither the matcher nor the sink", func() {
				classified, _ := sink.snapshot()
				So(classified, ShouldBeEmpty)

				recording := rec.Finalize()
				So(recording.Events, ShouldBeEmpty)
				So(recording.Anomalies, ShouldHaveLength, 1)
				So(recording.Anomalies[0].Kind, ShouldEqual, model.AnomalyOrphanRelease)
			})
		})
	})
}

func TestRunnerFeedsUpcomingActions(t *testing.T) {
	Convey("Given a session with an upcoming feed over 2 seconds", t, func() {
		p, err := pattern.NewBuilder("drill", 100).
			Add(1.0, "1", model.Press).
			Add(5.0, "2", model.Press).
			Build()
		So(err, ShouldBeNil)

		q := queue.NewInMemoryQueue()
		clk := clock.New()
		rec := recorder.New("video-1")
		m := match.New(p)
		sink := &captureSink{}
		runner := session.New(q, clk, rec, m,
			session.WithSink(sink),
			session.WithUpcomingFeed(p, 2.0),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go runner.Run(ctx)

		Convey("When ticks land before and past the first press", func() {
			So(q.Enqueue(ctx, tick(0.5)), ShouldBeTrue)
			So(q.Enqueue(ctx, tick(4.0)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			select {
			case <-runner.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("runner did not drain")
			}

			Convey("Then each tick pushes the presses due inside its window", func() {
				feeds := sink.upcomingFeeds()
				So(feeds, ShouldHaveLength, 2)
				// At t=0.5 only the press at 1.0 is inside (0.5, 2.5].
				So(feeds[0], ShouldHaveLength, 1)
				So(feeds[0][0].Key, ShouldEqual, "1")
				// At t=4.0 only the press at 5.0 is inside (4.0, 6.0].
				So(feeds[1], ShouldHaveLength, 1)
				So(feeds[1][0].Key, ShouldEqual, "2")
			})
		})
	})
}

func TestRunnerAbsorbsBackwardScrub(t *testing.T) {
	Convey("Given a running session", t, func() {
		p, err := pattern.NewBuilder("drill", 100).
			Add(1.0, "1", model.Press).
			Add(5.0, "2", model.Press).
			Build()
		So(err, ShouldBeNil)

		q := queue.NewInMemoryQueue()
		clk := clock.New()
		rec := recorder.New("video-1")
		m := match.New(p)
		runner := session.New(q, clk, rec, m)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go runner.Run(ctx)

		Convey("When the user scrubs backward without a seek signal", func() {
			So(q.Enqueue(ctx, tick(3.0)), ShouldBeTrue)
			So(q.Enqueue(ctx, tick(2.0)), ShouldBeTrue) // backward, no seek
			So(q.Enqueue(ctx, tick(5.0)), ShouldBeTrue)
			So(q.Enqueue(ctx, input("2", model.Press)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			select {
			case <-runner.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("runner did not drain")
			}

			Convey("Then the session survives and annotates the regression", func() {
				recording := rec.Finalize()
				So(recording.Anomalies, ShouldHaveLength, 1)
				So(recording.Anomalies[0].Kind, ShouldEqual, model.AnomalyClockRegression)

				// The press at t=5.0 still matched despite the scrub.
				m.Finish()
				So(m.Results()[1].State, ShouldEqual, match.Hit)
			})
		})
	})
}
