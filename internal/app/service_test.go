package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	app "github.com/okian/dojo/internal/app"
	model "github.com/okian/dojo/internal/domain/model"
	pattern "github.com/okian/dojo/internal/domain/pattern"
	scoring "github.com/okian/dojo/internal/domain/scoring"
	"github.com/okian/dojo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func sample(reading float64) model.ClockSample {
	return model.ClockSample{Wall: time.Now(), Reading: model.LogicalTime(reading)}
}

func press(key string) model.RawInput {
	return model.RawInput{Wall: time.Now(), Key: key, Action: model.Press}
}

func TestSessionLifecycle(t *testing.T) {
	Convey("Given a session over a three-press pattern", t, func() {
		p, err := pattern.NewBuilder("combo", 100).
			Add(1.0, "1", model.Press).
			Add(2.0, "2", model.Press).
			Add(5.0, "3", model.Press).
			Build()
		So(err, ShouldBeNil)

		s := app.NewSession(p, "video-1",
			app.WithQueueSize(64),
			app.WithExtraPenalty(5),
			app.WithDuration(10),
		)
		ctx := context.Background()
		So(s.Start(ctx), ShouldBeNil)
		So(s.ID(), ShouldNotBeEmpty)

		Convey("When the trainee hits two actions, misses one, and adds an extra", func() {
			So(s.OfferSample(ctx, sample(1.02)), ShouldBeTrue)
			So(s.OfferInput(ctx, press("1")), ShouldBeTrue)
			So(s.OfferSample(ctx, sample(2.01)), ShouldBeTrue)
			So(s.OfferInput(ctx, press("2")), ShouldBeTrue)
			So(s.OfferInput(ctx, press("9")), ShouldBeTrue)

			outcome, err := s.Stop(ctx)
			So(err, ShouldBeNil)

			Convey("Then the report reflects hits, the miss, and the penalty", func() {
				So(outcome.Report.Hits, ShouldEqual, 2)
				So(outcome.Report.Misses, ShouldEqual, 1)
				So(outcome.Report.Extras, ShouldEqual, 1)
				// 100*2/3 minus one extra at 5 points
				So(outcome.Report.TotalScore, ShouldAlmostEqual, 100.0*2/3-5, 1e-9)
			})

			Convey("Then the recording is frozen with the configured duration", func() {
				So(outcome.Recording.SourceID, ShouldEqual, "video-1")
				So(outcome.Recording.TotalDuration, ShouldEqual, model.LogicalTime(10))
				So(outcome.Recording.Events, ShouldHaveLength, 3)
			})

			Convey("Then Stop is idempotent", func() {
				again, err := s.Stop(ctx)
				So(err, ShouldBeNil)
				So(again.Report, ShouldResemble, outcome.Report)
			})

			Convey("Then offers after Stop are refused", func() {
				So(s.OfferSample(ctx, sample(3.0)), ShouldBeFalse)
				So(s.OfferInput(ctx, press("1")), ShouldBeFalse)
			})
		})
	})
}

func TestSessionStopBeforeStart(t *testing.T) {
	Convey("Given a session that was never started", t, func() {
		p, err := pattern.NewBuilder("combo", 100).
			Add(1.0, "1", model.Press).
			Build()
		So(err, ShouldBeNil)

		s := app.NewSession(p, "video-1")

		Convey("When Stop is called", func() {
			_, err := s.Stop(context.Background())

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestSessionAbort(t *testing.T) {
	Convey("Given a running session", t, func() {
		p, err := pattern.NewBuilder("combo", 100).
			Add(1.0, "1", model.Press).
			Build()
		So(err, ShouldBeNil)

		s := app.NewSession(p, "video-1")
		ctx := context.Background()
		So(s.Start(ctx), ShouldBeNil)

		So(s.OfferSample(ctx, sample(1.0)), ShouldBeTrue)
		So(s.OfferInput(ctx, press("1")), ShouldBeTrue)

		Convey("When the session is aborted mid-flight", func() {
			cancelCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			recording, err := s.Abort(cancelCtx)
			So(err, ShouldBeNil)

			Convey("Then a valid partial recording survives", func() {
				So(recording.SourceID, ShouldEqual, "video-1")
				So(recording.ID, ShouldNotBeEmpty)
			})

			Convey("Then further offers are refused", func() {
				So(s.OfferInput(ctx, press("2")), ShouldBeFalse)
			})
		})
	})
}

func TestReplayMatchesLiveScoring(t *testing.T) {
	Convey("Given a live session outcome", t, func() {
		p, err := pattern.NewBuilder("combo", 100).
			Add(1.0, "1", model.Press).
			Add(2.0, "2", model.Press).
			Add(5.0, "3", model.Press).
			Build()
		So(err, ShouldBeNil)

		s := app.NewSession(p, "video-1", app.WithExtraPenalty(5))
		ctx := context.Background()
		So(s.Start(ctx), ShouldBeNil)

		So(s.OfferSample(ctx, sample(1.02)), ShouldBeTrue)
		So(s.OfferInput(ctx, press("1")), ShouldBeTrue)
		So(s.OfferSample(ctx, sample(2.01)), ShouldBeTrue)
		So(s.OfferInput(ctx, press("2")), ShouldBeTrue)
		So(s.OfferInput(ctx, press("9")), ShouldBeTrue)

		outcome, err := s.Stop(ctx)
		So(err, ShouldBeNil)

		Convey("When the recording is replayed offline", func() {
			replayed := app.Compare(p, outcome.Recording, scoring.New(scoring.WithExtraPenalty(5)))

			Convey("Then the replayed report equals the live report", func() {
				So(replayed, ShouldResemble, outcome.Report)
			})
		})
	})
}
