package pattern_test

import (
	"errors"
	"testing"

	model "github.com/okian/dojo/internal/domain/model"
	pattern "github.com/okian/dojo/internal/domain/pattern"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuilder(t *testing.T) {
	Convey("Given a pattern builder", t, func() {
		Convey("When building a valid pattern", func() {
			p, err := pattern.NewBuilder("combo-a", 100).
				Add(1.0, "1", model.Press).
				Add(1.2, "1", model.Release).
				AddWithTolerance(2.0, "2", model.Press, 50).
				Add(2.3, "2", model.Release).
				Build()

			Convey("Then it should freeze the actions in order", func() {
				So(err, ShouldBeNil)
				So(p.Name(), ShouldEqual, "combo-a")
				So(p.Len(), ShouldEqual, 4)
				So(p.DefaultToleranceMS(), ShouldEqual, 100.0)
			})

			Convey("And tolerance overrides fall back to the default", func() {
				So(err, ShouldBeNil)
				So(p.ToleranceMS(0), ShouldEqual, 100.0)
				So(p.ToleranceMS(2), ShouldEqual, 50.0)
			})

			Convey("And Actions returns a defensive copy", func() {
				So(err, ShouldBeNil)
				actions := p.Actions()
				actions[0].Key = "mutated"
				So(p.At(0).Key, ShouldEqual, "1")
			})
		})

		Convey("When actions are added out of order", func() {
			p, err := pattern.NewBuilder("combo-b", 100).
				Add(2.0, "2", model.Press).
				Add(1.0, "1", model.Press).
				Build()

			Convey("Then Build orders them by time", func() {
				So(err, ShouldBeNil)
				So(p.At(0).Key, ShouldEqual, "1")
				So(p.At(1).Key, ShouldEqual, "2")
			})
		})

		Convey("When a timestamp is negative", func() {
			_, err := pattern.NewBuilder("bad", 100).
				Add(-1.0, "1", model.Press).
				Build()

			Convey("Then Build fails with ErrMalformedPattern", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, pattern.ErrMalformedPattern), ShouldBeTrue)
			})
		})

		Convey("When a release has no preceding press", func() {
			_, err := pattern.NewBuilder("bad", 100).
				Add(1.0, "1", model.Release).
				Build()

			Convey("Then Build fails with ErrMalformedPattern", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, pattern.ErrMalformedPattern), ShouldBeTrue)
			})
		})

		Convey("When the same key is pressed twice with no release between", func() {
			p, err := pattern.NewBuilder("retap", 100).
				Add(1.0, "1", model.Press).
				Add(2.0, "1", model.Press).
				Build()

			Convey("Then the pattern is valid rapid re-tap content", func() {
				So(err, ShouldBeNil)
				So(p.Len(), ShouldEqual, 2)
				So(p.At(0).Time, ShouldEqual, model.LogicalTime(1.0))
				So(p.At(1).Time, ShouldEqual, model.LogicalTime(2.0))
			})
		})

		Convey("When releases are balanced against stacked presses", func() {
			_, err := pattern.NewBuilder("stacked", 100).
				Add(1.0, "1", model.Press).
				Add(1.1, "1", model.Press).
				Add(1.5, "1", model.Release).
				Add(1.6, "1", model.Release).
				Build()

			Convey("Then Build accepts the pattern", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When a release exceeds the outstanding presses", func() {
			_, err := pattern.NewBuilder("bad", 100).
				Add(1.0, "1", model.Press).
				Add(1.5, "1", model.Release).
				Add(1.6, "1", model.Release).
				Build()

			Convey("Then Build fails with ErrMalformedPattern", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, pattern.ErrMalformedPattern), ShouldBeTrue)
			})
		})

		Convey("When the default tolerance is not positive", func() {
			_, err := pattern.NewBuilder("bad", 0).
				Add(1.0, "1", model.Press).
				Build()

			Convey("Then Build fails with ErrMalformedPattern", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, pattern.ErrMalformedPattern), ShouldBeTrue)
			})
		})

		Convey("When the name is empty", func() {
			_, err := pattern.NewBuilder("", 100).Build()

			Convey("Then Build fails with ErrMalformedPattern", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, pattern.ErrMalformedPattern), ShouldBeTrue)
			})
		})
	})
}

func TestUpcoming(t *testing.T) {
	Convey("Given a pattern with spread-out presses", t, func() {
		p, err := pattern.NewBuilder("spread", 100).
			Add(1.0, "1", model.Press).
			Add(1.2, "1", model.Release).
			Add(3.0, "2", model.Press).
			Add(8.0, "3", model.Press).
			Build()
		So(err, ShouldBeNil)

		Convey("When asking for the next 5 seconds from t=0.5", func() {
			up := p.Upcoming(0.5, 5.0)

			Convey("Then only presses inside the window come back", func() {
				So(up, ShouldHaveLength, 2)
				So(up[0].Key, ShouldEqual, "1")
				So(up[1].Key, ShouldEqual, "2")
			})
		})

		Convey("When the window boundary lands on an action", func() {
			up := p.Upcoming(3.0, 5.0)

			Convey("Then the boundary is inclusive and 'now' is exclusive", func() {
				So(up, ShouldHaveLength, 1)
				So(up[0].Key, ShouldEqual, "3")
			})
		})
	})
}
