package shell_test

import (
	"errors"
	"testing"

	"github.com/okian/fraudlens/internal/domain/shell"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNext(t *testing.T) {
	Convey("Given the page shell", t, func() {
		Convey("Then a session starts at home", func() {
			So(shell.Initial, ShouldEqual, shell.Home)
		})

		Convey("When navigating along valid edges", func() {
			Convey("Then each action reaches its view", func() {
				v, err := shell.Next(shell.Home, shell.MakePrediction)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, shell.Prediction)

				v, err = shell.Next(v, shell.ReturnHome)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, shell.Home)

				v, err = shell.Next(v, shell.ViewResults)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, shell.Results)

				v, err = shell.Next(v, shell.ReturnHome)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, shell.Home)
			})
		})

		Convey("When an action is not offered on the current view", func() {
			v, err := shell.Next(shell.Prediction, shell.ViewResults)

			Convey("Then it is rejected and the view is unchanged", func() {
				So(errors.Is(err, shell.ErrInvalidTransition), ShouldBeTrue)
				So(v, ShouldEqual, shell.Prediction)
			})
		})

		Convey("When the action is unknown", func() {
			_, err := shell.Next(shell.Home, shell.Action("delete-everything"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, shell.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("Then every offered action is a valid transition", func() {
			for _, v := range []shell.View{shell.Home, shell.Prediction, shell.Results} {
				for _, a := range shell.Actions(v) {
					_, err := shell.Next(v, a)
					So(err, ShouldBeNil)
				}
			}
		})
	})
}

func TestParseView(t *testing.T) {
	Convey("Given view names", t, func() {
		Convey("Then known names parse", func() {
			v, err := shell.ParseView("results")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, shell.Results)
			So(v.Title(), ShouldEqual, "Model Analytics")
		})

		Convey("Then unknown names fail", func() {
			_, err := shell.ParseView("admin")
			So(errors.Is(err, shell.ErrUnknownView), ShouldBeTrue)
		})

		Convey("Then actions have captions", func() {
			So(shell.MakePrediction.Label(), ShouldEqual, "Make Prediction")
			So(shell.ReturnHome.Label(), ShouldEqual, "Return Home")
		})
	})
}
