package converter

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func responsePoints(p Params, from, to, step float64) ([]float64, []float64) {
	var x, y []float64
	for v := from; v <= to; v += step {
		x = append(x, v)
		y = append(y, p.Eval(v))
	}
	return x, y
}

func TestFitResponse(t *testing.T) {
	Convey("Given points sampled from a known response", t, func() {
		truth := Params{280, 120, 1.0, 40}
		x, y := responsePoints(truth, 25, 1800, 25)
		opts := DefaultFitOptions()

		Convey("When the curve is fitted", func() {
			params, err := FitResponse(x, y, opts)

			Convey("Then the parameters are recovered", func() {
				So(err, ShouldBeNil)
				So(params[0], ShouldAlmostEqual, truth[0], 0.5)
				So(params[1], ShouldAlmostEqual, truth[1], 0.5)
				So(params[2], ShouldAlmostEqual, truth[2], 0.01)
				So(params[3], ShouldAlmostEqual, truth[3], 0.1)
				for i := range x {
					So(params.Eval(x[i]), ShouldAlmostEqual, y[i], 0.05)
				}
			})
		})

		Convey("When zero ADC values and out of range charges are added", func() {
			reference, err := FitResponse(x, y, opts)
			So(err, ShouldBeNil)

			noisyX := append([]float64{10, 20, -5}, x...)
			noisyY := append([]float64{0, 0, 3}, y...)
			noisyX = append(noisyX, 3000, 4500)
			noisyY = append(noisyY, 1, 2)
			params, err := FitResponse(noisyX, noisyY, opts)

			Convey("Then they do not change the fit", func() {
				So(err, ShouldBeNil)
				So(params, ShouldResemble, reference)
			})
		})
	})

	Convey("Given fewer usable points than parameters", t, func() {
		opts := DefaultFitOptions()
		params, err := FitResponse([]float64{50, 100, 150, 200, 250}, []float64{10, 20, 30, 0, 0}, opts)

		Convey("Then the initial parameters are returned", func() {
			So(errors.Is(err, ErrTooFewPoints), ShouldBeTrue)
			So(params, ShouldResemble, InitialParams)
		})
	})

	Convey("Given charges and ADC values of different length", t, func() {
		params, err := FitResponse([]float64{1, 2, 3}, []float64{1, 2}, DefaultFitOptions())

		Convey("Then the fit is refused", func() {
			So(err, ShouldNotBeNil)
			So(params, ShouldResemble, InitialParams)
		})
	})

	Convey("Given a pixel that never responds", t, func() {
		x, _ := responsePoints(InitialParams, 25, 1800, 25)
		y := make([]float64, len(x))
		params, err := FitResponse(x, y, DefaultFitOptions())

		Convey("Then there is nothing to fit", func() {
			So(errors.Is(err, ErrTooFewPoints), ShouldBeTrue)
			So(math.IsNaN(params[0]), ShouldBeFalse)
		})
	})
}
