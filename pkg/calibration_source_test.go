package converter

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const sampleSource = `Pulse height calibration
Low range:  50 100 150 200
High range: 30 60
#
  10  20  30  40  50  60    Pix 0 0

  11  21  31  41  51  61    Pix 51 79
`

func TestParseCalibrationSource(t *testing.T) {
	Convey("Given a well formed calibration source", t, func() {
		source, err := ParseCalibrationSource(strings.NewReader(sampleSource))

		Convey("Then high range charges are scaled", func() {
			So(err, ShouldBeNil)
			So(source.Charges, ShouldResemble, []float64{50, 100, 150, 200, 210, 420})
		})

		Convey("Then every pixel line is read in file order", func() {
			So(source.Pixels, ShouldHaveLength, 2)
			So(source.Pixels[0].Pixel, ShouldResemble, Pixel{Col: 0, Row: 0})
			So(source.Pixels[0].ADC, ShouldResemble, []float64{10, 20, 30, 40, 50, 60})
			So(source.Pixels[1].Pixel, ShouldResemble, Pixel{Col: 51, Row: 79})
		})
	})

	Convey("Given malformed calibration sources", t, func() {
		header := "title\nLow range: 50 100\nHigh range: 30\n#\n"
		cases := []struct {
			name string
			text string
			line int
		}{
			{"an empty file", "", 0},
			{"a missing high range header", "title\nLow range: 50 100\n", 2},
			{"a header without colon", "title\nLow range 50 100\nHigh range: 30\n", 2},
			{"a non numeric charge", "title\nLow range: 50 abc\nHigh range: 30\n", 2},
			{"a line without pixel marker", header + "1 2 3 0 0\n", 5},
			{"a pixel outside the ROC", header + "1 2 3 Pix 52 0\n", 5},
			{"a pixel with one coordinate", header + "1 2 3 Pix 5\n", 5},
			{"a pixel with too few values", header + "1 2 3 Pix 0 0\n1 2 Pix 0 1\n", 6},
			{"a non numeric ADC value", header + "1 x 3 Pix 0 0\n", 5},
			{"a duplicated pixel", header + "1 2 3 Pix 4 4\n4 5 6 Pix 4 4\n", 6},
		}

		for _, c := range cases {
			Convey("When the source has "+c.name, func() {
				_, err := ParseCalibrationSource(strings.NewReader(c.text))

				Convey("Then a source error reports the line", func() {
					var sourceErr *CalibrationSourceError
					So(errors.As(err, &sourceErr), ShouldBeTrue)
					So(sourceErr.Line, ShouldEqual, c.line)
				})
			})
		}
	})
}
