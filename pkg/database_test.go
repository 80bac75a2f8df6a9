package converter

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCalibrationEntries(t *testing.T) {
	Convey("Given a calibration table", t, func() {
		table := NewCalibrationTable()
		table.Set(2, 5, Params{1, 2, 3, 4})
		table.Set(0, 9, InitialParams)
		table.Set(2, 1, Params{5, 6, 7, 8})

		entries := tableToEntries(table, "run42")

		Convey("Then the rows are tagged and ordered by column and row", func() {
			So(entries, ShouldHaveLength, 3)
			So(entries[0], ShouldResemble, PixelCalibrationEntry{Tag: "run42", Col: 0, Row: 9,
				P0: InitialParams[0], P1: InitialParams[1], P2: InitialParams[2], P3: InitialParams[3]})
			So(entries[1].Col, ShouldEqual, 2)
			So(entries[1].Row, ShouldEqual, 1)
			So(entries[2].Row, ShouldEqual, 5)
		})

		Convey("Then the rows rebuild the same table", func() {
			So(entriesToTable(entries).Equal(table), ShouldBeTrue)
		})
	})
}
