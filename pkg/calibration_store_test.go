package converter

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

// syntheticSource writes a calibration source whose pixels follow slightly
// different response curves. The last pixel never responds.
func syntheticSource(nPixels int) string {
	var low, high []int
	for v := 25; v <= 250; v += 25 {
		low = append(low, v)
	}
	for v := 50; v <= 250; v += 50 {
		high = append(high, v)
	}
	charges := make([]float64, 0, len(low)+len(high))
	for _, v := range low {
		charges = append(charges, float64(v))
	}
	for _, v := range high {
		charges = append(charges, float64(v*HighRangeFactor))
	}

	var b strings.Builder
	b.WriteString("Pulse height calibration\n")
	fmt.Fprintf(&b, "Low range: %s\n", strings.Trim(fmt.Sprint(low), "[]"))
	fmt.Fprintf(&b, "High range: %s\n", strings.Trim(fmt.Sprint(high), "[]"))
	b.WriteString("\n")
	for n := 0; n < nPixels; n++ {
		truth := Params{250 + 10*float64(n), 110 + 2*float64(n), 1.0, 38 + float64(n)}
		for _, x := range charges {
			adc := 0
			if n < nPixels-1 {
				adc = int(truth.Eval(x) + 0.5)
			}
			fmt.Fprintf(&b, "%4d ", adc)
		}
		fmt.Fprintf(&b, "   Pix %d %d\n", n%NCols, n/NCols)
	}
	return b.String()
}

func countingSource(text string, opened *int) SourceOpener {
	return func() (io.ReadCloser, error) {
		*opened++
		return io.NopCloser(strings.NewReader(text)), nil
	}
}

func failingSource() (io.ReadCloser, error) {
	return nil, errors.New("calibration source is not readable")
}

func TestLoadOrBuild(t *testing.T) {
	Convey("Given an empty cache and a calibration source", t, func() {
		const nPixels = 6
		text := syntheticSource(nPixels)
		cache := NewMemoryCache()
		opened := 0
		opts := StoreOptions{Fit: DefaultFitOptions(), NumWorkers: 2}

		table, err := LoadOrBuild(cache, countingSource(text, &opened), opts)

		Convey("Then every pixel is fitted and the table saved once", func() {
			So(err, ShouldBeNil)
			So(opened, ShouldEqual, 1)
			So(table.Len(), ShouldEqual, nPixels)
			So(cache.Saves, ShouldEqual, 1)
		})

		Convey("Then a pixel without response keeps the initial parameters", func() {
			p, ok := table.Lookup((nPixels-1)%NCols, (nPixels-1)/NCols)
			So(ok, ShouldBeTrue)
			So(p, ShouldResemble, InitialParams)
		})

		Convey("When the table is loaded again", func() {
			reloaded, err := LoadOrBuild(cache, failingSource, opts)

			Convey("Then the cached table is returned without reading the source", func() {
				So(err, ShouldBeNil)
				So(reloaded.Equal(table), ShouldBeTrue)
				So(cache.Saves, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a cache holding a table from another source", t, func() {
		stale := NewCalibrationTable()
		stale.Set(1, 2, Params{1, 2, 3, 4})
		cache := NewMemoryCache()
		So(cache.Save(stale), ShouldBeNil)
		opened := 0

		table, err := LoadOrBuild(cache, countingSource(syntheticSource(3), &opened), StoreOptions{Fit: DefaultFitOptions()})

		Convey("Then the cached table is reused as is", func() {
			So(err, ShouldBeNil)
			So(opened, ShouldEqual, 0)
			So(table.Equal(stale), ShouldBeTrue)
		})
	})

	Convey("Given a malformed calibration source", t, func() {
		cache := NewMemoryCache()
		opened := 0

		_, err := LoadOrBuild(cache, countingSource("title\nno header here\n", &opened), StoreOptions{Fit: DefaultFitOptions()})

		Convey("Then the error is fatal and nothing is saved", func() {
			var sourceErr *CalibrationSourceError
			So(errors.As(err, &sourceErr), ShouldBeTrue)
			So(cache.Saves, ShouldEqual, 0)
		})
	})

	Convey("Given a source that cannot be opened", t, func() {
		_, err := LoadOrBuild(NewMemoryCache(), FileSource("/nonexistent/phCalibration_C0.dat"), StoreOptions{Fit: DefaultFitOptions()})

		Convey("Then the open error is returned", func() {
			var openErr *ErrOpenFile
			So(errors.As(err, &openErr), ShouldBeTrue)
		})
	})
}

func TestBuildCalibration(t *testing.T) {
	Convey("Given a parsed calibration source", t, func() {
		const nPixels = 8
		source, err := ParseCalibrationSource(strings.NewReader(syntheticSource(nPixels)))
		So(err, ShouldBeNil)

		Convey("When fitted with one and with four workers", func() {
			serial := BuildCalibration(source, StoreOptions{Fit: DefaultFitOptions(), NumWorkers: 1})
			parallel := BuildCalibration(source, StoreOptions{Fit: DefaultFitOptions(), NumWorkers: 4})

			Convey("Then the tables are identical", func() {
				So(serial.Len(), ShouldEqual, nPixels)
				So(parallel.Equal(serial), ShouldBeTrue)
			})
		})

		Convey("When fit metrics are collected", func() {
			metrics := NewMetrics(prometheus.NewRegistry())
			BuildCalibration(source, StoreOptions{Fit: DefaultFitOptions(), NumWorkers: 3, Metrics: metrics})

			Convey("Then every pixel and the failed one are counted", func() {
				So(testutil.ToFloat64(metrics.PixelFits), ShouldEqual, nPixels)
				So(testutil.ToFloat64(metrics.PixelFitErrors), ShouldEqual, 1)
			})
		})
	})
}
