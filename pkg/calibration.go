package converter

import (
	"math"
	"sort"

	"golang.org/x/exp/maps"
)

// ROC geometry
const (
	NCols = 52
	NRows = 80
)

const (
	FitDomainMin = 0.
	FitDomainMax = 3000.
	// High range injections are 7 times the low range DAC step
	HighRangeFactor = 7
)

// Starting point of every pixel fit
var InitialParams = Params{309.2062, 112.8961, 1.022439, 35.89524}

type Pixel struct {
	Col int
	Row int
}

// Params holds p0..p3 of f(x) = p3 * (erf((x - p0) / p1) + p2), mapping
// injected charge x (VCal) to the expected ADC response.
type Params [4]float64

func (p Params) Eval(x float64) float64 {
	return p[3] * (math.Erf((x-p[0])/p[1]) + p[2])
}

type CalibrationTable struct {
	entries map[Pixel]Params
}

func NewCalibrationTable() *CalibrationTable {
	return &CalibrationTable{entries: make(map[Pixel]Params)}
}

func (t *CalibrationTable) Set(col, row int, p Params) {
	t.entries[Pixel{Col: col, Row: row}] = p
}

func (t *CalibrationTable) Lookup(col, row int) (Params, bool) {
	p, ok := t.entries[Pixel{Col: col, Row: row}]
	return p, ok
}

func (t *CalibrationTable) Len() int {
	return len(t.entries)
}

// Pixels returns the calibrated pixels ordered by column, then row.
func (t *CalibrationTable) Pixels() []Pixel {
	pixels := maps.Keys(t.entries)
	sort.Slice(pixels, func(i, j int) bool {
		if pixels[i].Col != pixels[j].Col {
			return pixels[i].Col < pixels[j].Col
		}
		return pixels[i].Row < pixels[j].Row
	})
	return pixels
}

func (t *CalibrationTable) Equal(other *CalibrationTable) bool {
	if t.Len() != other.Len() {
		return false
	}
	for pixel, params := range t.entries {
		if otherParams, ok := other.entries[pixel]; !ok || otherParams != params {
			return false
		}
	}
	return true
}
