package converter

import "math"

const (
	bisectionTolerance     = 1e-9
	bisectionMaxIterations = 200
)

// ChargeResolver turns a raw ADC value of a pixel into a calibrated charge (VCal).
type ChargeResolver interface {
	Resolve(col, row int, adc float64) (float64, error)
}

// Resolver inverts the per-pixel response curve over [Min, Max].
type Resolver struct {
	Table *CalibrationTable
	Min   float64
	Max   float64
}

func NewResolver(table *CalibrationTable, min, max float64) *Resolver {
	return &Resolver{Table: table, Min: min, Max: max}
}

// Resolve returns x in [Min, Max] with f(x) == adc. When adc lies outside the
// curve's range over the domain, the domain edge with the smaller residual is
// returned (the lower edge on a tie).
func (r *Resolver) Resolve(col, row int, adc float64) (float64, error) {
	params, ok := r.Table.Lookup(col, row)
	if !ok {
		return 0, &MissingCalibrationError{Col: col, Row: row}
	}
	return InvertResponse(params, adc, r.Min, r.Max), nil
}

// InvertResponse solves params.Eval(x) == y for x by bisection on [lo, hi].
func InvertResponse(params Params, y, lo, hi float64) float64 {
	gLo := params.Eval(lo) - y
	gHi := params.Eval(hi) - y
	if gLo == 0 {
		return lo
	}
	if gHi == 0 {
		return hi
	}
	if math.Signbit(gLo) == math.Signbit(gHi) || math.IsNaN(gLo) || math.IsNaN(gHi) {
		if math.Abs(gHi) < math.Abs(gLo) {
			return hi
		}
		return lo
	}

	for i := 0; i < bisectionMaxIterations && hi-lo > bisectionTolerance; i++ {
		mid := lo + (hi-lo)/2
		gMid := params.Eval(mid) - y
		if gMid == 0 {
			return mid
		}
		if math.Signbit(gMid) == math.Signbit(gLo) {
			lo, gLo = mid, gMid
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2
}
