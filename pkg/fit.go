package converter

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type FitOptions struct {
	Initial       Params
	Min           float64
	Max           float64
	MaxIterations int
	Tolerance     float64
}

func DefaultFitOptions() FitOptions {
	return FitOptions{
		Initial:       InitialParams,
		Min:           FitDomainMin,
		Max:           FitDomainMax,
		MaxIterations: 500,
		Tolerance:     1e-12,
	}
}

const nParams = 4

// FitResponse fits the response curve to the (charge, ADC) points of one pixel
// with Levenberg-Marquardt least squares, all points weighted equally.
// Points with zero ADC or a charge outside [Min, Max) are ignored.
func FitResponse(x, y []float64, opts FitOptions) (Params, error) {
	if len(x) != len(y) {
		return opts.Initial, fmt.Errorf("fit: %d charges for %d ADC values", len(x), len(y))
	}
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if y[i] == 0 || x[i] < opts.Min || x[i] >= opts.Max {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < nParams {
		return opts.Initial, ErrTooFewPoints
	}

	params := opts.Initial
	residuals := make([]float64, len(xs))
	chi2 := chiSquare(params, xs, ys, residuals)
	if math.IsNaN(chi2) || math.IsInf(chi2, 0) {
		return opts.Initial, fmt.Errorf("fit: initial parameters give non-finite chi2")
	}

	lambda := 1e-3
	jacobian := mat.NewDense(len(xs), nParams, nil)
	trial := make([]float64, len(xs))
	for iter := 0; iter < opts.MaxIterations; iter++ {
		chiSquare(params, xs, ys, residuals)
		fillJacobian(jacobian, params, xs)

		var jtj mat.Dense
		jtj.Mul(jacobian.T(), jacobian)
		var gradient mat.VecDense
		gradient.MulVec(jacobian.T(), mat.NewVecDense(len(residuals), residuals))

		improved := false
		var newChi2 float64
		var candidate Params
		for attempt := 0; attempt < 20; attempt++ {
			damped := mat.DenseCopyOf(&jtj)
			for i := 0; i < nParams; i++ {
				d := jtj.At(i, i)
				if d == 0 {
					d = 1
				}
				damped.Set(i, i, d*(1+lambda))
			}
			var step mat.VecDense
			if err := step.SolveVec(damped, &gradient); err != nil {
				lambda *= 10
				continue
			}
			for i := 0; i < nParams; i++ {
				candidate[i] = params[i] - step.AtVec(i)
			}
			if candidate[1] == 0 {
				lambda *= 10
				continue
			}
			newChi2 = chiSquare(candidate, xs, ys, trial)
			if !math.IsNaN(newChi2) && newChi2 < chi2 {
				improved = true
				break
			}
			lambda *= 10
		}
		if !improved {
			break
		}

		decrease := chi2 - newChi2
		params = candidate
		chi2 = newChi2
		lambda = math.Max(lambda/10, 1e-12)
		if decrease <= opts.Tolerance*math.Max(chi2, 1) {
			break
		}
	}

	for _, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return opts.Initial, fmt.Errorf("fit: diverged to %v", params)
		}
	}
	return params, nil
}

func chiSquare(p Params, xs, ys, residuals []float64) float64 {
	for i, x := range xs {
		residuals[i] = p.Eval(x) - ys[i]
	}
	return floats.Dot(residuals, residuals)
}

// fillJacobian sets row i to the partial derivatives of f(xs[i]) with respect to p0..p3.
func fillJacobian(j *mat.Dense, p Params, xs []float64) {
	for i, x := range xs {
		u := (x - p[0]) / p[1]
		gauss := 2 / math.SqrtPi * math.Exp(-u*u)
		j.Set(i, 0, -p[3]*gauss/p[1])
		j.Set(i, 1, -p[3]*gauss*u/p[1])
		j.Set(i, 2, p[3])
		j.Set(i, 3, math.Erf(u)+p[2])
	}
}
