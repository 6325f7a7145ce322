package mesh

import "fmt"

// FunctionBase scales a load with simulation time.
type FunctionBase interface {
	Value(t float64) float64
}

// LinearFunction interpolates piecewise-linearly between (x, fx) samples,
// clamping outside the sample range.
type LinearFunction struct {
	xs  []float64
	fxs []float64
}

// NewLinearFunction builds a linear function from ascending x samples.
func NewLinearFunction(xs, fxs []float64) (*LinearFunction, error) {
	if len(xs) < 2 || len(xs) != len(fxs) {
		return nil, fmt.Errorf("mesh: linear function needs matching x/fx samples, got %d/%d",
			len(xs), len(fxs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("mesh: linear function x samples must ascend")
		}
	}
	return &LinearFunction{
		xs:  append([]float64(nil), xs...),
		fxs: append([]float64(nil), fxs...),
	}, nil
}

func (f *LinearFunction) Value(t float64) float64 {
	if t <= f.xs[0] {
		return f.fxs[0]
	}
	last := len(f.xs) - 1
	if t >= f.xs[last] {
		return f.fxs[last]
	}
	for i := 1; i <= last; i++ {
		if t <= f.xs[i] {
			w := (t - f.xs[i-1]) / (f.xs[i] - f.xs[i-1])
			return f.fxs[i-1] + w*(f.fxs[i]-f.fxs[i-1])
		}
	}
	return f.fxs[last]
}
