package estimation

import (
	"fmt"
	"math"
	"sort"

	"github.com/adalundhe/catsim/core/irt"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// DefaultMethod is the optimization method used when none is configured.
const DefaultMethod = "BFGS"

// methods maps configurable names to optimizer constructors. A fresh
// method value is built per minimization because gonum methods carry
// per-run state.
var methods = map[string]func() optimize.Method{
	"BFGS":            func() optimize.Method { return &optimize.BFGS{} },
	"LBFGS":           func() optimize.Method { return &optimize.LBFGS{} },
	"CG":              func() optimize.Method { return &optimize.CG{} },
	"GradientDescent": func() optimize.Method { return &optimize.GradientDescent{} },
	"NelderMead":      func() optimize.Method { return &optimize.NelderMead{} },
}

// Methods lists the recognized optimization method names.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// minimize runs the likelihood minimization seeded at the current
// estimate. The gradient is approximated by finite differences. On
// optimizer failure the best available iterate is returned, falling back
// to the seed estimate, together with ErrNotConverged.
func (r *Reestimator) minimize(theta float64, responses []bool, items []irt.Item) (float64, error) {
	objective := func(x []float64) float64 {
		return r.model.NegLogLikelihood(x[0], responses, items)
	}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, objective, x, nil)
		},
	}

	result, err := optimize.Minimize(problem, []float64{theta}, nil, methods[r.method]())
	if err != nil {
		best := theta
		if result != nil && len(result.X) == 1 && !math.IsNaN(result.X[0]) && !math.IsInf(result.X[0], 0) {
			best = result.X[0]
		}
		return best, fmt.Errorf("%w: %v", ErrNotConverged, err)
	}

	return result.X[0], nil
}
