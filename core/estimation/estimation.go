// Package estimation produces updated ability estimates from a growing
// response history. A uniform history (all correct or all incorrect so
// far) carries no information for likelihood-based estimation, so it is
// handled with Dodd's closed-form step; a mixed history is re-estimated
// by minimizing the negative log-likelihood of the responses. Estimates
// are unbounded reals and are never clamped here.
package estimation

import (
	"errors"
	"fmt"

	"github.com/adalundhe/catsim/core/irt"
	"github.com/adalundhe/catsim/core/itembank"
)

// ErrNotConverged reports that likelihood minimization stopped without
// converging. The estimate returned alongside it is the best iterate the
// optimizer produced and remains usable.
var ErrNotConverged = errors.New("ability estimate did not converge")

// Config configures a Reestimator.
type Config struct {
	// Method names the optimization method minimizing the negative
	// log-likelihood. See Methods for the recognized names. Empty means
	// DefaultMethod.
	Method string
}

// Reestimator updates ability estimates against a fixed bank and
// response model.
type Reestimator struct {
	bank   *itembank.Bank
	model  irt.Model
	method string
}

// New builds a Reestimator. An unknown optimization method name is a
// configuration error.
func New(bank *itembank.Bank, model irt.Model, cfg Config) (*Reestimator, error) {
	if bank == nil {
		return nil, errors.New("nil item bank")
	}
	if model == nil {
		return nil, errors.New("nil response model")
	}
	if cfg.Method == "" {
		cfg.Method = DefaultMethod
	}
	if _, ok := methods[cfg.Method]; !ok {
		return nil, fmt.Errorf("unknown optimization method %q", cfg.Method)
	}
	return &Reestimator{bank: bank, model: model, method: cfg.Method}, nil
}

// Uniform reports whether every response in the history matches the
// first one. A single response is uniform, and so is an empty history,
// vacuously.
func Uniform(responses []bool) bool {
	for _, r := range responses {
		if r != responses[0] {
			return false
		}
	}
	return true
}

// Dodd applies Dodd's closed-form update for uniform response histories,
// halving the distance to the relevant difficulty bound: toward bMax
// after a correct response, toward bMin after an incorrect one.
func Dodd(theta, bMin, bMax float64, correct bool) float64 {
	if correct {
		return theta + (bMax-theta)/2
	}
	return theta - (theta-bMin)/2
}

// Reestimate returns an updated ability estimate for the response history
// and the indices of the items administered so far, in administration
// order. Uniform histories step with Dodd's rule using the difficulty
// bounds of the whole bank, not only the administered items; mixed
// histories run the configured likelihood minimization seeded at theta.
// A wrapped ErrNotConverged is recoverable: the returned estimate is the
// best one available.
func (r *Reestimator) Reestimate(theta float64, responses []bool, administered []int) (float64, error) {
	if len(responses) == 0 {
		return theta, errors.New("empty response history")
	}
	if len(responses) != len(administered) {
		return theta, fmt.Errorf("%d responses for %d administered items", len(responses), len(administered))
	}

	if Uniform(responses) {
		bMin, bMax := r.bank.DifficultyBounds()
		return Dodd(theta, bMin, bMax, responses[len(responses)-1]), nil
	}

	return r.minimize(theta, responses, r.bank.Items(administered))
}
