// Package irt implements the item response theory model used by the
// simulator: the three-parameter logistic response function, its Fisher
// information, and the negative log-likelihood minimized during ability
// estimation. The Model interface lets alternative response models be
// plugged into the selection and estimation layers.
package irt

import "math"

// Item holds the parameter triple of a single test item.
type Item struct {
	// Discrimination steers how sharply response probability changes
	// around the item's difficulty. Must be positive.
	Discrimination float64

	// Difficulty is the ability level at which the item is answered
	// correctly with probability halfway between guessing and one.
	Difficulty float64

	// Guessing is the probability floor for examinees far below the
	// item's difficulty. Must lie in [0, 1].
	Guessing float64
}

// Model is the contract the simulator requires from a response model.
// All three functions are pure; abilities are unbounded reals.
type Model interface {
	// ProbCorrect returns the probability in [0, 1] that an examinee
	// with the given ability answers the item correctly.
	ProbCorrect(theta float64, item Item) float64

	// Information returns the Fisher information the item carries at
	// the given ability. Never negative.
	Information(theta float64, item Item) float64

	// NegLogLikelihood returns the negative log-likelihood of the
	// response vector given the administered items' parameters.
	// responses and items must have equal length.
	NegLogLikelihood(theta float64, responses []bool, items []Item) float64
}

// probClamp bounds probabilities away from 0 and 1 before taking logs,
// keeping the likelihood finite for the optimizer.
const probClamp = 1e-7

// ThreeParamLogistic is the standard 3PL response model.
type ThreeParamLogistic struct{}

var _ Model = ThreeParamLogistic{}

// ProbCorrect computes c + (1-c) / (1 + e^(-a(theta-b))).
func (ThreeParamLogistic) ProbCorrect(theta float64, item Item) float64 {
	return item.Guessing + (1-item.Guessing)/(1+math.Exp(-item.Discrimination*(theta-item.Difficulty)))
}

// Information computes the 3PL Fisher information
//
//	I(theta) = a² · ((P-c)² / (1-c)²) · (1-P) / P
//
// Returns 0 in the deep tail where P underflows to 0, and for the
// degenerate c = 1 item, instead of producing NaN.
func (m ThreeParamLogistic) Information(theta float64, item Item) float64 {
	p := m.ProbCorrect(theta, item)
	if p <= 0 || item.Guessing >= 1 {
		return 0
	}
	a := item.Discrimination
	c := item.Guessing
	return a * a * ((p - c) * (p - c) / ((1 - c) * (1 - c))) * (1 - p) / p
}

// NegLogLikelihood sums -[x·ln(P) + (1-x)·ln(1-P)] over the response
// vector. Probabilities are clamped to [probClamp, 1-probClamp] so the
// result stays finite at extreme abilities.
func (m ThreeParamLogistic) NegLogLikelihood(theta float64, responses []bool, items []Item) float64 {
	var ll float64
	for i, item := range items {
		p := m.ProbCorrect(theta, item)
		p = math.Max(probClamp, math.Min(p, 1-probClamp))
		if responses[i] {
			ll += math.Log(p)
		} else {
			ll += math.Log(1 - p)
		}
	}
	return -ll
}
