// Package cluster partitions item banks into groups of interchangeable
// items. Exposure control treats items in one cluster as substitutes for
// each other, so the partition is computed over the raw parameter triples
// (discrimination, difficulty, guessing).
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/adalundhe/catsim/core/irt"
)

// =============================================================================
// K-means over item parameter vectors
// =============================================================================
//
// Plain Lloyd iterations with k-means++ seeding, best-of-N restarts and
// convergence detection on the relative objective improvement. Item vectors
// are three-dimensional, so distances are computed directly rather than
// through a vectorized backend. Empty clusters are reseeded from the point
// farthest from its assigned centroid, and the final assignment is repaired
// the same way so every returned cluster is non-empty.

// Config configures the k-means partition.
type Config struct {
	// K is the number of clusters to produce.
	K int

	// MaxIterations is the safety limit per restart; convergence
	// detection is the intended stopping rule.
	MaxIterations int

	// NumRestarts is the number of random restarts. The assignment with
	// the lowest objective is kept.
	NumRestarts int

	// ConvergenceThreshold is the relative objective improvement below
	// which a restart stops iterating.
	ConvergenceThreshold float64

	// Seed for reproducible partitions. 0 = use current time.
	Seed int64
}

// DeriveConfig returns a configuration derived from the cluster count:
// more clusters mean more local minima, so restarts scale with log2(k).
func DeriveConfig(k int) Config {
	numRestarts := 1
	if k > 1 {
		numRestarts = int(math.Ceil(math.Log2(float64(k))))
	}

	return Config{
		K:                    k,
		MaxIterations:        math.MaxInt32,
		NumRestarts:          numRestarts,
		ConvergenceThreshold: 1000 * 2.220446049250313e-16,
		Seed:                 0,
	}
}

// ErrTooFewPoints is returned when fewer points than clusters are given.
var ErrTooFewPoints = errors.New("fewer points than clusters")

// state holds all buffers for a single k-means run. Points are stored
// row-major and reused across restarts.
type state struct {
	n, k, dim int

	points       []float64 // [n × dim]
	centroids    []float64 // [k × dim]
	newCentroids []float64 // [k × dim]

	assignments []int
	counts      []int

	objective float64
}

func newState(points [][]float64, k int) *state {
	n := len(points)
	dim := len(points[0])

	s := &state{
		n:            n,
		k:            k,
		dim:          dim,
		points:       make([]float64, n*dim),
		centroids:    make([]float64, k*dim),
		newCentroids: make([]float64, k*dim),
		assignments:  make([]int, n),
		counts:       make([]int, k),
	}

	for i, p := range points {
		copy(s.points[i*dim:(i+1)*dim], p)
	}

	return s
}

func (s *state) reset() {
	for i := range s.centroids {
		s.centroids[i] = 0
		s.newCentroids[i] = 0
	}
	for i := range s.assignments {
		s.assignments[i] = 0
	}
	for i := range s.counts {
		s.counts[i] = 0
	}
	s.objective = 0
}

// squared returns the squared distance between point i and centroid j.
func (s *state) squared(i, j int) float64 {
	var sum float64
	p := s.points[i*s.dim : (i+1)*s.dim]
	c := s.centroids[j*s.dim : (j+1)*s.dim]
	for d := range p {
		diff := p[d] - c[d]
		sum += diff * diff
	}
	return sum
}

// initPlusPlus seeds centroids with k-means++: the first at random, each
// further one sampled proportionally to the squared distance from the
// nearest already-chosen centroid.
func (s *state) initPlusPlus(rng *rand.Rand) {
	firstIdx := rng.IntN(s.n)
	copy(s.centroids[0:s.dim], s.points[firstIdx*s.dim:(firstIdx+1)*s.dim])

	distances := make([]float64, s.n)
	for i := range distances {
		distances[i] = math.MaxFloat64
	}

	for c := 1; c < s.k; c++ {
		var totalDist float64
		for i := 0; i < s.n; i++ {
			dist := s.squared(i, c-1)
			if dist < distances[i] {
				distances[i] = dist
			}
			totalDist += distances[i]
		}

		// Degenerate case: every point coincides with a centroid.
		if totalDist == 0 {
			idx := rng.IntN(s.n)
			copy(s.centroids[c*s.dim:(c+1)*s.dim], s.points[idx*s.dim:(idx+1)*s.dim])
			continue
		}

		target := rng.Float64() * totalDist
		var cumulative float64
		selected := s.n - 1
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				selected = i
				break
			}
		}
		copy(s.centroids[c*s.dim:(c+1)*s.dim], s.points[selected*s.dim:(selected+1)*s.dim])
	}
}

// assign moves every point to its nearest centroid and returns the total
// objective (sum of squared distances).
func (s *state) assign() float64 {
	for j := range s.counts {
		s.counts[j] = 0
	}

	var total float64
	for i := 0; i < s.n; i++ {
		minDist := math.MaxFloat64
		minJ := 0
		for j := 0; j < s.k; j++ {
			if dist := s.squared(i, j); dist < minDist {
				minDist = dist
				minJ = j
			}
		}
		s.assignments[i] = minJ
		s.counts[minJ]++
		total += minDist
	}

	s.objective = total
	return total
}

// update recomputes centroids as cluster means.
func (s *state) update() {
	for i := range s.newCentroids {
		s.newCentroids[i] = 0
	}

	for i := 0; i < s.n; i++ {
		cluster := s.assignments[i]
		for d := 0; d < s.dim; d++ {
			s.newCentroids[cluster*s.dim+d] += s.points[i*s.dim+d]
		}
	}

	for j := 0; j < s.k; j++ {
		if s.counts[j] == 0 {
			continue
		}
		scale := 1.0 / float64(s.counts[j])
		for d := 0; d < s.dim; d++ {
			s.newCentroids[j*s.dim+d] *= scale
		}
	}

	s.centroids, s.newCentroids = s.newCentroids, s.centroids
}

// reinitializeEmpty reseeds any empty cluster from the point farthest
// from its assigned centroid.
func (s *state) reinitializeEmpty(rng *rand.Rand) {
	for j := 0; j < s.k; j++ {
		if s.counts[j] != 0 {
			continue
		}

		maxDist := float64(-1)
		maxIdx := -1
		for i := 0; i < s.n; i++ {
			if dist := s.squared(i, s.assignments[i]); dist > maxDist {
				maxDist = dist
				maxIdx = i
			}
		}

		if maxIdx >= 0 {
			copy(s.centroids[j*s.dim:(j+1)*s.dim], s.points[maxIdx*s.dim:(maxIdx+1)*s.dim])
		} else {
			idx := rng.IntN(s.n)
			copy(s.centroids[j*s.dim:(j+1)*s.dim], s.points[idx*s.dim:(idx+1)*s.dim])
		}
	}
}

// run executes one restart and returns its final objective.
func (s *state) run(cfg Config, rng *rand.Rand) float64 {
	s.initPlusPlus(rng)

	prevObjective := math.MaxFloat64
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		objective := s.assign()

		if math.IsInf(objective, 0) || math.IsNaN(objective) {
			return math.Inf(1)
		}

		if prevObjective < math.MaxFloat64 {
			improvement := (prevObjective - objective) / math.Max(objective, math.SmallestNonzeroFloat64)
			if improvement >= 0 && improvement < cfg.ConvergenceThreshold {
				return objective
			}
		}
		prevObjective = objective

		s.update()
		s.reinitializeEmpty(rng)
	}

	return s.objective
}

// fixEmpty guarantees every cluster owns at least one point by moving the
// farthest point out of a multi-member cluster into each empty one.
func (s *state) fixEmpty() {
	for j := 0; j < s.k; j++ {
		if s.counts[j] != 0 {
			continue
		}

		maxDist := float64(-1)
		maxIdx := -1
		for i := 0; i < s.n; i++ {
			if s.counts[s.assignments[i]] < 2 {
				continue
			}
			if dist := s.squared(i, s.assignments[i]); dist > maxDist {
				maxDist = dist
				maxIdx = i
			}
		}
		if maxIdx < 0 {
			continue
		}

		s.counts[s.assignments[maxIdx]]--
		s.assignments[maxIdx] = j
		s.counts[j]++
	}
}

// Partition groups points into cfg.K clusters and returns one cluster id
// per point. Every returned cluster is non-empty. The points must all
// share one dimensionality and there must be at least K of them.
func Partition(points [][]float64, cfg Config) ([]int, error) {
	if len(points) == 0 {
		return nil, errors.New("no points to partition")
	}
	if cfg.K <= 0 {
		return nil, fmt.Errorf("cluster count must be positive, got %d", cfg.K)
	}
	if len(points) < cfg.K {
		return nil, fmt.Errorf("%w: %d points for %d clusters", ErrTooFewPoints, len(points), cfg.K)
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("point %d has dimension %d, expected %d", i, len(p), dim)
		}
	}

	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = math.MaxInt32
	}
	if cfg.NumRestarts <= 0 {
		cfg.NumRestarts = DeriveConfig(cfg.K).NumRestarts
	}
	if cfg.ConvergenceThreshold <= 0 {
		cfg.ConvergenceThreshold = DeriveConfig(cfg.K).ConvergenceThreshold
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := newState(points, cfg.K)

	best := make([]int, s.n)
	bestCounts := make([]int, s.k)
	bestCentroids := make([]float64, s.k*s.dim)
	bestObjective := math.MaxFloat64

	for restart := 0; restart < cfg.NumRestarts; restart++ {
		s.reset()

		rng := rand.New(rand.NewPCG(uint64(seed), uint64(restart)))
		objective := s.run(cfg, rng)

		if objective < bestObjective {
			bestObjective = objective
			copy(best, s.assignments)
			copy(bestCounts, s.counts)
			copy(bestCentroids, s.centroids)
		}
	}

	copy(s.assignments, best)
	copy(s.counts, bestCounts)
	copy(s.centroids, bestCentroids)
	s.fixEmpty()

	out := make([]int, s.n)
	copy(out, s.assignments)
	return out, nil
}

// Items partitions a bank's items into k clusters over their parameter
// triples. Convenience wrapper around Partition with a derived config.
func Items(items []irt.Item, k int, seed int64) ([]int, error) {
	points := make([][]float64, len(items))
	for i, item := range items {
		points[i] = []float64{item.Discrimination, item.Difficulty, item.Guessing}
	}

	cfg := DeriveConfig(k)
	cfg.Seed = seed
	return Partition(points, cfg)
}
