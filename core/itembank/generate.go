package itembank

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/adalundhe/catsim/core/cluster"
	"github.com/adalundhe/catsim/core/irt"
	"gonum.org/v1/gonum/stat/distuv"
)

// Parameter distributions for synthetic banks: discriminations
// concentrate a little above 1, difficulties follow the ability scale and
// guessing stays below chance level for a four-option item.
const (
	discriminationMean   = 1.2
	discriminationStddev = 0.25
	guessingMax          = 0.25
)

// Generate synthesizes a bank of n items grouped into k clusters.
// Discriminations are drawn from N(1.2, 0.25²) redrawn until positive,
// difficulties from N(0, 1) and guessing from U(0, 0.25). Clusters come
// from a k-means partition of the parameter triples, so items in one
// cluster are plausible substitutes for each other. Seed 0 derives a seed
// from the current time.
func Generate(n, k int, seed int64) (*Bank, error) {
	if n <= 0 {
		return nil, fmt.Errorf("bank size must be positive, got %d", n)
	}
	if k <= 0 {
		return nil, fmt.Errorf("cluster count must be positive, got %d", k)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	src := rand.NewPCG(uint64(seed), uint64(n))
	discrimination := distuv.Normal{Mu: discriminationMean, Sigma: discriminationStddev, Src: src}
	difficulty := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	guessing := distuv.Uniform{Min: 0, Max: guessingMax, Src: src}

	items := make([]irt.Item, n)
	for i := range items {
		a := discrimination.Rand()
		for a <= 0 {
			a = discrimination.Rand()
		}
		items[i] = irt.Item{
			Discrimination: a,
			Difficulty:     difficulty.Rand(),
			Guessing:       guessing.Rand(),
		}
	}

	assignments, err := cluster.Items(items, k, seed)
	if err != nil {
		return nil, fmt.Errorf("cluster synthetic bank: %w", err)
	}

	return New(items, assignments)
}
