// Package itembank defines the item bank the simulator draws from: an
// ordered, indexed collection of item parameters plus the parallel cluster
// assignment used for exposure-control substitution. An item's index is
// its identity for the whole run.
package itembank

import (
	"errors"
	"fmt"

	"github.com/adalundhe/catsim/core/irt"
)

// Bank is an immutable item collection. Administration counts are not
// part of the bank; they are tracked by the selection layer and scoped to
// one exposure-cap pass.
type Bank struct {
	items    []irt.Item
	clusters []int

	bMin, bMax float64
	rosters    map[int][]int
}

// New validates the item parameters and cluster assignment and builds a
// bank. The cluster map must be exactly one id per item, discriminations
// must be positive and guessing parameters must lie in [0, 1].
func New(items []irt.Item, clusters []int) (*Bank, error) {
	if len(items) == 0 {
		return nil, errors.New("empty item bank")
	}
	if len(items) != len(clusters) {
		return nil, fmt.Errorf("cluster map length %d does not match bank size %d", len(clusters), len(items))
	}

	b := &Bank{
		items:    make([]irt.Item, len(items)),
		clusters: make([]int, len(clusters)),
		rosters:  make(map[int][]int),
	}
	copy(b.items, items)
	copy(b.clusters, clusters)

	b.bMin = items[0].Difficulty
	b.bMax = items[0].Difficulty
	for i, item := range b.items {
		if item.Discrimination <= 0 {
			return nil, fmt.Errorf("item %d: discrimination must be positive, got %g", i, item.Discrimination)
		}
		if item.Guessing < 0 || item.Guessing > 1 {
			return nil, fmt.Errorf("item %d: guessing must be in [0, 1], got %g", i, item.Guessing)
		}
		if item.Difficulty < b.bMin {
			b.bMin = item.Difficulty
		}
		if item.Difficulty > b.bMax {
			b.bMax = item.Difficulty
		}
	}

	for i, c := range b.clusters {
		if c < 0 {
			return nil, fmt.Errorf("item %d: negative cluster id %d", i, c)
		}
		b.rosters[c] = append(b.rosters[c], i)
	}

	return b, nil
}

// Len returns the number of items in the bank.
func (b *Bank) Len() int { return len(b.items) }

// Item returns the parameters of item i.
func (b *Bank) Item(i int) irt.Item { return b.items[i] }

// Items returns the parameter rows of the given item indices, in the
// given order.
func (b *Bank) Items(indices []int) []irt.Item {
	rows := make([]irt.Item, len(indices))
	for i, idx := range indices {
		rows[i] = b.items[idx]
	}
	return rows
}

// Cluster returns the cluster id of item i.
func (b *Bank) Cluster(i int) int { return b.clusters[i] }

// ClusterMembers returns the indices of all items in the given cluster,
// in bank order. The returned slice is shared; callers must not modify
// it. Clusters present in the bank are never empty.
func (b *Bank) ClusterMembers(cluster int) []int { return b.rosters[cluster] }

// Clusters returns the number of distinct clusters in the bank.
func (b *Bank) Clusters() int { return len(b.rosters) }

// DifficultyBounds returns the minimum and maximum difficulty across the
// whole bank, administered or not.
func (b *Bank) DifficultyBounds() (bMin, bMax float64) { return b.bMin, b.bMax }
