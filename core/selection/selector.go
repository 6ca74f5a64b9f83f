package selection

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/adalundhe/catsim/core/irt"
	"github.com/adalundhe/catsim/core/itembank"
)

var (
	// ErrBankExhausted is returned when every bank item has already been
	// administered to the examinee.
	ErrBankExhausted = errors.New("all bank items administered")

	// ErrNoSubstitute is returned when an over-exposed pick has no
	// same-cluster item left to administer: the cluster is too small for
	// the configured test length.
	ErrNoSubstitute = errors.New("no eligible substitute in cluster")
)

// Selector picks the next item for an examinee.
//
// Selection runs in three steps: the unadministered item with the
// greatest Fisher information at the current ability estimate; an
// exposure check on that pick; and, when the check fails, a uniform draw
// over the pick's cluster mates still available to the examinee.
// Selection does not record anything. Callers mark the returned index as
// administered and increment its exposure count once they commit to it,
// so repeated calls with unchanged state return the same pick.
type Selector struct {
	bank  *itembank.Bank
	model irt.Model
	rng   *rand.Rand
}

// NewSelector builds a selector over the bank. Substitution draws come
// from rng; nil seeds a generator from the current time.
func NewSelector(bank *itembank.Bank, model irt.Model, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Selector{bank: bank, model: model, rng: rng}
}

// Next returns the index of the next item to administer under the given
// exposure cap. The returned index is never one whose administered flag
// is set.
func (s *Selector) Next(theta float64, administered []bool, exposure *Exposure, rMax float64) (int, error) {
	pick, err := s.mostInformative(theta, administered)
	if err != nil {
		return 0, err
	}

	// Exposure check on the confirmed pick: a never-administered item is
	// always allowed, as is one whose count keeps bankSize/count at or
	// above the cap.
	if count := exposure.Count(pick); count == 0 || float64(s.bank.Len())/float64(count) >= rMax {
		return pick, nil
	}

	return s.substitute(pick, administered)
}

// mostInformative scans the bank for the unadministered item with the
// strictly greatest Fisher information at theta. Ties keep the first
// index in scan order. When no item carries positive information, the
// lowest unadministered index is returned.
func (s *Selector) mostInformative(theta float64, administered []bool) (int, error) {
	best := -1
	bestInf := 0.0
	for i := 0; i < s.bank.Len(); i++ {
		if administered[i] {
			continue
		}
		if inf := s.model.Information(theta, s.bank.Item(i)); inf > bestInf {
			bestInf = inf
			best = i
		}
	}
	if best >= 0 {
		return best, nil
	}

	for i := range administered {
		if !administered[i] {
			return i, nil
		}
	}
	return 0, ErrBankExhausted
}

// substitute draws uniformly among the pick's cluster mates not yet
// administered to the examinee. The pick itself stays in the draw,
// matching the rejection-sampling distribution this replaces.
func (s *Selector) substitute(pick int, administered []bool) (int, error) {
	cluster := s.bank.Cluster(pick)
	eligible := s.eligibleSubstitutes(cluster, administered)
	if len(eligible) == 0 {
		return 0, fmt.Errorf("%w: cluster %d has no unadministered items", ErrNoSubstitute, cluster)
	}
	return eligible[s.rng.IntN(len(eligible))], nil
}

// eligibleSubstitutes filters a cluster's roster down to the items not
// yet administered to the examinee.
func (s *Selector) eligibleSubstitutes(cluster int, administered []bool) []int {
	roster := s.bank.ClusterMembers(cluster)
	eligible := make([]int, 0, len(roster))
	for _, i := range roster {
		if !administered[i] {
			eligible = append(eligible, i)
		}
	}
	return eligible
}
