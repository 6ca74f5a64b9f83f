package cluster

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/adalundhe/catsim/core/irt"
)

// =============================================================================
// Test Helpers
// =============================================================================

// separatedPoints generates perCluster noisy points around each center, in
// center order.
func separatedPoints(perCluster int, centers [][]float64, seed int64) [][]float64 {
	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	points := make([][]float64, 0, perCluster*len(centers))
	for _, center := range centers {
		for i := 0; i < perCluster; i++ {
			p := make([]float64, len(center))
			for d := range center {
				p[d] = center[d] + rng.Float64()*0.2 - 0.1
			}
			points = append(points, p)
		}
	}
	return points
}

// checkBlocksCoherent verifies that every block of perCluster consecutive
// assignments shares one label and that the block labels are pairwise
// distinct.
func checkBlocksCoherent(t *testing.T, assignments []int, perCluster int) {
	t.Helper()

	seen := make(map[int]bool)
	for start := 0; start < len(assignments); start += perCluster {
		label := assignments[start]
		if seen[label] {
			t.Errorf("label %d assigned to more than one block", label)
		}
		seen[label] = true

		for i := start; i < start+perCluster; i++ {
			if assignments[i] != label {
				t.Errorf("point %d has label %d, block label is %d", i, assignments[i], label)
			}
		}
	}
}

// =============================================================================
// Partition Tests
// =============================================================================

// TestPartitionRecoversSeparatedClusters verifies that clearly separated
// groups come back as distinct clusters.
func TestPartitionRecoversSeparatedClusters(t *testing.T) {
	centers := [][]float64{
		{-5, -5, -5},
		{0, 5, 0},
		{5, -5, 5},
	}
	points := separatedPoints(20, centers, 42)

	cfg := DeriveConfig(3)
	cfg.Seed = 42

	assignments, err := Partition(points, cfg)
	if err != nil {
		t.Fatalf("partition failed: %v", err)
	}
	if len(assignments) != len(points) {
		t.Fatalf("expected %d assignments, got %d", len(points), len(assignments))
	}

	checkBlocksCoherent(t, assignments, 20)
}

// TestPartitionDeterministicWithSeed verifies same seed produces same
// assignments.
func TestPartitionDeterministicWithSeed(t *testing.T) {
	centers := [][]float64{{-3, 0, 0}, {3, 0, 0}}
	points := separatedPoints(25, centers, 7)

	cfg := DeriveConfig(2)
	cfg.Seed = 999

	first, err := Partition(points, cfg)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := Partition(points, cfg)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("assignments diverge at %d: %d vs %d", i, first[i], second[i])
		}
	}
}

// TestPartitionEveryClusterNonEmpty verifies the non-empty guarantee on
// data that naturally produces empty clusters.
func TestPartitionEveryClusterNonEmpty(t *testing.T) {
	// Two tight blobs with k=4: two clusters would normally end up empty.
	centers := [][]float64{{0, 0, 0}, {10, 10, 10}}
	points := separatedPoints(50, centers, 42)

	cfg := DeriveConfig(4)
	cfg.Seed = 42

	assignments, err := Partition(points, cfg)
	if err != nil {
		t.Fatalf("partition failed: %v", err)
	}

	counts := make([]int, 4)
	for i, label := range assignments {
		if label < 0 || label >= 4 {
			t.Fatalf("point %d has out-of-range label %d", i, label)
		}
		counts[label]++
	}
	for j, count := range counts {
		if count == 0 {
			t.Errorf("cluster %d is empty", j)
		}
	}
}

// TestPartitionKEqualsN verifies each point gets its own cluster when
// k equals the point count.
func TestPartitionKEqualsN(t *testing.T) {
	points := separatedPoints(1, [][]float64{
		{0, 0, 0}, {2, 0, 0}, {4, 0, 0}, {6, 0, 0},
		{0, 3, 0}, {2, 3, 0}, {4, 3, 0}, {6, 3, 0},
	}, 42)

	cfg := DeriveConfig(8)
	cfg.Seed = 42

	assignments, err := Partition(points, cfg)
	if err != nil {
		t.Fatalf("partition failed: %v", err)
	}

	seen := make(map[int]bool)
	for i, label := range assignments {
		if seen[label] {
			t.Errorf("label %d reused at point %d", label, i)
		}
		seen[label] = true
	}
}

// TestPartitionSingleCluster tests k=1.
func TestPartitionSingleCluster(t *testing.T) {
	points := separatedPoints(10, [][]float64{{1, 2, 3}}, 42)

	cfg := DeriveConfig(1)
	cfg.Seed = 42

	assignments, err := Partition(points, cfg)
	if err != nil {
		t.Fatalf("partition failed: %v", err)
	}
	for i, label := range assignments {
		if label != 0 {
			t.Errorf("point %d has label %d, want 0", i, label)
		}
	}
}

// TestPartitionInputValidation covers the rejection paths.
func TestPartitionInputValidation(t *testing.T) {
	if _, err := Partition(nil, Config{K: 2}); err == nil {
		t.Error("expected error for empty input")
	}

	points := [][]float64{{0, 0}, {1, 1}}
	if _, err := Partition(points, Config{K: 0}); err == nil {
		t.Error("expected error for non-positive cluster count")
	}

	_, err := Partition(points, Config{K: 5})
	if !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("expected ErrTooFewPoints, got %v", err)
	}

	ragged := [][]float64{{0, 0}, {1, 1, 1}}
	if _, err := Partition(ragged, Config{K: 2}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

// =============================================================================
// Derived Config Tests
// =============================================================================

// TestDeriveConfigRestarts verifies restarts scale with log2(k).
func TestDeriveConfigRestarts(t *testing.T) {
	tests := []struct {
		k            int
		wantRestarts int
	}{
		{1, 1},
		{2, 1},
		{4, 2},
		{8, 3},
		{256, 8},
	}

	for _, tc := range tests {
		cfg := DeriveConfig(tc.k)
		if cfg.NumRestarts != tc.wantRestarts {
			t.Errorf("DeriveConfig(%d).NumRestarts = %d, want %d",
				tc.k, cfg.NumRestarts, tc.wantRestarts)
		}
		if cfg.ConvergenceThreshold <= 0 {
			t.Errorf("DeriveConfig(%d).ConvergenceThreshold = %v, want > 0",
				tc.k, cfg.ConvergenceThreshold)
		}
		if cfg.MaxIterations <= 0 {
			t.Errorf("DeriveConfig(%d).MaxIterations = %d, want > 0",
				tc.k, cfg.MaxIterations)
		}
	}
}

// =============================================================================
// Item Featurization Tests
// =============================================================================

// TestItemsGroupsByParameters verifies items with similar parameter
// triples land in the same cluster.
func TestItemsGroupsByParameters(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	items := make([]irt.Item, 20)
	for i := 0; i < 10; i++ {
		items[i] = irt.Item{
			Discrimination: 1.0 + rng.Float64()*0.05,
			Difficulty:     -2.0 + rng.Float64()*0.05,
			Guessing:       0.1 + rng.Float64()*0.01,
		}
		items[i+10] = irt.Item{
			Discrimination: 2.0 + rng.Float64()*0.05,
			Difficulty:     2.0 + rng.Float64()*0.05,
			Guessing:       0.2 + rng.Float64()*0.01,
		}
	}

	assignments, err := Items(items, 2, 42)
	if err != nil {
		t.Fatalf("clustering items failed: %v", err)
	}
	if len(assignments) != len(items) {
		t.Fatalf("expected %d assignments, got %d", len(items), len(assignments))
	}

	checkBlocksCoherent(t, assignments, 10)
}
