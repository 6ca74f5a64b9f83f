package simulation

// Record is the per-examinee output of one exposure-cap pass.
type Record struct {
	// TrueTheta is the latent ability the responses were simulated with.
	TrueTheta float64 `json:"theta"`

	// EstimatedTheta is the ability estimate after the final item.
	EstimatedTheta float64 `json:"estimated_theta"`

	// Administered lists the administered item indices in test order.
	// No index appears twice.
	Administered []int `json:"administered"`

	// RMax is the exposure cap the examinee was simulated under.
	RMax float64 `json:"r_max"`

	// Converged is false when at least one likelihood re-estimation for
	// this examinee stopped without converging. The estimate is still
	// the best iterate available.
	Converged bool `json:"converged"`
}

// Aggregate summarizes one exposure-cap pass across all examinees.
type Aggregate struct {
	// TestLength is the number of items administered per examinee.
	TestLength int `json:"test_length"`

	// RMSE is the root-mean-squared error between true and estimated
	// abilities over the pass.
	RMSE float64 `json:"rmse"`

	// Overlap is the Barrada test overlap statistic of the pass.
	Overlap float64 `json:"overlap"`

	// RMax is the exposure cap of the pass.
	RMax float64 `json:"r_max"`
}

// Outcome bundles everything one Run produced.
type Outcome struct {
	// RunID identifies the run in downstream reporting.
	RunID string `json:"run_id"`

	// Seed is the seed the run's random stream was built from. Running
	// again with the same configuration and seed reproduces the records
	// and aggregates exactly.
	Seed int64 `json:"seed"`

	Records    []Record    `json:"records"`
	Aggregates []Aggregate `json:"aggregates"`
}
