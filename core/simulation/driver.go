// Package simulation drives computerized adaptive test simulations: for
// every exposure cap, for every synthetic examinee, it repeatedly selects
// an item, simulates the response and re-estimates ability, then
// aggregates the pass into accuracy and overlap statistics.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/adalundhe/catsim/core/estimation"
	"github.com/adalundhe/catsim/core/irt"
	"github.com/adalundhe/catsim/core/itembank"
	"github.com/adalundhe/catsim/core/metrics"
	"github.com/adalundhe/catsim/core/selection"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"
)

// Default configuration values.
const (
	DefaultExaminees  = 1
	DefaultTestLength = 20
	DefaultRMaxLevels = 10
)

// Initial ability estimates are drawn uniformly from this range,
// independent of the examinee's true ability.
const (
	initialEstimateMin = -5
	initialEstimateMax = 5
)

// Config holds the simulation parameters.
type Config struct {
	// Examinees is the number of synthetic examinees simulated under
	// each exposure cap.
	Examinees int

	// TestLength is the number of items administered to each examinee.
	// Must not exceed the bank size.
	TestLength int

	// RMaxLevels is the number of exposure caps tested, evenly spaced
	// over (0, 1] and ending at 1.
	RMaxLevels int

	// Optimizer names the likelihood minimization method used for
	// ability re-estimation. See estimation.Methods.
	Optimizer string

	// Seed makes runs reproducible. 0 = use current time.
	Seed int64

	// Model is the response model. nil = the three-parameter logistic
	// model.
	Model irt.Model

	// Logger receives pass progress at Info and per-examinee detail at
	// Debug. nil = slog.Default().
	Logger *slog.Logger
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Examinees == 0 {
		cfg.Examinees = DefaultExaminees
	}
	if cfg.TestLength == 0 {
		cfg.TestLength = DefaultTestLength
	}
	if cfg.RMaxLevels == 0 {
		cfg.RMaxLevels = DefaultRMaxLevels
	}
	if cfg.Optimizer == "" {
		cfg.Optimizer = estimation.DefaultMethod
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Model == nil {
		cfg.Model = irt.ThreeParamLogistic{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Driver runs the simulation loop. Every source of randomness — true
// abilities, initial estimates, response draws and substitution sampling
// — flows from one seeded stream, so a configuration and a seed fully
// determine the outcome.
type Driver struct {
	bank   *itembank.Bank
	cfg    Config
	model  irt.Model
	logger *slog.Logger

	src rand.Source
	rng *rand.Rand

	selector  *selection.Selector
	estimator *estimation.Reestimator
}

// New validates the configuration against the bank and builds a Driver.
func New(bank *itembank.Bank, cfg Config) (*Driver, error) {
	if bank == nil {
		return nil, errors.New("nil item bank")
	}
	cfg = applyConfigDefaults(cfg)
	if cfg.Examinees < 0 {
		return nil, fmt.Errorf("examinee count must be positive, got %d", cfg.Examinees)
	}
	if cfg.TestLength < 0 {
		return nil, fmt.Errorf("test length must be positive, got %d", cfg.TestLength)
	}
	if cfg.RMaxLevels < 0 {
		return nil, fmt.Errorf("exposure cap count must be positive, got %d", cfg.RMaxLevels)
	}
	if cfg.TestLength > bank.Len() {
		return nil, fmt.Errorf("test length %d exceeds bank size %d", cfg.TestLength, bank.Len())
	}

	estimator, err := estimation.New(bank, cfg.Model, estimation.Config{Method: cfg.Optimizer})
	if err != nil {
		return nil, err
	}

	src := rand.NewPCG(uint64(cfg.Seed), 0)
	rng := rand.New(src)

	return &Driver{
		bank:      bank,
		cfg:       cfg,
		model:     cfg.Model,
		logger:    cfg.Logger,
		src:       src,
		rng:       rng,
		selector:  selection.NewSelector(bank, cfg.Model, rng),
		estimator: estimator,
	}, nil
}

// Seed returns the seed the driver's random stream was built from.
func (d *Driver) Seed() int64 { return d.cfg.Seed }

// Run executes the full simulation and returns its outcome.
//
// Exposure caps are processed strictly in sequence: the exposure
// counters are shared across examinees within a pass and reset when the
// next cap starts. True abilities are drawn once, before the first pass,
// so every cap simulates the same population. ctx is consulted between
// examinees; cancellation abandons the run.
func (d *Driver) Run(ctx context.Context) (*Outcome, error) {
	ability := distuv.Normal{Mu: 0, Sigma: 1, Src: d.src}
	trueThetas := make([]float64, d.cfg.Examinees)
	for i := range trueThetas {
		trueThetas[i] = ability.Rand()
	}
	initial := distuv.Uniform{Min: initialEstimateMin, Max: initialEstimateMax, Src: d.src}

	exposure := selection.NewExposure(d.bank.Len())
	outcome := &Outcome{
		RunID:      uuid.New().String(),
		Seed:       d.cfg.Seed,
		Records:    make([]Record, 0, d.cfg.Examinees*d.cfg.RMaxLevels),
		Aggregates: make([]Aggregate, 0, d.cfg.RMaxLevels),
	}

	for pass := 0; pass < d.cfg.RMaxLevels; pass++ {
		rMax := float64(pass+1) / float64(d.cfg.RMaxLevels)
		exposure.Reset()

		d.logger.Info("exposure cap pass",
			slog.Int("pass", pass+1),
			slog.Int("of", d.cfg.RMaxLevels),
			slog.Float64("r_max", rMax),
		)

		estimated := make([]float64, 0, d.cfg.Examinees)
		for _, trueTheta := range trueThetas {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			record, err := d.simulateExaminee(trueTheta, rMax, exposure, initial)
			if err != nil {
				return nil, fmt.Errorf("simulate examinee under r_max %.2f: %w", rMax, err)
			}
			outcome.Records = append(outcome.Records, record)
			estimated = append(estimated, record.EstimatedTheta)
		}

		aggregate, err := d.aggregate(rMax, trueThetas, estimated, exposure)
		if err != nil {
			return nil, err
		}
		outcome.Aggregates = append(outcome.Aggregates, aggregate)
	}

	return outcome, nil
}

// simulateExaminee walks one examinee through the full test: select,
// respond, re-estimate, for TestLength items. The administered set and
// exposure counter are updated once per selection, unconditionally.
func (d *Driver) simulateExaminee(trueTheta, rMax float64, exposure *selection.Exposure, initial distuv.Uniform) (Record, error) {
	estTheta := initial.Rand()
	administered := make([]bool, d.bank.Len())
	order := make([]int, 0, d.cfg.TestLength)
	responses := make([]bool, 0, d.cfg.TestLength)
	converged := true

	for q := 0; q < d.cfg.TestLength; q++ {
		item, err := d.selector.Next(estTheta, administered, exposure, rMax)
		if err != nil {
			return Record{}, err
		}
		administered[item] = true
		order = append(order, item)
		exposure.Record(item)

		correct := d.model.ProbCorrect(trueTheta, d.bank.Item(item)) >= d.rng.Float64()
		responses = append(responses, correct)

		next, err := d.estimator.Reestimate(estTheta, responses, order)
		if err != nil {
			if !errors.Is(err, estimation.ErrNotConverged) {
				return Record{}, err
			}
			converged = false
			d.logger.Warn("ability re-estimation did not converge",
				slog.Float64("estimate", next),
				slog.Int("responses", len(responses)),
			)
		}
		estTheta = next
	}

	d.logger.Debug("examinee complete",
		slog.Float64("theta", trueTheta),
		slog.Float64("estimated", estTheta),
		slog.Float64("r_max", rMax),
	)

	return Record{
		TrueTheta:      trueTheta,
		EstimatedTheta: estTheta,
		Administered:   order,
		RMax:           rMax,
		Converged:      converged,
	}, nil
}

// aggregate closes out one cap pass.
func (d *Driver) aggregate(rMax float64, trueThetas, estimated []float64, exposure *selection.Exposure) (Aggregate, error) {
	rmse, err := metrics.RMSE(trueThetas, estimated)
	if err != nil {
		return Aggregate{}, fmt.Errorf("aggregate pass r_max %.2f: %w", rMax, err)
	}
	overlap, err := metrics.OverlapRate(exposure.Counts(), d.cfg.TestLength)
	if err != nil {
		return Aggregate{}, fmt.Errorf("aggregate pass r_max %.2f: %w", rMax, err)
	}
	return Aggregate{
		TestLength: d.cfg.TestLength,
		RMSE:       rmse,
		Overlap:    overlap,
		RMax:       rMax,
	}, nil
}
