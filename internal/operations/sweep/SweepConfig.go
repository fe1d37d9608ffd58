package sweep

import "fmt"

// Ambiguous-fill policies for bars where both TP and SL trigger.
// SL-first is the pessimistic default.
const (
	FillSLFirst = "SL_FIRST"
	FillTPFirst = "TP_FIRST"
)

// Default cost model: fee charged per side plus a spread, applied once
// per resolution.
const (
	DefaultFeeRate      = 0.001
	DefaultSpreadRate   = 0.0001
	DefaultStartCapital = 100_000.0
)

// Config holds every knob of a sweep: grid bounds, cost model, fill
// policy, candidate thresholds and runtime tuning. It is passed by
// value and never mutated after Validate, which is what makes combos
// safe to evaluate in parallel.
type Config struct {
	TPMin   float64
	TPMax   float64
	TPSteps int

	SLMin   float64
	SLMax   float64
	SLSteps int

	HorizonMin int
	HorizonMax int

	FeeRate    float64
	SpreadRate float64

	AmbiguousFill string

	StartCapital float64

	// Candidate filter thresholds (all bounds inclusive).
	CandidateMinTrades     int
	CandidateMinLabel1     float64
	CandidateMaxLabel1     float64
	CandidateMinSpread     float64
	CandidateCAGRTolerance float64

	// Rows kept in the top-N export.
	TopNSave int

	// Runtime tuning. Workers <= 0 means one per CPU.
	Workers       int
	ProgressEvery int
}

// NewConfig returns the default sweep configuration.
func NewConfig() Config {
	return Config{
		TPMin:   0.005,
		TPMax:   0.40,
		TPSteps: 25,

		SLMin:   0.005,
		SLMax:   0.20,
		SLSteps: 25,

		HorizonMin: 1,
		HorizonMax: 200,

		FeeRate:    DefaultFeeRate,
		SpreadRate: DefaultSpreadRate,

		AmbiguousFill: FillSLFirst,
		StartCapital:  DefaultStartCapital,

		CandidateMinTrades:     800,
		CandidateMinLabel1:     0.35,
		CandidateMaxLabel1:     0.65,
		CandidateMinSpread:     0.01,
		CandidateCAGRTolerance: 0.02,

		TopNSave: 50,

		Workers:       0,
		ProgressEvery: 1000,
	}
}

// Validate rejects configurations that would make the grid run
// meaningless. Called once before the sweep starts; a failure here is
// fatal.
func (c Config) Validate() error {
	if c.TPSteps < 1 || c.SLSteps < 1 {
		return fmt.Errorf("config: grid steps must be positive (tp=%d, sl=%d)", c.TPSteps, c.SLSteps)
	}
	if c.TPMin <= 0 || c.TPMax < c.TPMin {
		return fmt.Errorf("config: bad take-profit bounds [%v, %v]", c.TPMin, c.TPMax)
	}
	if c.SLMin <= 0 || c.SLMax < c.SLMin {
		return fmt.Errorf("config: bad stop-loss bounds [%v, %v]", c.SLMin, c.SLMax)
	}
	if c.HorizonMin < 1 || c.HorizonMax < c.HorizonMin {
		return fmt.Errorf("config: bad horizon range [%d, %d]", c.HorizonMin, c.HorizonMax)
	}
	if c.FeeRate < 0 || c.SpreadRate < 0 {
		return fmt.Errorf("config: negative cost rates (fee=%v, spread=%v)", c.FeeRate, c.SpreadRate)
	}
	if c.AmbiguousFill != FillSLFirst && c.AmbiguousFill != FillTPFirst {
		return fmt.Errorf("config: unknown ambiguous-fill policy %q", c.AmbiguousFill)
	}
	if c.StartCapital <= 0 {
		return fmt.Errorf("config: start capital must be positive, got %v", c.StartCapital)
	}
	if c.CandidateMinLabel1 > c.CandidateMaxLabel1 {
		return fmt.Errorf("config: label balance band [%v, %v] is inverted", c.CandidateMinLabel1, c.CandidateMaxLabel1)
	}
	if c.ProgressEvery < 1 {
		return fmt.Errorf("config: progress cadence must be at least 1, got %d", c.ProgressEvery)
	}
	return nil
}

// TotalCostFrac is the fixed cost charged on every resolution:
// round-trip fees plus spread.
func (c Config) TotalCostFrac() float64 {
	return 2*c.FeeRate + c.SpreadRate
}

// TPValues enumerates the evenly spaced take-profit fractions.
func (c Config) TPValues() []float64 { return linspace(c.TPMin, c.TPMax, c.TPSteps) }

// SLValues enumerates the evenly spaced stop-loss fractions.
func (c Config) SLValues() []float64 { return linspace(c.SLMin, c.SLMax, c.SLSteps) }

// Horizons enumerates the integer holding horizons.
func (c Config) Horizons() []int {
	hs := make([]int, 0, c.HorizonMax-c.HorizonMin+1)
	for h := c.HorizonMin; h <= c.HorizonMax; h++ {
		hs = append(hs, h)
	}
	return hs
}

// GridSize is the total number of combinations the sweep enumerates.
func (c Config) GridSize() int {
	return c.TPSteps * c.SLSteps * (c.HorizonMax - c.HorizonMin + 1)
}

// linspace returns n evenly spaced points including both endpoints; a
// single step collapses to the lower bound. The last point is pinned
// to hi so the grid upper bound is exact.
func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
