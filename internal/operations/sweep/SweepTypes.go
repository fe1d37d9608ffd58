package sweep

import (
	"time"
)

// ParameterCombo is one grid point: a take-profit fraction, a
// stop-loss fraction, and a holding horizon in bars.
type ParameterCombo struct {
	TPFrac      float64
	SLFrac      float64
	HorizonDays int
}

// SimulationResult is the aggregate output of simulating one
// combination over the full series. Undefined metrics (no trades,
// zero variance, ruined equity) are NaN.
type SimulationResult struct {
	TPFrac      float64
	SLFrac      float64
	HorizonDays int

	Trades int
	Years  float64

	PnLLinear        float64
	PnLLinearPerYear float64
	PnLPerTrade      float64
	Label1Ratio      float64
	MaxDrawdown      float64
	TradesPerYear    float64
	SharpeAnnual     float64
	CalmarRatio      float64
	EquityFinal      float64
	CompoundedReturn float64
	CompoundedCAGR   float64
}

// ResultRow is one line of the aggregate table: a SimulationResult
// plus the TP-SL spread, buy-and-hold ratios, and candidate marking.
type ResultRow struct {
	SimulationResult
	Spread float64

	RatioTotalVsAsset  float64
	RatioAnnualVsAsset float64
	RatioCAGRVsAsset   float64

	Candidate bool
	RankScore float64
}

// AssetStats summarizes buy-and-hold performance of the underlying
// series, the benchmark every combination is rated against.
type AssetStats struct {
	TotalReturn  float64
	AnnualLinear float64
	AnnualCAGR   float64
	Years        float64
}

// Resolution labels recorded by the day series.
const (
	ScenarioTP   = "TP"
	ScenarioSL   = "SL"
	ScenarioFLAT = "FLAT"
)

// DaySeries holds per-bar realized returns for one combination.
// Realized[i] sums the weighted returns of every position resolved on
// bar i; Scenario[i] keeps the label of that bar's last resolution,
// empty when nothing resolved.
type DaySeries struct {
	Dates    []time.Time
	Realized []float64
	Scenario []string
}

// EquityPoint is one step of a cumulative equity curve.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}
