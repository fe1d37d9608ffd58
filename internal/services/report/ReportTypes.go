package report

// VoxelPoint is one grid combination for the 3D parameter view.
// Metric is null when the combination has no defined CAGR.
type VoxelPoint struct {
	TP         float64  `json:"tp"`
	SL         float64  `json:"sl"`
	H          int      `json:"h"`
	Metric     *float64 `json:"metric"`
	MetricName string   `json:"metric_name"`
}

// HeatmapSet carries one TP x SL matrix per key horizon. Matrix rows
// follow SLValues, columns follow TPValues; cells are null where the
// metric is undefined or the combination is missing.
type HeatmapSet struct {
	MetricName string                  `json:"metric_name"`
	Horizons   map[string][][]*float64 `json:"horizons"`
	TPValues   []float64               `json:"tp_values"`
	SLValues   []float64               `json:"sl_values"`
}

// SummaryMetrics is the headline card of a run, built around the best
// system by CAGR. MaxDrawdown uses the negative convention and is
// clamped to [-100, 0]. Optional fields are omitted when undefined.
type SummaryMetrics struct {
	Symbol                  string   `json:"symbol"`
	Start                   string   `json:"start"`
	End                     string   `json:"end"`
	BestTP                  float64  `json:"best_tp"`
	BestSL                  float64  `json:"best_sl"`
	BestH                   int      `json:"best_h"`
	BestCAGR                float64  `json:"best_cagr"`
	BestLinearAnnualPL      float64  `json:"best_linear_annual_pl"`
	MaxDrawdown             float64  `json:"max_drawdown"`
	Trades                  int      `json:"trades"`
	AssetTotalRetPct        float64  `json:"asset_total_ret_pct"`
	AssetAnnualCAGRPct      float64  `json:"asset_annual_cagr_pct"`
	CompoundedReturnPct     float64  `json:"compounded_return_pct"`
	CompoundedReturnPerYear float64  `json:"compounded_return_per_year"`
	WinRate                 float64  `json:"win_rate"`
	VolatilityAnnual        *float64 `json:"volatility_annual,omitempty"`
	SharpeAnnual            *float64 `json:"sharpe_annual,omitempty"`
	CalmarRatio             *float64 `json:"calmar_ratio,omitempty"`
	ReturnDrawdownRatio     *float64 `json:"return_drawdown_ratio,omitempty"`
}

// HorizonBest is the strongest system at one horizon.
type HorizonBest struct {
	Horizon  int     `json:"horizon"`
	BestCAGR float64 `json:"best_cagr"`
	TP       float64 `json:"tp"`
	SL       float64 `json:"sl"`
}

// Timeseries compares the best system's compounded equity against the
// normalized price, both as percent moves from the series start.
type Timeseries struct {
	Dates                 []string  `json:"dates"`
	StrategyCompoundedPct []float64 `json:"strategy_compounded_pct"`
	PriceDates            []string  `json:"price_dates"`
	PriceNormalizedPct    []float64 `json:"price_normalized_pct"`
}

// YearlyReturns holds per-year compounded returns for the best system
// and the underlying price, restricted to years both sides cover.
type YearlyReturns struct {
	Years                 []int     `json:"years"`
	StrategyCompoundedPct []float64 `json:"strategy_compounded_pct"`
	PriceCompoundedPct    []float64 `json:"price_compounded_pct"`
}

// BestHeatmap is the TP x SL CAGR matrix at the best system's horizon
// with the winning cell called out.
type BestHeatmap struct {
	Horizon  int          `json:"horizon"`
	TPValues []float64    `json:"tp_values"`
	SLValues []float64    `json:"sl_values"`
	Matrix   [][]*float64 `json:"matrix"`
	BestTP   float64      `json:"best_tp"`
	BestSL   float64      `json:"best_sl"`
}

// TradeEvent is one resolved TP or SL day of the best system. PnL is
// the bar's realized weighted return net of costs.
type TradeEvent struct {
	Date     string  `json:"date"`
	PnL      float64 `json:"pnl"`
	PnLPct   float64 `json:"pnl_pct"`
	Scenario string  `json:"scenario"`
}
