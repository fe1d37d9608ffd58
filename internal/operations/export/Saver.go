package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/alexandernicoud/we-convolve/internal/metrics"
	"github.com/alexandernicoud/we-convolve/internal/operations/sweep"
)

// Record is one exported row of the aggregate table. Metrics that can
// be undefined are pointers, so JSON and parquet write real nulls and
// CSV leaves the cell empty.
type Record struct {
	TPFrac              float64  `json:"tp_frac" parquet:"tp_frac"`
	SLFrac              float64  `json:"sl_frac" parquet:"sl_frac"`
	HorizonDays         int      `json:"horizon_days" parquet:"horizon_days"`
	Spread              float64  `json:"spread" parquet:"spread"`
	Trades              int      `json:"trades" parquet:"trades"`
	Years               float64  `json:"years" parquet:"years"`
	PnLLinear           float64  `json:"pnl_linear" parquet:"pnl_linear"`
	PnLLinearPerYear    float64  `json:"pnl_linear_per_year" parquet:"pnl_linear_per_year"`
	PnLLinearPct        float64  `json:"pnl_linear_pct" parquet:"pnl_linear_pct"`
	PnLLinearPerYearPct float64  `json:"pnl_linear_per_year_pct" parquet:"pnl_linear_per_year_pct"`
	PnLPerTrade         float64  `json:"pnl_per_trade" parquet:"pnl_per_trade"`
	PnLPerTradePct      float64  `json:"pnl_per_trade_pct" parquet:"pnl_per_trade_pct"`
	Label1Ratio         float64  `json:"label1_ratio" parquet:"label1_ratio"`
	MaxDrawdown         float64  `json:"max_drawdown" parquet:"max_drawdown"`
	MaxDrawdownPct      float64  `json:"max_drawdown_pct" parquet:"max_drawdown_pct"`
	TradesPerYear       float64  `json:"trades_per_year" parquet:"trades_per_year"`
	SharpeAnnual        *float64 `json:"sharpe_annual" parquet:"sharpe_annual,optional"`
	CalmarRatio         *float64 `json:"calmar_ratio" parquet:"calmar_ratio,optional"`
	EquityFinal         float64  `json:"equity_final" parquet:"equity_final"`
	CompoundedReturn    float64  `json:"compounded_return" parquet:"compounded_return"`
	CompoundedReturnPct float64  `json:"compounded_return_pct" parquet:"compounded_return_pct"`
	CompoundedCAGR      *float64 `json:"compounded_cagr" parquet:"compounded_cagr,optional"`
	CompoundedCAGRPct   *float64 `json:"compounded_cagr_pct" parquet:"compounded_cagr_pct,optional"`
	RatioTotalVsAsset   *float64 `json:"ratio_total_vs_asset" parquet:"ratio_total_vs_asset,optional"`
	RatioAnnualVsAsset  *float64 `json:"ratio_annual_vs_asset" parquet:"ratio_annual_vs_asset,optional"`
	RatioCAGRVsAsset    *float64 `json:"ratio_cagr_vs_asset" parquet:"ratio_cagr_vs_asset,optional"`
	IsCandidate         bool     `json:"is_candidate" parquet:"is_candidate"`
	RankScore           *float64 `json:"rank_score" parquet:"rank_score,optional"`
}

// NewRecord converts an aggregate row into its export shape,
// deriving the percent columns.
func NewRecord(r sweep.ResultRow) Record {
	return Record{
		TPFrac:              r.TPFrac,
		SLFrac:              r.SLFrac,
		HorizonDays:         r.HorizonDays,
		Spread:              r.Spread,
		Trades:              r.Trades,
		Years:               r.Years,
		PnLLinear:           r.PnLLinear,
		PnLLinearPerYear:    r.PnLLinearPerYear,
		PnLLinearPct:        r.PnLLinear * 100,
		PnLLinearPerYearPct: r.PnLLinearPerYear * 100,
		PnLPerTrade:         r.PnLPerTrade,
		PnLPerTradePct:      r.PnLPerTrade * 100,
		Label1Ratio:         r.Label1Ratio,
		MaxDrawdown:         r.MaxDrawdown,
		MaxDrawdownPct:      r.MaxDrawdown * 100,
		TradesPerYear:       r.TradesPerYear,
		SharpeAnnual:        optional(r.SharpeAnnual),
		CalmarRatio:         optional(r.CalmarRatio),
		EquityFinal:         r.EquityFinal,
		CompoundedReturn:    r.CompoundedReturn,
		CompoundedReturnPct: r.CompoundedReturn * 100,
		CompoundedCAGR:      optional(r.CompoundedCAGR),
		CompoundedCAGRPct:   optional(r.CompoundedCAGR * 100),
		RatioTotalVsAsset:   optional(r.RatioTotalVsAsset),
		RatioAnnualVsAsset:  optional(r.RatioAnnualVsAsset),
		RatioCAGRVsAsset:    optional(r.RatioCAGRVsAsset),
		IsCandidate:         r.Candidate,
		RankScore:           optional(r.RankScore),
	}
}

// Records converts a full result table.
func Records(rows []sweep.ResultRow) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = NewRecord(r)
	}
	return out
}

// optional maps NaN onto a missing value.
func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// RowSaver writes one result table in a single format.
type RowSaver interface {
	Save(records []Record, path string) error
	Extension() string
}

// NewRowSaver returns the saver for a format name, nil when the
// format is not supported.
func NewRowSaver(format string) RowSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// MustRowSaver is NewRowSaver for formats validated at startup.
func MustRowSaver(format string) RowSaver {
	s := NewRowSaver(format)
	if s == nil {
		panic(fmt.Sprintf("export: unsupported format %q (use csv, json or parquet)", format))
	}
	return s
}

// WriteTable writes records to dir/name.<ext> and returns the path.
func WriteTable(s RowSaver, records []Record, dir, name string) (string, error) {
	path := filepath.Join(dir, name+"."+s.Extension())
	if err := s.Save(records, path); err != nil {
		return "", fmt.Errorf("export: %s: %w", path, err)
	}
	metrics.RowsExported.WithLabelValues(s.Extension()).Add(float64(len(records)))
	return path, nil
}
