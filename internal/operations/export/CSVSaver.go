package export

import (
	"encoding/csv"
	"os"
	"strconv"
)

var csvHeader = []string{
	"tp_frac", "sl_frac", "horizon_days", "spread", "trades", "years",
	"pnl_linear", "pnl_linear_per_year", "pnl_linear_pct", "pnl_linear_per_year_pct",
	"pnl_per_trade", "pnl_per_trade_pct", "label1_ratio",
	"max_drawdown", "max_drawdown_pct", "trades_per_year",
	"sharpe_annual", "calmar_ratio", "equity_final",
	"compounded_return", "compounded_return_pct", "compounded_cagr", "compounded_cagr_pct",
	"ratio_total_vs_asset", "ratio_annual_vs_asset", "ratio_cagr_vs_asset",
	"is_candidate", "rank_score",
}

// CSVSaver writes the table as CSV. Undefined metrics become empty
// cells.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(records []Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			floatStr(r.TPFrac),
			floatStr(r.SLFrac),
			strconv.Itoa(r.HorizonDays),
			floatStr(r.Spread),
			strconv.Itoa(r.Trades),
			floatStr(r.Years),
			floatStr(r.PnLLinear),
			floatStr(r.PnLLinearPerYear),
			floatStr(r.PnLLinearPct),
			floatStr(r.PnLLinearPerYearPct),
			floatStr(r.PnLPerTrade),
			floatStr(r.PnLPerTradePct),
			floatStr(r.Label1Ratio),
			floatStr(r.MaxDrawdown),
			floatStr(r.MaxDrawdownPct),
			floatStr(r.TradesPerYear),
			optStr(r.SharpeAnnual),
			optStr(r.CalmarRatio),
			floatStr(r.EquityFinal),
			floatStr(r.CompoundedReturn),
			floatStr(r.CompoundedReturnPct),
			optStr(r.CompoundedCAGR),
			optStr(r.CompoundedCAGRPct),
			optStr(r.RatioTotalVsAsset),
			optStr(r.RatioAnnualVsAsset),
			optStr(r.RatioCAGRVsAsset),
			strconv.FormatBool(r.IsCandidate),
			optStr(r.RankScore),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func floatStr(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optStr(v *float64) string {
	if v == nil {
		return ""
	}
	return floatStr(*v)
}
