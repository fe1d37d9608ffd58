package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/alexandernicoud/we-convolve/internal/models"
	"github.com/alexandernicoud/we-convolve/internal/operations/sweep"
)

// ErrNoBestSystem is returned when no grid combination has a defined
// CAGR, so none of the best-system reports can be produced.
var ErrNoBestSystem = errors.New("report: no combination with a defined CAGR")

// Horizons rendered as heatmap slices. Absent horizons are skipped.
var heatmapHorizons = []int{1, 5, 20, 50, 100, 200}

// VoxelPoints flattens every grid combination into 3D scatter points
// with CAGR percent as the metric.
func VoxelPoints(rows []sweep.ResultRow) []VoxelPoint {
	points := make([]VoxelPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, VoxelPoint{
			TP:         r.TPFrac,
			SL:         r.SLFrac,
			H:          r.HorizonDays,
			Metric:     pctPtr(r.CompoundedCAGR),
			MetricName: "cagr",
		})
	}
	return points
}

// VoxelPointsTop keeps the top decile of combinations by CAGR, at
// least one point.
func VoxelPointsTop(rows []sweep.ResultRow) []VoxelPoint {
	n := len(rows) / 10
	if n < 1 {
		n = 1
	}
	return VoxelPoints(sweep.TopByCAGR(rows, n))
}

// HeatmapsCAGR builds TP x SL matrices of CAGR percent at the key
// horizons.
func HeatmapsCAGR(rows []sweep.ResultRow) HeatmapSet {
	return buildHeatmaps(rows, "cagr", func(r sweep.ResultRow) float64 {
		return r.CompoundedCAGR * 100
	})
}

// HeatmapsLinear builds TP x SL matrices of annualized linear PnL
// percent at the key horizons.
func HeatmapsLinear(rows []sweep.ResultRow) HeatmapSet {
	return buildHeatmaps(rows, "linear", func(r sweep.ResultRow) float64 {
		return r.PnLLinearPerYear * 100
	})
}

func buildHeatmaps(rows []sweep.ResultRow, name string, value func(sweep.ResultRow) float64) HeatmapSet {
	tps := uniqueTPs(rows)
	sls := uniqueSLs(rows)

	set := HeatmapSet{
		MetricName: name,
		Horizons:   make(map[string][][]*float64),
		TPValues:   tps,
		SLValues:   sls,
	}
	for _, h := range heatmapHorizons {
		cells := make(map[[2]float64]float64)
		found := false
		for _, r := range rows {
			if r.HorizonDays != h {
				continue
			}
			cells[[2]float64{r.TPFrac, r.SLFrac}] = value(r)
			found = true
		}
		if !found {
			continue
		}
		matrix := make([][]*float64, len(sls))
		for i, sl := range sls {
			row := make([]*float64, len(tps))
			for j, tp := range tps {
				if v, ok := cells[[2]float64{tp, sl}]; ok && !math.IsNaN(v) {
					row[j] = ptr(v)
				}
			}
			matrix[i] = row
		}
		set.Horizons[strconv.Itoa(h)] = matrix
	}
	return set
}

// Summary builds the headline metrics card around the best system.
func Summary(symbol, start, end string, rows []sweep.ResultRow, asset sweep.AssetStats) (SummaryMetrics, error) {
	best, ok := sweep.BestByCAGR(rows)
	if !ok {
		return SummaryMetrics{}, ErrNoBestSystem
	}
	return summaryOf(symbol, start, end, best, asset), nil
}

func summaryOf(symbol, start, end string, best sweep.ResultRow, asset sweep.AssetStats) SummaryMetrics {
	cagrPct := best.CompoundedCAGR * 100
	ddPct := 0.0
	if d := clamp(best.MaxDrawdown*100, 0, 100); d > 0 {
		ddPct = -d
	}

	m := SummaryMetrics{
		Symbol:                  symbol,
		Start:                   start,
		End:                     end,
		BestTP:                  best.TPFrac,
		BestSL:                  best.SLFrac,
		BestH:                   best.HorizonDays,
		BestCAGR:                cagrPct,
		BestLinearAnnualPL:      best.PnLLinearPerYear * 100,
		MaxDrawdown:             ddPct,
		Trades:                  best.Trades,
		AssetTotalRetPct:        asset.TotalReturn * 100,
		AssetAnnualCAGRPct:      asset.AnnualCAGR * 100,
		CompoundedReturnPct:     best.CompoundedReturn * 100,
		CompoundedReturnPerYear: cagrPct,
		WinRate:                 best.Label1Ratio,
	}
	if !math.IsNaN(best.SharpeAnnual) {
		m.SharpeAnnual = ptr(best.SharpeAnnual)
		if best.SharpeAnnual != 0 && cagrPct != 0 {
			m.VolatilityAnnual = ptr(math.Abs(cagrPct / best.SharpeAnnual))
		}
	}
	if !math.IsNaN(best.CalmarRatio) {
		m.CalmarRatio = ptr(best.CalmarRatio)
	}
	if ddPct != 0 {
		m.ReturnDrawdownRatio = ptr(math.Abs(cagrPct / ddPct))
	}
	return m
}

// HorizonBests returns the strongest system per horizon in ascending
// horizon order. Horizons without a defined CAGR are skipped.
func HorizonBests(rows []sweep.ResultRow) []HorizonBest {
	byHorizon := make(map[int][]sweep.ResultRow)
	for _, r := range rows {
		byHorizon[r.HorizonDays] = append(byHorizon[r.HorizonDays], r)
	}
	horizons := make([]int, 0, len(byHorizon))
	for h := range byHorizon {
		horizons = append(horizons, h)
	}
	sort.Ints(horizons)

	out := make([]HorizonBest, 0, len(horizons))
	for _, h := range horizons {
		best, ok := sweep.BestByCAGR(byHorizon[h])
		if !ok {
			continue
		}
		out = append(out, HorizonBest{
			Horizon:  h,
			BestCAGR: best.CompoundedCAGR * 100,
			TP:       best.TPFrac,
			SL:       best.SLFrac,
		})
	}
	return out
}

// BestTimeseries pairs the best system's compounded equity with the
// normalized close, both as percent moves from the first bar.
func BestTimeseries(ds *sweep.DaySeries, bars []models.Bar) Timeseries {
	curve := ds.CompoundedCurve()
	ts := Timeseries{
		Dates:                 make([]string, len(ds.Dates)),
		StrategyCompoundedPct: make([]float64, len(ds.Dates)),
	}
	for i, d := range ds.Dates {
		ts.Dates[i] = d.Format("2006-01-02")
		ts.StrategyCompoundedPct[i] = (curve[i] - 1.0) * 100
	}
	if len(bars) == 0 {
		return ts
	}
	base := bars[0].Close
	ts.PriceDates = make([]string, len(bars))
	ts.PriceNormalizedPct = make([]float64, len(bars))
	for i, b := range bars {
		ts.PriceDates[i] = b.Date.Format("2006-01-02")
		ts.PriceNormalizedPct[i] = (b.Close/base - 1.0) * 100
	}
	return ts
}

// BestYearly compares yearly compounded returns of the best system
// and the underlying close, over the years both sides cover.
func BestYearly(ds *sweep.DaySeries, bars []models.Bar) YearlyReturns {
	strategy := ds.YearlyCompounded()
	price := priceYearly(bars)

	years := make([]int, 0, len(strategy))
	for y := range strategy {
		if _, ok := price[y]; ok {
			years = append(years, y)
		}
	}
	sort.Ints(years)

	out := YearlyReturns{
		Years:                 years,
		StrategyCompoundedPct: make([]float64, len(years)),
		PriceCompoundedPct:    make([]float64, len(years)),
	}
	for i, y := range years {
		out.StrategyCompoundedPct[i] = strategy[y] * 100
		out.PriceCompoundedPct[i] = price[y] * 100
	}
	return out
}

// BestSystemHeatmap renders the CAGR matrix at the best system's
// horizon with the winning cell coordinates.
func BestSystemHeatmap(rows []sweep.ResultRow, best sweep.ResultRow) BestHeatmap {
	subset := make([]sweep.ResultRow, 0)
	for _, r := range rows {
		if r.HorizonDays == best.HorizonDays {
			subset = append(subset, r)
		}
	}
	tps := uniqueTPs(subset)
	sls := uniqueSLs(subset)

	cells := make(map[[2]float64]float64, len(subset))
	for _, r := range subset {
		cells[[2]float64{r.TPFrac, r.SLFrac}] = r.CompoundedCAGR * 100
	}
	matrix := make([][]*float64, len(sls))
	for i, sl := range sls {
		row := make([]*float64, len(tps))
		for j, tp := range tps {
			if v, ok := cells[[2]float64{tp, sl}]; ok && !math.IsNaN(v) {
				row[j] = ptr(v)
			}
		}
		matrix[i] = row
	}
	return BestHeatmap{
		Horizon:  best.HorizonDays,
		TPValues: tps,
		SLValues: sls,
		Matrix:   matrix,
		BestTP:   best.TPFrac,
		BestSL:   best.SLFrac,
	}
}

// TradeEvents lists the best system's TP and SL days. Flat expiries
// and no-resolution days are not trades.
func TradeEvents(ds *sweep.DaySeries) []TradeEvent {
	events := make([]TradeEvent, 0)
	for i, scen := range ds.Scenario {
		if scen != sweep.ScenarioTP && scen != sweep.ScenarioSL {
			continue
		}
		events = append(events, TradeEvent{
			Date:     ds.Dates[i].Format("2006-01-02"),
			PnL:      ds.Realized[i],
			PnLPct:   ds.Realized[i] * 100,
			Scenario: scen,
		})
	}
	return events
}

// SummaryText renders the human-readable run summary.
func SummaryText(symbol, start, end string, best sweep.ResultRow, asset sweep.AssetStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "Period: %s to %s\n\n", start, end)

	b.WriteString("Best system by CAGR:\n")
	lines := []struct {
		name  string
		value string
	}{
		{"tp_frac", num(best.TPFrac)},
		{"sl_frac", num(best.SLFrac)},
		{"horizon_days", strconv.Itoa(best.HorizonDays)},
		{"spread", num(best.Spread)},
		{"trades", strconv.Itoa(best.Trades)},
		{"years", num(best.Years)},
		{"pnl_linear", num(best.PnLLinear)},
		{"pnl_linear_per_year", num(best.PnLLinearPerYear)},
		{"pnl_per_trade", num(best.PnLPerTrade)},
		{"label1_ratio", num(best.Label1Ratio)},
		{"max_drawdown", num(best.MaxDrawdown)},
		{"trades_per_year", num(best.TradesPerYear)},
		{"sharpe_annual", num(best.SharpeAnnual)},
		{"calmar_ratio", num(best.CalmarRatio)},
		{"equity_final", num(best.EquityFinal)},
		{"compounded_return", num(best.CompoundedReturn)},
		{"compounded_cagr", num(best.CompoundedCAGR)},
		{"ratio_total_vs_asset", num(best.RatioTotalVsAsset)},
		{"ratio_annual_vs_asset", num(best.RatioAnnualVsAsset)},
		{"ratio_cagr_vs_asset", num(best.RatioCAGRVsAsset)},
	}
	for _, l := range lines {
		fmt.Fprintf(&b, "%-24s%s\n", l.name, l.value)
	}

	b.WriteString("\nUnderlying asset buy & hold:\n")
	fmt.Fprintf(&b, "%s: total=%.2f%%, annual_linear=%.2f%%, annual_CAGR=%.2f%%\n",
		symbol, asset.TotalReturn*100, asset.AnnualLinear*100, asset.AnnualCAGR*100)
	return b.String()
}

func priceYearly(bars []models.Bar) map[int]float64 {
	out := make(map[int]float64)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		r := bars[i].Close/prev - 1.0
		y := bars[i].Date.Year()
		f, seen := out[y]
		if !seen {
			f = 1.0
		}
		out[y] = f * (1.0 + r)
	}
	for y, f := range out {
		out[y] = f - 1.0
	}
	return out
}

func uniqueTPs(rows []sweep.ResultRow) []float64 {
	return uniqueSorted(rows, func(r sweep.ResultRow) float64 { return r.TPFrac })
}

func uniqueSLs(rows []sweep.ResultRow) []float64 {
	return uniqueSorted(rows, func(r sweep.ResultRow) float64 { return r.SLFrac })
}

func uniqueSorted(rows []sweep.ResultRow, pick func(sweep.ResultRow) float64) []float64 {
	seen := make(map[float64]struct{})
	vals := make([]float64, 0)
	for _, r := range rows {
		v := pick(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		vals = append(vals, v)
	}
	sort.Float64s(vals)
	return vals
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func pctPtr(frac float64) *float64 {
	if math.IsNaN(frac) {
		return nil
	}
	v := frac * 100
	return &v
}

func ptr(v float64) *float64 { return &v }

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
