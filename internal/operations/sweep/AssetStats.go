package sweep

import (
	"math"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

// ComputeAssetStats derives buy-and-hold statistics for the series:
// total close-to-close return, its linear annualization, and CAGR.
func ComputeAssetStats(bars []models.Bar) (AssetStats, error) {
	if len(bars) < 2 {
		return AssetStats{}, ErrInsufficientData
	}
	first := bars[0].Close
	last := bars[len(bars)-1].Close
	years := yearsBetween(bars[0].Date, bars[len(bars)-1].Date)

	total := last/first - 1.0
	return AssetStats{
		TotalReturn:  total,
		AnnualLinear: total / years,
		AnnualCAGR:   math.Pow(1.0+total, 1.0/years) - 1.0,
		Years:        years,
	}, nil
}

// ApplyAssetRatios fills each row's benchmark ratio columns. A ratio
// against a near-zero benchmark is NaN, not a division blow-up.
func ApplyAssetRatios(rows []ResultRow, asset AssetStats) {
	for i := range rows {
		rows[i].RatioTotalVsAsset = guardedRatio(rows[i].PnLLinear, asset.TotalReturn)
		rows[i].RatioAnnualVsAsset = guardedRatio(rows[i].PnLLinearPerYear, asset.AnnualLinear)
		rows[i].RatioCAGRVsAsset = guardedRatio(rows[i].CompoundedCAGR, asset.AnnualCAGR)
	}
}

func guardedRatio(num, den float64) float64 {
	if math.Abs(den) <= 1e-12 {
		return math.NaN()
	}
	return num / den
}
