package sweep

import (
	"math"
	"sort"
)

// MarkCandidates flags rows that qualify as labeling parameters and
// assigns their rank score, returning the number flagged. All
// threshold comparisons are inclusive; rows with undefined CAGR never
// qualify.
func MarkCandidates(rows []ResultRow, asset AssetStats, cfg Config) int {
	minCAGR := asset.AnnualCAGR - cfg.CandidateCAGRTolerance

	flagged := 0
	for i := range rows {
		r := &rows[i]
		ok := r.Trades >= cfg.CandidateMinTrades &&
			r.Label1Ratio >= cfg.CandidateMinLabel1 &&
			r.Label1Ratio <= cfg.CandidateMaxLabel1 &&
			r.Spread >= cfg.CandidateMinSpread &&
			!math.IsNaN(r.CompoundedCAGR) &&
			r.CompoundedCAGR >= minCAGR

		r.Candidate = ok
		if ok {
			r.RankScore = r.CompoundedCAGR
			flagged++
		} else {
			r.RankScore = math.NaN()
		}
	}
	return flagged
}

// Candidates returns the flagged rows ranked by compounded CAGR
// descending; ties keep enumeration order.
func Candidates(rows []ResultRow) []ResultRow {
	out := make([]ResultRow, 0)
	for _, r := range rows {
		if r.Candidate {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RankScore > out[j].RankScore
	})
	return out
}

// TopByCAGR returns up to n rows with the highest defined compounded
// CAGR, leaving the input untouched.
func TopByCAGR(rows []ResultRow, n int) []ResultRow {
	out := make([]ResultRow, 0, len(rows))
	for _, r := range rows {
		if !math.IsNaN(r.CompoundedCAGR) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompoundedCAGR > out[j].CompoundedCAGR
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// BestByCAGR picks the single highest-CAGR row. ok is false when no
// row has a defined CAGR.
func BestByCAGR(rows []ResultRow) (ResultRow, bool) {
	var best ResultRow
	found := false
	for _, r := range rows {
		if math.IsNaN(r.CompoundedCAGR) {
			continue
		}
		if !found || r.CompoundedCAGR > best.CompoundedCAGR {
			best = r
			found = true
		}
	}
	return best, found
}
