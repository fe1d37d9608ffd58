package sweep

import (
	"errors"
	"math"
	"time"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

// ErrInsufficientData marks a series too short to simulate. The grid
// run skips the combination and continues.
var ErrInsufficientData = errors.New("insufficient data: need at least 3 bars")

// Simulator runs the parallel-position TP/SL model over a fixed bar
// series: one new position opens at every bar's Open, sized 1/horizon,
// and resolves by take-profit, stop-loss, or horizon expiry. The
// Simulator is immutable after construction, so a single instance is
// shared across workers.
type Simulator struct {
	bars     []models.Bar
	cfg      Config
	costFrac float64
}

func NewSimulator(cfg Config, bars []models.Bar) *Simulator {
	return &Simulator{
		bars:     bars,
		cfg:      cfg,
		costFrac: cfg.TotalCostFrac(),
	}
}

// openPosition is the in-flight state of one opened position.
type openPosition struct {
	tpLevel     float64
	slLevel     float64
	expiryIndex int
}

// resolve classifies a position against one bar: +1 take-profit,
// -1 stop-loss, 0 flat expiry. ok is false while the position stays
// open. When both levels are inside the bar's range the configured
// ambiguous-fill policy decides.
func (s *Simulator) resolve(p openPosition, i int, hi, lo float64) (out int, ok bool) {
	hitTP := hi >= p.tpLevel
	hitSL := lo <= p.slLevel

	switch {
	case hitTP && hitSL:
		if s.cfg.AmbiguousFill == FillTPFirst {
			return +1, true
		}
		return -1, true
	case hitSL:
		return -1, true
	case hitTP:
		return +1, true
	case i >= p.expiryIndex:
		return 0, true
	}
	return 0, false
}

// Run simulates one combination and returns its aggregate statistics.
//
// Bars are processed strictly in order: equity, drawdown and the open
// set are path dependent, which is why a single combination is never
// parallelized. Flat expiries pay the resolution cost and move both
// equity curves but are not trades; only TP/SL resolutions feed the
// trade tally and the running mean/variance.
func (s *Simulator) Run(combo ParameterCombo) (*SimulationResult, error) {
	n := len(s.bars)
	if n < 3 {
		return nil, ErrInsufficientData
	}

	h := combo.HorizonDays
	if h < 1 {
		h = 1
	}
	w := 1.0 / float64(h)
	years := yearsBetween(s.bars[0].Date, s.bars[n-1].Date)

	var (
		trades      int
		label1Count int

		pnlLinearSum float64
		equityLin    = 1.0
		maxEquityLin = 1.0
		ddMin        float64

		meanR float64
		m2    float64

		equityComp = s.cfg.StartCapital
	)

	// Index-addressed open set, compacted in place each bar: the
	// still-open prefix is rebuilt at positions[:0] while scanning.
	positions := make([]openPosition, 0, h+1)

	// Entries price at Open[i], so the first bar only seeds history.
	for i := 1; i < n; i++ {
		entry := s.bars[i].Open
		expiry := i + h - 1
		if expiry > n-1 {
			expiry = n - 1
		}
		positions = append(positions, openPosition{
			tpLevel:     entry * (1.0 + combo.TPFrac),
			slLevel:     entry * (1.0 - combo.SLFrac),
			expiryIndex: expiry,
		})

		hi := s.bars[i].High
		lo := s.bars[i].Low

		keep := positions[:0]
		for _, p := range positions {
			out, ok := s.resolve(p, i, hi, lo)
			if !ok {
				keep = append(keep, p)
				continue
			}

			var r float64
			switch out {
			case +1:
				r = combo.TPFrac
				trades++
				label1Count++
			case -1:
				r = -combo.SLFrac
				trades++
			}

			effR := w*r - w*s.costFrac

			pnlLinearSum += effR
			equityLin += effR
			if equityLin < 0 {
				equityLin = 0
			}
			if equityLin > maxEquityLin {
				maxEquityLin = equityLin
			}
			if dd := equityLin - maxEquityLin; dd < ddMin {
				ddMin = dd
			}

			if out != 0 {
				delta := effR - meanR
				meanR += delta / float64(trades)
				m2 += delta * (effR - meanR)
			}

			equityComp *= 1.0 + effR
			if equityComp < 0 {
				equityComp = 0
			}
		}
		positions = keep
	}

	label1Ratio := 0.0
	if trades > 0 {
		label1Ratio = float64(label1Count) / float64(trades)
	}

	maxDD := -ddMin
	if maxDD > 1.0 {
		maxDD = 1.0
	}

	pnlPerYear := pnlLinearSum / years
	tradesPerYear := float64(trades) / years

	sharpe := math.NaN()
	if trades > 1 {
		variance := m2 / float64(trades-1)
		stdR := 0.0
		if variance > 0 {
			stdR = math.Sqrt(variance)
		}
		if stdR > 1e-12 {
			sharpe = meanR / stdR * math.Sqrt(tradesPerYear)
		}
	}

	compReturn := equityComp/s.cfg.StartCapital - 1.0
	compCAGR := math.NaN()
	if compReturn > -0.999999 {
		compCAGR = math.Pow(1.0+compReturn, 1.0/years) - 1.0
	}

	calmar := math.NaN()
	if maxDD > 1e-9 {
		calmar = pnlPerYear / maxDD
	}

	return &SimulationResult{
		TPFrac:           combo.TPFrac,
		SLFrac:           combo.SLFrac,
		HorizonDays:      h,
		Trades:           trades,
		Years:            years,
		PnLLinear:        pnlLinearSum,
		PnLLinearPerYear: pnlPerYear,
		PnLPerTrade:      meanR,
		Label1Ratio:      label1Ratio,
		MaxDrawdown:      maxDD,
		TradesPerYear:    tradesPerYear,
		SharpeAnnual:     sharpe,
		CalmarRatio:      calmar,
		EquityFinal:      equityComp,
		CompoundedReturn: compReturn,
		CompoundedCAGR:   compCAGR,
	}, nil
}

// yearsBetween measures the calendar span in 365.25-day years,
// floored at a tiny epsilon so per-year ratios stay finite.
func yearsBetween(first, last time.Time) float64 {
	years := last.Sub(first).Hours() / 24.0 / 365.25
	if years < 1e-9 {
		years = 1e-9
	}
	return years
}
