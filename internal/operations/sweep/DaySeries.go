package sweep

import "time"

// DaySeries re-runs one combination recording per-bar realized
// returns and resolution labels instead of aggregate statistics. It
// backs the best-system reports: equity curves, yearly tables and the
// per-trade export. Position handling is identical to Run.
func (s *Simulator) DaySeries(combo ParameterCombo) (*DaySeries, error) {
	n := len(s.bars)
	if n < 3 {
		return nil, ErrInsufficientData
	}

	h := combo.HorizonDays
	if h < 1 {
		h = 1
	}
	w := 1.0 / float64(h)

	ds := &DaySeries{
		Dates:    make([]time.Time, n),
		Realized: make([]float64, n),
		Scenario: make([]string, n),
	}
	for i, b := range s.bars {
		ds.Dates[i] = b.Date
	}

	positions := make([]openPosition, 0, h+1)

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
			scen := ScenarioFLAT
			switch out {
			case +1:
				r = combo.TPFrac
				scen = ScenarioTP
			case -1:
				r = -combo.SLFrac
				scen = ScenarioSL
			}

			ds.Realized[i] += w*r - w*s.costFrac
			ds.Scenario[i] = scen
		}
		positions = keep
	}

	return ds, nil
}

// CompoundedCurve folds the realized series into a compounded equity
// curve starting at 1.0, floored at 0 like the simulator's equity.
func (d *DaySeries) CompoundedCurve() []float64 {
	eq := 1.0
	out := make([]float64, len(d.Realized))
	for i, r := range d.Realized {
		eq *= 1.0 + r
		if eq < 0 {
			eq = 0
		}
		out[i] = eq
	}
	return out
}

// LinearCurve is the running sum of realized returns.
func (d *DaySeries) LinearCurve() []float64 {
	sum := 0.0
	out := make([]float64, len(d.Realized))
	for i, r := range d.Realized {
		sum += r
		out[i] = sum
	}
	return out
}

// YearlyCompounded compounds realized returns within each calendar
// year: prod(1+r) - 1.
func (d *DaySeries) YearlyCompounded() map[int]float64 {
	out := make(map[int]float64)
	for i, r := range d.Realized {
		y := d.Dates[i].Year()
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
