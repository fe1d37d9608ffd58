package sweep

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alexandernicoud/we-convolve/internal/logger"
	"github.com/alexandernicoud/we-convolve/internal/models"
)

// wavyBars builds a gently oscillating series so TP, SL and expiry
// outcomes all occur across the small test grids.
func wavyBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		base := 100 + 3*math.Sin(float64(i)/3)
		bars[i] = models.Bar{
			Date: day(i),
			Open: base, High: base * 1.04, Low: base * 0.97, Close: base,
		}
	}
	return bars
}

// smallGridConfig is 3 x 2 x 4 = 24 combinations.
func smallGridConfig() Config {
	cfg := NewConfig()
	cfg.TPMin, cfg.TPMax, cfg.TPSteps = 0.01, 0.03, 3
	cfg.SLMin, cfg.SLMax, cfg.SLSteps = 0.01, 0.02, 2
	cfg.HorizonMin, cfg.HorizonMax = 1, 4
	cfg.ProgressEvery = 7
	cfg.Workers = 3
	return cfg
}

func TestEngineGridCompleteness(t *testing.T) {
	cfg := smallGridConfig()
	eng := NewEngine(cfg, wavyBars(40), "TEST", logger.NewNop())

	rows, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows) != cfg.GridSize() {
		t.Fatalf("rows = %d, want %d", len(rows), cfg.GridSize())
	}

	// Exactly one row per combination, back in enumeration order.
	k := 0
	for _, tp := range cfg.TPValues() {
		for _, sl := range cfg.SLValues() {
			for h := cfg.HorizonMin; h <= cfg.HorizonMax; h++ {
				r := rows[k]
				if r.TPFrac != tp || r.SLFrac != sl || r.HorizonDays != h {
					t.Fatalf("row %d = (%v, %v, %d), want (%v, %v, %d)",
						k, r.TPFrac, r.SLFrac, r.HorizonDays, tp, sl, h)
				}
				if want := tp - sl; r.Spread != want {
					t.Errorf("row %d spread = %v, want %v", k, r.Spread, want)
				}
				k++
			}
		}
	}
}

func TestEngineRunsAreReproducible(t *testing.T) {
	cfg := smallGridConfig()
	bars := wavyBars(40)

	first, err := NewEngine(cfg, bars, "TEST", logger.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := NewEngine(cfg, bars, "TEST", logger.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if !sameResult(&a.SimulationResult, &b.SimulationResult) ||
			math.Float64bits(a.Spread) != math.Float64bits(b.Spread) {
			t.Fatalf("row %d diverged between runs:\n%+v\n%+v", i, a, b)
		}
	}
}

func TestEngineProgressCadence(t *testing.T) {
	cfg := smallGridConfig() // 24 combos at cadence 7
	eng := NewEngine(cfg, wavyBars(40), "TEST", logger.NewNop())

	var (
		mu    sync.Mutex
		calls []int
	)
	eng.OnProgress(func(done, total int, elapsed time.Duration) {
		if total != cfg.GridSize() {
			t.Errorf("reported total = %d, want %d", total, cfg.GridSize())
		}
		if elapsed < 0 {
			t.Errorf("negative elapsed %v", elapsed)
		}
		mu.Lock()
		calls = append(calls, done)
		mu.Unlock()
	})

	if _, err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sort.Ints(calls)
	want := []int{7, 14, 21, 24}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("progress calls = %v, want %v", calls, want)
		}
	}
}

func TestEngineHonorsPreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := smallGridConfig()
	rows, err := NewEngine(cfg, wavyBars(40), "TEST", logger.NewNop()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rows) > cfg.GridSize() {
		t.Fatalf("rows = %d exceed the grid", len(rows))
	}
}

func TestEngineCancellationMidRun(t *testing.T) {
	// Far more combinations than the job buffer holds, so the
	// producer is still feeding when the cancel lands.
	cfg := NewConfig()
	cfg.TPMin, cfg.TPMax, cfg.TPSteps = 0.01, 0.10, 10
	cfg.SLMin, cfg.SLMax, cfg.SLSteps = 0.01, 0.10, 10
	cfg.HorizonMin, cfg.HorizonMax = 1, 40
	cfg.ProgressEvery = 1
	cfg.Workers = 2

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := NewEngine(cfg, wavyBars(60), "TEST", logger.NewNop())
	var once sync.Once
	eng.OnProgress(func(done, total int, _ time.Duration) {
		if done >= 10 {
			once.Do(cancel)
		}
	})

	rows, err := eng.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rows) >= cfg.GridSize() {
		t.Fatalf("cancelled run still produced all %d rows", len(rows))
	}
	// Partial output keeps enumeration order.
	for i := 1; i < len(rows); i++ {
		if rows[i-1].TPFrac > rows[i].TPFrac {
			t.Fatalf("partial rows unsorted at %d", i)
		}
	}
}

func TestEngineRejectsBadConfig(t *testing.T) {
	cfg := smallGridConfig()
	cfg.TPSteps = 0
	rows, err := NewEngine(cfg, wavyBars(10), "TEST", logger.NewNop()).Run(context.Background())
	if err == nil {
		t.Fatal("bad config accepted")
	}
	if rows != nil {
		t.Fatalf("rows = %v, want none", rows)
	}
}

func TestEngineSkipsShortSeries(t *testing.T) {
	cfg := smallGridConfig()
	rows, err := NewEngine(cfg, wavyBars(2), "TEST", logger.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d from a 2-bar series, want 0", len(rows))
	}
}
