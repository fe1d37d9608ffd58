package sweep

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/alexandernicoud/we-convolve/internal/logger"
	"github.com/alexandernicoud/we-convolve/internal/metrics"
	"github.com/alexandernicoud/we-convolve/internal/models"
)

// ProgressFunc receives sweep progress at the configured combo
// cadence and once more when the last combo lands. Workers call it
// concurrently, so implementations must be safe for concurrent use.
type ProgressFunc func(done, total int, elapsed time.Duration)

// Engine evaluates the full TP x SL x horizon grid over one bar
// series. Combinations are independent, so they fan out over a worker
// pool; each worker keeps a private row buffer merged under one lock
// when it exits. Cancellation is honored between combos, never inside
// one.
type Engine struct {
	cfg    Config
	sim    *Simulator
	symbol string
	log    logger.Logger

	onProgress ProgressFunc
}

func NewEngine(cfg Config, bars []models.Bar, symbol string, log logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		sim:    NewSimulator(cfg, bars),
		symbol: symbol,
		log:    log,
	}
}

// Simulator exposes the engine's simulator for follow-up runs against
// the same series (day series for the best combination).
func (e *Engine) Simulator() *Simulator {
	return e.sim
}

// OnProgress registers the progress callback. Must be set before Run.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.onProgress = fn
}

// Run executes the sweep and returns the collected rows sorted into
// enumeration order (tp, then sl, then horizon), so output is
// deterministic regardless of worker scheduling. Skipped combos
// produce no row. On cancellation the rows finished so far come back
// together with the context error.
func (e *Engine) Run(ctx context.Context) ([]ResultRow, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	total := e.cfg.GridSize()
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total {
		workers = total
	}

	e.log.Info("grid sweep starting",
		zap.String("symbol", e.symbol),
		zap.Int("combos", total),
		zap.Int("workers", workers))

	start := time.Now()
	jobs := make(chan ParameterCombo, 1024)

	var (
		mu   sync.Mutex
		rows = make([]ResultRow, 0, total)
		done int64
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			metrics.WorkersActive.Inc()
			defer metrics.WorkersActive.Dec()

			local := make([]ResultRow, 0, total/workers+1)
			defer func() {
				mu.Lock()
				rows = append(rows, local...)
				mu.Unlock()
			}()

			for {
				select {
				case <-ctx.Done():
					return
				case combo, ok := <-jobs:
					if !ok {
						return
					}
					res, err := e.sim.Run(combo)
					if err != nil {
						// Insufficient data skips the combo.
						metrics.CombosSkipped.Inc()
						e.step(&done, total, start)
						continue
					}
					local = append(local, ResultRow{
						SimulationResult: *res,
						Spread:           res.TPFrac - res.SLFrac,
					})
					metrics.CombosCompleted.WithLabelValues(e.symbol).Inc()
					e.step(&done, total, start)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, tp := range e.cfg.TPValues() {
			for _, sl := range e.cfg.SLValues() {
				for h := e.cfg.HorizonMin; h <= e.cfg.HorizonMax; h++ {
					select {
					case <-ctx.Done():
						return
					case jobs <- ParameterCombo{TPFrac: tp, SLFrac: sl, HorizonDays: h}:
					}
				}
			}
		}
	}()

	wg.Wait()

	sortRows(rows)

	if err := ctx.Err(); err != nil {
		e.log.Warn("grid sweep cancelled",
			zap.String("symbol", e.symbol),
			zap.Int64("completed", atomic.LoadInt64(&done)),
			zap.Int("total", total))
		return rows, err
	}

	e.log.Info("grid sweep finished",
		zap.String("symbol", e.symbol),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))

	return rows, nil
}

func (e *Engine) step(done *int64, total int, start time.Time) {
	n := int(atomic.AddInt64(done, 1))
	if e.onProgress == nil {
		return
	}
	if n%e.cfg.ProgressEvery == 0 || n == total {
		e.onProgress(n, total, time.Since(start))
	}
}

// sortRows restores enumeration order after the parallel collect.
func sortRows(rows []ResultRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TPFrac != b.TPFrac {
			return a.TPFrac < b.TPFrac
		}
		if a.SLFrac != b.SLFrac {
			return a.SLFrac < b.SLFrac
		}
		return a.HorizonDays < b.HorizonDays
	})
}
