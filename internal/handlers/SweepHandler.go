package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/alexandernicoud/we-convolve/internal/logger"
	"github.com/alexandernicoud/we-convolve/internal/metrics"
	"github.com/alexandernicoud/we-convolve/internal/models"
	"github.com/alexandernicoud/we-convolve/internal/notify"
	"github.com/alexandernicoud/we-convolve/internal/operations/export"
	"github.com/alexandernicoud/we-convolve/internal/operations/history"
	"github.com/alexandernicoud/we-convolve/internal/operations/sweep"
	"github.com/alexandernicoud/we-convolve/internal/repositories"
	"github.com/alexandernicoud/we-convolve/internal/services/report"
)

// SweepRequest describes one sweep invocation. InputPath switches the
// series source from the database to a local file.
type SweepRequest struct {
	Symbol    string
	Start     string
	End       string
	RunID     string
	RunDir    string
	InputPath string
	Formats   []string
	Config    sweep.Config
}

// SweepHandler drives a full run: load the series, sweep the grid,
// rank and export, persist, notify. The repositories and the notifier
// may be nil, a run then only produces files.
type SweepHandler struct {
	barRepo    *repositories.BarRepository
	resultRepo *repositories.ResultRepository
	runRepo    *repositories.RunRepository
	notifier   *notify.Notifier
	log        logger.Logger
}

func NewSweepHandler(
	barRepo *repositories.BarRepository,
	resultRepo *repositories.ResultRepository,
	runRepo *repositories.RunRepository,
	notifier *notify.Notifier,
	log logger.Logger,
) *SweepHandler {
	return &SweepHandler{
		barRepo:    barRepo,
		resultRepo: resultRepo,
		runRepo:    runRepo,
		notifier:   notifier,
		log:        log,
	}
}

// Run executes the sweep pipeline for one request. It returns the
// first hard error; database and Telegram hiccups are logged and do
// not abort a running sweep.
func (h *SweepHandler) Run(ctx context.Context, req SweepRequest) error {
	if req.Symbol == "" {
		return errors.New("sweep: symbol is required")
	}
	if err := req.Config.Validate(); err != nil {
		return err
	}
	savers := make([]export.RowSaver, 0, len(req.Formats))
	for _, f := range req.Formats {
		s := export.NewRowSaver(f)
		if s == nil {
			return fmt.Errorf("sweep: unsupported export format %q", f)
		}
		savers = append(savers, s)
	}

	startT, endT, err := parseRange(req.Start, req.End)
	if err != nil {
		return err
	}

	artifactsDir := filepath.Join(req.RunDir, "artifacts")
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return fmt.Errorf("sweep: create run dir: %w", err)
	}

	total := req.Config.GridSize()
	progress := export.NewProgressWriter(req.RunDir)
	_ = progress.UpdateStep("starting", 0, 0, total)

	h.createRunRecord(req, startT, endT)
	started := time.Now()

	bars, err := h.loadBars(req, startT, endT)
	if err != nil {
		return h.fail(req, err)
	}
	if len(bars) == 0 {
		return h.fail(req, fmt.Errorf("sweep: no bars for %s in %s..%s", req.Symbol, req.Start, req.End))
	}
	h.log.Info("series loaded",
		zap.String("symbol", req.Symbol),
		zap.Int("bars", len(bars)),
		zap.String("first", bars[0].Date.Format("2006-01-02")),
		zap.String("last", bars[len(bars)-1].Date.Format("2006-01-02")))
	h.updateRunCounts(req.RunID, len(bars), total)

	asset, err := sweep.ComputeAssetStats(bars)
	if err != nil {
		return h.fail(req, err)
	}

	h.notifier.RunStarted(req.Symbol, req.RunID, total)

	eng := sweep.NewEngine(req.Config, bars, req.Symbol, h.log)
	eng.OnProgress(func(done, totalCombos int, elapsed time.Duration) {
		pct := float64(done) / float64(totalCombos) * 100.0
		_ = progress.UpdateStep("grid search", pct, done, totalCombos)
	})

	rows, err := eng.Run(ctx)
	if err != nil {
		status := models.SweepRunStatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = models.SweepRunStatusCancelled
		}
		h.finishRun(req.RunID, status, err)
		if status == models.SweepRunStatusFailed {
			h.notifier.RunFailed(req.Symbol, req.RunID, err)
		}
		return err
	}
	if len(rows) == 0 {
		return h.fail(req, fmt.Errorf("sweep: series too short for any combination (%d bars)", len(bars)))
	}

	sweep.ApplyAssetRatios(rows, asset)
	marked := sweep.MarkCandidates(rows, asset, req.Config)
	h.log.Info("grid ranked",
		zap.String("symbol", req.Symbol),
		zap.Int("rows", len(rows)),
		zap.Int("candidates", marked))

	if err := h.exportTables(req, savers, rows, artifactsDir); err != nil {
		return h.fail(req, err)
	}

	writer := report.NewWriter(artifactsDir, h.log)
	err = writer.WriteAll(report.Input{
		Symbol: req.Symbol,
		Start:  req.Start,
		End:    req.End,
		Rows:   rows,
		Asset:  asset,
		Bars:   bars,
		Sim:    eng.Simulator(),
	})
	if err != nil {
		return h.fail(req, err)
	}

	h.persistResults(req, rows)

	elapsed := time.Since(started)
	metrics.RunDuration.WithLabelValues(req.Symbol).Set(elapsed.Seconds())
	h.finishRun(req.RunID, models.SweepRunStatusCompleted, nil)

	if summary, err := report.Summary(req.Symbol, req.Start, req.End, rows, asset); err == nil {
		h.notifier.RunCompleted(summary, elapsed)
	}

	_ = progress.UpdateStep("done", 100, total, total)
	h.log.Info("sweep run finished",
		zap.String("symbol", req.Symbol),
		zap.String("run_id", req.RunID),
		zap.Duration("elapsed", elapsed))
	return nil
}

// loadBars reads the series from the input file when one is given,
// otherwise from the database.
func (h *SweepHandler) loadBars(req SweepRequest, start, end time.Time) ([]models.Bar, error) {
	if req.InputPath != "" {
		bars, err := history.LoadFile(req.InputPath, req.Symbol)
		if err != nil {
			return nil, err
		}
		return history.Clip(bars, start, end), nil
	}
	if h.barRepo == nil {
		return nil, errors.New("sweep: no data source, pass an input file or configure the database")
	}
	return h.barRepo.GetBySymbolRange(req.Symbol, start, end)
}

func (h *SweepHandler) exportTables(req SweepRequest, savers []export.RowSaver, rows []sweep.ResultRow, dir string) error {
	tables := []struct {
		name string
		rows []sweep.ResultRow
	}{
		{req.Symbol + "_grid_full", rows},
		{req.Symbol + "_grid_candidates", sweep.Candidates(rows)},
		{req.Symbol + "_grid_best", sweep.TopByCAGR(rows, req.Config.TopNSave)},
	}
	for _, tbl := range tables {
		records := export.Records(tbl.rows)
		for _, s := range savers {
			path, err := export.WriteTable(s, records, dir, tbl.name)
			if err != nil {
				return err
			}
			h.log.Info("table written",
				zap.String("path", path),
				zap.Int("rows", len(records)))
		}
	}
	return nil
}

func (h *SweepHandler) persistResults(req SweepRequest, rows []sweep.ResultRow) {
	if h.resultRepo == nil {
		return
	}
	if err := h.resultRepo.DeleteByRun(req.RunID); err != nil {
		h.log.Warn("clearing previous rows failed", zap.String("run_id", req.RunID), zap.Error(err))
	}
	if err := h.resultRepo.CreateBatch(sweepResults(req.RunID, req.Symbol, rows)); err != nil {
		h.log.Warn("persisting result rows failed", zap.String("run_id", req.RunID), zap.Error(err))
		return
	}
	h.log.Info("result rows persisted", zap.String("run_id", req.RunID), zap.Int("rows", len(rows)))
}

func (h *SweepHandler) createRunRecord(req SweepRequest, start, end time.Time) {
	if h.runRepo == nil {
		return
	}
	run := &models.SweepRun{
		RunID:     req.RunID,
		Symbol:    req.Symbol,
		Start:     start,
		End:       end,
		GridSize:  req.Config.GridSize(),
		Status:    models.SweepRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := h.runRepo.Create(run); err != nil {
		h.log.Warn("registering run failed", zap.String("run_id", req.RunID), zap.Error(err))
	}
}

func (h *SweepHandler) updateRunCounts(runID string, bars, gridSize int) {
	if h.runRepo == nil {
		return
	}
	if err := h.runRepo.UpdateCounts(runID, bars, gridSize); err != nil {
		h.log.Warn("updating run counts failed", zap.String("run_id", runID), zap.Error(err))
	}
}

func (h *SweepHandler) finishRun(runID, status string, cause error) {
	if h.runRepo == nil {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := h.runRepo.Finish(runID, status, msg); err != nil {
		h.log.Warn("closing run record failed", zap.String("run_id", runID), zap.Error(err))
	}
}

// fail marks the run failed and hands the error back.
func (h *SweepHandler) fail(req SweepRequest, err error) error {
	h.finishRun(req.RunID, models.SweepRunStatusFailed, err)
	h.notifier.RunFailed(req.Symbol, req.RunID, err)
	return err
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	var startT, endT time.Time
	var err error
	if start != "" {
		startT, err = time.Parse("2006-01-02", start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("sweep: bad start date %q: %w", start, err)
		}
	}
	if end != "" {
		endT, err = time.Parse("2006-01-02", end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("sweep: bad end date %q: %w", end, err)
		}
	}
	if !startT.IsZero() && !endT.IsZero() && !startT.Before(endT) {
		return time.Time{}, time.Time{}, fmt.Errorf("sweep: start %s is not before end %s", start, end)
	}
	return startT, endT, nil
}

// sweepResults converts ranked rows into their persistence shape.
func sweepResults(runID, symbol string, rows []sweep.ResultRow) []models.SweepResult {
	out := make([]models.SweepResult, len(rows))
	for i, r := range rows {
		out[i] = models.SweepResult{
			RunID:  runID,
			Symbol: symbol,

			TPFrac:      r.TPFrac,
			SLFrac:      r.SLFrac,
			HorizonDays: r.HorizonDays,
			Spread:      r.Spread,

			Trades:      r.Trades,
			Years:       r.Years,
			Label1Ratio: r.Label1Ratio,

			PnLLinear:        r.PnLLinear,
			PnLLinearPerYear: r.PnLLinearPerYear,
			PnLPerTrade:      r.PnLPerTrade,
			MaxDrawdown:      r.MaxDrawdown,
			TradesPerYear:    r.TradesPerYear,
			SharpeAnnual:     r.SharpeAnnual,
			CalmarRatio:      r.CalmarRatio,
			EquityFinal:      r.EquityFinal,
			CompoundedReturn: r.CompoundedReturn,
			CompoundedCAGR:   r.CompoundedCAGR,

			RatioTotalVsAsset:  r.RatioTotalVsAsset,
			RatioAnnualVsAsset: r.RatioAnnualVsAsset,
			RatioCAGRVsAsset:   r.RatioCAGRVsAsset,

			Candidate: r.Candidate,
			RankScore: r.RankScore,
		}
	}
	return out
}
