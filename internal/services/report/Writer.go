package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/alexandernicoud/we-convolve/internal/logger"
	"github.com/alexandernicoud/we-convolve/internal/models"
	"github.com/alexandernicoud/we-convolve/internal/operations/sweep"
)

// Input bundles everything a full report set is built from.
type Input struct {
	Symbol string
	Start  string
	End    string
	Rows   []sweep.ResultRow
	Asset  sweep.AssetStats
	Bars   []models.Bar
	Sim    *sweep.Simulator
}

// Writer renders the report artifacts of one run into a directory.
type Writer struct {
	dir string
	log logger.Logger
}

func NewWriter(dir string, log logger.Logger) *Writer {
	return &Writer{dir: dir, log: log}
}

type horizonBestFile struct {
	Data []HorizonBest `json:"data"`
}

type tradesFile struct {
	Trades []TradeEvent `json:"trades"`
}

// WriteAll writes the grid-wide reports, then the best-system reports
// when a best system exists. A grid with no defined CAGR is not an
// error, the best-system artifacts are just skipped.
func (w *Writer) WriteAll(in Input) error {
	if len(in.Rows) == 0 {
		w.log.Warn("no result rows, reports skipped", zap.String("symbol", in.Symbol))
		return nil
	}

	artifacts := 0
	save := func(name string, v any) error {
		if err := w.writeJSON(name, v); err != nil {
			return err
		}
		artifacts++
		return nil
	}

	if err := save("voxel_points.json", VoxelPoints(in.Rows)); err != nil {
		return err
	}
	if err := save("voxel_points_top.json", VoxelPointsTop(in.Rows)); err != nil {
		return err
	}
	if err := save("heatmaps_cagr.json", HeatmapsCAGR(in.Rows)); err != nil {
		return err
	}
	if err := save("heatmaps_linear.json", HeatmapsLinear(in.Rows)); err != nil {
		return err
	}
	if err := save("horizon_best.json", horizonBestFile{Data: HorizonBests(in.Rows)}); err != nil {
		return err
	}

	best, ok := sweep.BestByCAGR(in.Rows)
	if !ok {
		w.log.Warn("no combination with a defined CAGR, best-system reports skipped",
			zap.String("symbol", in.Symbol))
		return nil
	}

	if err := save("metrics.json", summaryOf(in.Symbol, in.Start, in.End, best, in.Asset)); err != nil {
		return err
	}
	if err := save("best_system_heatmap.json", BestSystemHeatmap(in.Rows, best)); err != nil {
		return err
	}

	ds, err := in.Sim.DaySeries(sweep.ParameterCombo{
		TPFrac:      best.TPFrac,
		SLFrac:      best.SLFrac,
		HorizonDays: best.HorizonDays,
	})
	if err != nil {
		return fmt.Errorf("report: day series: %w", err)
	}
	if err := save("best_system_timeseries.json", BestTimeseries(ds, in.Bars)); err != nil {
		return err
	}
	if err := save("yearly_compounded.json", BestYearly(ds, in.Bars)); err != nil {
		return err
	}
	if err := save("best_system_trades.json", tradesFile{Trades: TradeEvents(ds)}); err != nil {
		return err
	}

	text := SummaryText(in.Symbol, in.Start, in.End, best, in.Asset)
	if err := os.WriteFile(filepath.Join(w.dir, "summary.txt"), []byte(text), 0o644); err != nil {
		return fmt.Errorf("report: write summary.txt: %w", err)
	}
	artifacts++

	w.log.Info("reports written",
		zap.String("symbol", in.Symbol),
		zap.Int("artifacts", artifacts),
		zap.String("dir", w.dir))
	return nil
}

func (w *Writer) writeJSON(name string, v any) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", name, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("report: encode %s: %w", name, err)
	}
	return f.Close()
}
