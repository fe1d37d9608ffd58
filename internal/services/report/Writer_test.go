package report

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexandernicoud/we-convolve/internal/logger"
	"github.com/alexandernicoud/we-convolve/internal/models"
	"github.com/alexandernicoud/we-convolve/internal/operations/sweep"
)

func wavyBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		mid := 100.0 + 10.0*math.Sin(float64(i)/5.0)
		bars[i] = models.Bar{
			Date:  day(i),
			Open:  mid,
			High:  mid * 1.04,
			Low:   mid * 0.96,
			Close: mid * 1.01,
		}
	}
	return bars
}

func reportConfig() sweep.Config {
	cfg := sweep.NewConfig()
	cfg.TPMin, cfg.TPMax, cfg.TPSteps = 0.02, 0.06, 3
	cfg.SLMin, cfg.SLMax, cfg.SLSteps = 0.02, 0.04, 2
	cfg.HorizonMin, cfg.HorizonMax = 1, 4
	cfg.FeeRate = 0
	cfg.SpreadRate = 0
	cfg.Workers = 2
	return cfg
}

func TestWriterWriteAll(t *testing.T) {
	bars := wavyBars(120)
	cfg := reportConfig()

	rows, err := sweep.NewEngine(cfg, bars, "TEST", logger.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	asset, err := sweep.ComputeAssetStats(bars)
	if err != nil {
		t.Fatalf("asset stats: %v", err)
	}

	dir := t.TempDir()
	w := NewWriter(dir, logger.NewNop())
	err = w.WriteAll(Input{
		Symbol: "TEST",
		Start:  "2020-01-01",
		End:    "2020-04-30",
		Rows:   rows,
		Asset:  asset,
		Bars:   bars,
		Sim:    sweep.NewSimulator(cfg, bars),
	})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	for _, name := range []string{
		"voxel_points.json",
		"voxel_points_top.json",
		"heatmaps_cagr.json",
		"heatmaps_linear.json",
		"horizon_best.json",
		"metrics.json",
		"best_system_heatmap.json",
		"best_system_timeseries.json",
		"yearly_compounded.json",
		"best_system_trades.json",
		"summary.txt",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "voxel_points.json"))
	if err != nil {
		t.Fatal(err)
	}
	var points []VoxelPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		t.Fatalf("voxel_points.json: %v", err)
	}
	if len(points) != len(rows) {
		t.Errorf("voxel points = %d, want %d", len(points), len(rows))
	}

	raw, err = os.ReadFile(filepath.Join(dir, "metrics.json"))
	if err != nil {
		t.Fatal(err)
	}
	var m SummaryMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("metrics.json: %v", err)
	}
	if m.Symbol != "TEST" || m.Start != "2020-01-01" {
		t.Errorf("metrics identity = %q/%q", m.Symbol, m.Start)
	}
	if m.BestH < cfg.HorizonMin || m.BestH > cfg.HorizonMax {
		t.Errorf("BestH = %d outside grid", m.BestH)
	}
	if math.IsNaN(m.BestCAGR) {
		t.Error("BestCAGR must be defined for the chosen system")
	}

	raw, err = os.ReadFile(filepath.Join(dir, "best_system_timeseries.json"))
	if err != nil {
		t.Fatal(err)
	}
	var ts Timeseries
	if err := json.Unmarshal(raw, &ts); err != nil {
		t.Fatalf("best_system_timeseries.json: %v", err)
	}
	if len(ts.Dates) != len(bars) || len(ts.PriceDates) != len(bars) {
		t.Errorf("timeseries lengths = %d/%d, want %d", len(ts.Dates), len(ts.PriceDates), len(bars))
	}
}

func TestWriterSkipsEmptyGrid(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.NewNop())
	if err := w.WriteAll(Input{Symbol: "EMPTY"}); err != nil {
		t.Fatalf("WriteAll on empty rows: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no artifacts, found %d", len(entries))
	}
}

func TestWriterGridWideOnlyWithoutBest(t *testing.T) {
	rows := []sweep.ResultRow{mkRow(0.1, 0.05, 1, math.NaN())}
	dir := t.TempDir()
	w := NewWriter(dir, logger.NewNop())
	err := w.WriteAll(Input{Symbol: "NANLAND", Rows: rows})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "voxel_points.json")); err != nil {
		t.Errorf("grid-wide artifact missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "metrics.json")); !os.IsNotExist(err) {
		t.Errorf("metrics.json should be skipped without a defined CAGR")
	}
	if _, err := os.Stat(filepath.Join(dir, "summary.txt")); !os.IsNotExist(err) {
		t.Errorf("summary.txt should be skipped without a defined CAGR")
	}
}
