package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadFileCSV(t *testing.T) {
	path := writeFile(t, "bars.csv",
		"Date,Open,High,Low,Close,Volume\n"+
			"2020-01-03,102,103,101,102.5,9\n"+
			"2020-01-02,100,101,99,100.5,7\n"+
			"2020-01-04,,104,102,103,1\n")

	bars, err := LoadFile(path, "BTCUSDT")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2 (row with missing open dropped)", len(bars))
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Error("bars not sorted by date")
	}
	if bars[0].Open != 100 || bars[1].Close != 102.5 {
		t.Errorf("unexpected values: %+v", bars)
	}
	for _, b := range bars {
		if b.Symbol != "BTCUSDT" {
			t.Fatalf("symbol not stamped: %+v", b)
		}
	}
}

func TestLoadFileCSVMissingColumn(t *testing.T) {
	path := writeFile(t, "bars.csv", "date,open,high,low\n2020-01-02,1,2,0\n")
	if _, err := LoadFile(path, "X"); err == nil {
		t.Fatal("missing close column accepted")
	}
}

func TestLoadFileDuplicateDate(t *testing.T) {
	path := writeFile(t, "bars.csv",
		"date,open,high,low,close\n2020-01-02,1,2,0,1\n2020-01-02,1,2,0,1\n")
	if _, err := LoadFile(path, "X"); err == nil {
		t.Fatal("duplicate date accepted")
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "bars.json", `[
		{"date": "2020-01-02", "open": 100, "high": 101, "low": 99, "close": 100.5},
		{"date": "2020-01-03", "open": 102, "high": 103, "low": 101, "close": null},
		{"date": "2020-01-04", "open": 103, "high": 104, "low": 102, "close": 103.5}
	]`)

	bars, err := LoadFile(path, "ETHUSDT")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2 (null close dropped)", len(bars))
	}
	if bars[1].Open != 103 {
		t.Errorf("bars[1] = %+v", bars[1])
	}
}

func TestLoadFileParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.parquet")
	rows := []parquetBar{
		{Date: "2020-01-02", Open: 100, High: 101, Low: 99, Close: 100.5},
		{Date: "2020-01-03", Open: 102, High: 103, Low: 101, Close: 102.5},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("write parquet fixture: %v", err)
	}

	bars, err := LoadFile(path, "SOLUSDT")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(bars) != 2 || bars[0].Close != 100.5 || bars[1].Symbol != "SOLUSDT" {
		t.Fatalf("bars = %+v", bars)
	}
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	if _, err := LoadFile("bars.xlsx", "X"); err == nil {
		t.Fatal("xlsx accepted")
	}
}

func TestNewLoaderFormats(t *testing.T) {
	if NewLoader("avro") != nil {
		t.Fatal("unknown format returned a loader")
	}
	if l := NewLoader(" CSV "); l == nil || l.Extension() != "csv" {
		t.Fatal("format matching is not case and space insensitive")
	}
}

func TestLoadFileEmptySeries(t *testing.T) {
	path := writeFile(t, "bars.csv", "date,open,high,low,close\n2020-01-02,,,,\n")
	if _, err := LoadFile(path, "X"); err == nil {
		t.Fatal("series with no usable bars accepted")
	}
}

func TestClip(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2020, 1, day, 0, 0, 0, 0, time.UTC) }
	bars := []models.Bar{{Date: d(1)}, {Date: d(2)}, {Date: d(3)}, {Date: d(4)}}

	got := Clip(bars, d(2), d(4))
	if len(got) != 2 || !got[0].Date.Equal(d(2)) || !got[1].Date.Equal(d(3)) {
		t.Fatalf("clip [2,4) = %+v", got)
	}
	if got := Clip(bars, time.Time{}, time.Time{}); len(got) != 4 {
		t.Fatalf("open clip = %d bars, want all 4", len(got))
	}
	if got := Clip(bars, d(3), time.Time{}); len(got) != 2 {
		t.Fatalf("open-ended clip = %d bars, want 2", len(got))
	}
}
