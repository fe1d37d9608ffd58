package history

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

// Loader reads a daily OHLC series from one file format.
type Loader interface {
	Load(path string) ([]models.Bar, error)
	Extension() string
}

// NewLoader returns the loader for a format name, nil when the format
// is not supported.
func NewLoader(format string) Loader {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVLoader{}
	case "json":
		return JSONLoader{}
	case "parquet":
		return ParquetLoader{}
	default:
		return nil
	}
}

// ForFile picks a loader from the file extension.
func ForFile(path string) (Loader, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	l := NewLoader(ext)
	if l == nil {
		return nil, fmt.Errorf("history: unsupported file format %q (use csv, json or parquet)", ext)
	}
	return l, nil
}

// LoadFile reads a series with the loader matching the file
// extension, stamps the symbol on every bar, and returns the bars
// sorted by date. A duplicate date is an error, not a silent merge.
func LoadFile(path, symbol string) ([]models.Bar, error) {
	l, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	bars, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("history: no usable bars in %s", path)
	}
	for i := range bars {
		bars[i].Symbol = symbol
	}
	if err := sortAndCheck(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// Clip bounds a series to [start, end): inclusive start, exclusive
// end, the convention daily feeds use. A zero time leaves that side
// open.
func Clip(bars []models.Bar, start, end time.Time) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if !start.IsZero() && b.Date.Before(start) {
			continue
		}
		if !end.IsZero() && !b.Date.Before(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func sortAndCheck(bars []models.Bar) error {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return fmt.Errorf("history: duplicate date %s", bars[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// parseDate accepts plain dates and RFC3339 timestamps.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("history: unparseable date %q", s)
}
