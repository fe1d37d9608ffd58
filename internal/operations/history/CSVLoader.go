package history

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

// CSVLoader reads bars from a CSV file whose header carries at least
// date, open, high, low and close columns (any casing). Extra columns
// are ignored; rows with missing or non-numeric prices are dropped
// the way a feed with gaps would be.
type CSVLoader struct{}

func (CSVLoader) Extension() string { return "csv" }

func (CSVLoader) Load(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("history: %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("history: %s has no data rows", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("history: %s is missing column %q", path, col)
		}
	}

	bars := make([]models.Bar, 0, len(records)-1)
	for _, rec := range records[1:] {
		date, err := parseDate(rec[idx["date"]])
		if err != nil {
			return nil, err
		}
		o, err1 := parsePrice(rec[idx["open"]])
		h, err2 := parsePrice(rec[idx["high"]])
		l, err3 := parsePrice(rec[idx["low"]])
		c, err4 := parsePrice(rec[idx["close"]])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		bars = append(bars, models.Bar{Date: date, Open: o, High: h, Low: l, Close: c})
	}
	return bars, nil
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("history: NaN price")
	}
	return v, nil
}
