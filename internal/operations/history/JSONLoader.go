package history

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

type jsonBar struct {
	Date  string   `json:"date"`
	Open  *float64 `json:"open"`
	High  *float64 `json:"high"`
	Low   *float64 `json:"low"`
	Close *float64 `json:"close"`
}

// JSONLoader reads bars from a JSON array of {date, open, high, low,
// close} objects. Objects with null or absent prices are dropped.
type JSONLoader struct{}

func (JSONLoader) Extension() string { return "json" }

func (JSONLoader) Load(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer f.Close()

	var raw []jsonBar
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("history: %s: %w", path, err)
	}

	bars := make([]models.Bar, 0, len(raw))
	for _, jb := range raw {
		date, err := parseDate(jb.Date)
		if err != nil {
			return nil, err
		}
		if jb.Open == nil || jb.High == nil || jb.Low == nil || jb.Close == nil {
			continue
		}
		bars = append(bars, models.Bar{
			Date: date, Open: *jb.Open, High: *jb.High, Low: *jb.Low, Close: *jb.Close,
		})
	}
	return bars, nil
}
