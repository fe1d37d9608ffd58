package history

import (
	"fmt"
	"math"

	"github.com/parquet-go/parquet-go"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

type parquetBar struct {
	Date  string  `parquet:"date"`
	Open  float64 `parquet:"open"`
	High  float64 `parquet:"high"`
	Low   float64 `parquet:"low"`
	Close float64 `parquet:"close"`
}

// ParquetLoader reads bars from a parquet file with the same column
// set the CSV loader expects.
type ParquetLoader struct{}

func (ParquetLoader) Extension() string { return "parquet" }

func (ParquetLoader) Load(path string) ([]models.Bar, error) {
	rows, err := parquet.ReadFile[parquetBar](path)
	if err != nil {
		return nil, fmt.Errorf("history: %s: %w", path, err)
	}

	bars := make([]models.Bar, 0, len(rows))
	for _, pb := range rows {
		date, err := parseDate(pb.Date)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(pb.Open) || math.IsNaN(pb.High) || math.IsNaN(pb.Low) || math.IsNaN(pb.Close) {
			continue
		}
		bars = append(bars, models.Bar{
			Date: date, Open: pb.Open, High: pb.High, Low: pb.Low, Close: pb.Close,
		})
	}
	return bars, nil
}
