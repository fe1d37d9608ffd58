package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

type BarRepository struct {
	db *gorm.DB
}

// NewBarRepository creates a new instance of BarRepository
func NewBarRepository(db *gorm.DB) *BarRepository {
	return &BarRepository{db: db}
}

// Create adds a single Bar record to the database
func (r *BarRepository) Create(bar *models.Bar) error {
	if bar == nil {
		return errors.New("bar cannot be nil")
	}
	return r.db.Create(bar).Error
}

// CreateBatch inserts a series of bars in chunks
func (r *BarRepository) CreateBatch(bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	return r.db.CreateInBatches(bars, 500).Error
}

// GetBySymbolRange returns the bars of a symbol ordered by date.
// Start is inclusive, end exclusive; a zero time leaves that side
// open.
func (r *BarRepository) GetBySymbolRange(symbol string, start, end time.Time) ([]models.Bar, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}

	q := r.db.Where("symbol = ?", symbol)
	if !start.IsZero() {
		q = q.Where("date >= ?", start)
	}
	if !end.IsZero() {
		q = q.Where("date < ?", end)
	}

	var bars []models.Bar
	err := q.Order("date ASC").Find(&bars).Error
	return bars, err
}

// CountBySymbol returns how many bars are stored for a symbol
func (r *BarRepository) CountBySymbol(symbol string) (int64, error) {
	if symbol == "" {
		return 0, errors.New("invalid symbol")
	}
	var n int64
	err := r.db.Model(&models.Bar{}).Where("symbol = ?", symbol).Count(&n).Error
	return n, err
}

// LatestDate returns the newest bar date of a symbol, nil when none
// is stored
func (r *BarRepository) LatestDate(symbol string) (*time.Time, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var bar models.Bar
	err := r.db.Where("symbol = ?", symbol).
		Order("date DESC").
		First(&bar).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bar.Date, nil
}

// DeleteBySymbol removes every bar of a symbol, used before a fresh
// import
func (r *BarRepository) DeleteBySymbol(symbol string) error {
	if symbol == "" {
		return errors.New("invalid symbol")
	}
	return r.db.Where("symbol = ?", symbol).Delete(&models.Bar{}).Error
}
