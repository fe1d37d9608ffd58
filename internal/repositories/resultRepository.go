package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

type ResultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates a new instance of ResultRepository
func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// CreateBatch persists the grid rows of a run in chunks
func (r *ResultRepository) CreateBatch(results []models.SweepResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.CreateInBatches(results, 500).Error
}

// GetByRun returns every stored row of a run in grid order
func (r *ResultRepository) GetByRun(runID string) ([]models.SweepResult, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var results []models.SweepResult
	err := r.db.Where("run_id = ?", runID).
		Order("tp_frac ASC, sl_frac ASC, horizon_days ASC").
		Find(&results).Error
	return results, err
}

// GetCandidatesByRun returns the flagged rows of a run ranked best
// first
func (r *ResultRepository) GetCandidatesByRun(runID string) ([]models.SweepResult, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var results []models.SweepResult
	err := r.db.Where("run_id = ? AND candidate = ?", runID, true).
		Order("rank_score DESC").
		Find(&results).Error
	return results, err
}

// CountByRun returns how many rows a run persisted
func (r *ResultRepository) CountByRun(runID string) (int64, error) {
	if runID == "" {
		return 0, errors.New("invalid run id")
	}
	var n int64
	err := r.db.Model(&models.SweepResult{}).Where("run_id = ?", runID).Count(&n).Error
	return n, err
}

// DeleteByRun removes the rows of a run, used when re-running under
// the same id
func (r *ResultRepository) DeleteByRun(runID string) error {
	if runID == "" {
		return errors.New("invalid run id")
	}
	return r.db.Where("run_id = ?", runID).Delete(&models.SweepResult{}).Error
}
