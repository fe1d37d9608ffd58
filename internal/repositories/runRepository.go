package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/alexandernicoud/we-convolve/internal/models"
)

type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new instance of RunRepository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create registers a new run record
func (r *RunRepository) Create(run *models.SweepRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.Create(run).Error
}

// GetByRunID retrieves a run by its external id
func (r *RunRepository) GetByRunID(runID string) (*models.SweepRun, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var run models.SweepRun
	err := r.db.Where("run_id = ?", runID).First(&run).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Finish closes a run with its terminal status. The error message is
// only stored for failed runs.
func (r *RunRepository) Finish(runID, status, errMsg string) error {
	if runID == "" {
		return errors.New("invalid run id")
	}
	updates := map[string]interface{}{
		"status":      status,
		"finished_at": time.Now().UTC(),
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	return r.db.Model(&models.SweepRun{}).
		Where("run_id = ?", runID).
		Updates(updates).Error
}

// UpdateCounts records the series and grid sizes once they are known
func (r *RunRepository) UpdateCounts(runID string, bars, gridSize int) error {
	if runID == "" {
		return errors.New("invalid run id")
	}
	return r.db.Model(&models.SweepRun{}).
		Where("run_id = ?", runID).
		Updates(map[string]interface{}{"bars": bars, "grid_size": gridSize}).Error
}

// ListRecent returns the newest runs first
func (r *RunRepository) ListRecent(limit int) ([]models.SweepRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.SweepRun
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
