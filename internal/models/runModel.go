package models

import "time"

type SweepRun struct {
	ID     uint   `gorm:"primaryKey"`
	RunID  string `gorm:"uniqueIndex;not null"`
	Symbol string `gorm:"index;not null"`

	Start time.Time
	End   time.Time

	Bars     int
	GridSize int

	Status string `gorm:"not null"`
	Error  string

	StartedAt  time.Time `gorm:"index;not null"`
	FinishedAt time.Time
}

const (
	SweepRunStatusRunning   = "running"
	SweepRunStatusCompleted = "completed"
	SweepRunStatusFailed    = "failed"
	SweepRunStatusCancelled = "cancelled"
)

// TableName sets the table name for SweepRun model
func (SweepRun) TableName() string {
	return "sweep_runs"
}
