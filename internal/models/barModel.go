package models

import (
	"time"
)

type Bar struct {
	ID     uint      `gorm:"primaryKey"`
	Symbol string    `gorm:"uniqueIndex:idx_bars_symbol_date;not null"`
	Date   time.Time `gorm:"uniqueIndex:idx_bars_symbol_date;not null"`
	Open   float64   `gorm:"type:decimal(20,8);not null"`
	High   float64   `gorm:"type:decimal(20,8);not null"`
	Low    float64   `gorm:"type:decimal(20,8);not null"`
	Close  float64   `gorm:"type:decimal(20,8);not null"`
}

// TableName sets the table name for Bar model
func (Bar) TableName() string {
	return "bars"
}
