package models

import "time"

const (
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// ScanRun records one full-tree reconciliation pass
type ScanRun struct {
	ID   string `gorm:"primaryKey;type:text"`
	Root string `gorm:"type:text;not null"`

	// State tracking
	Status   string `gorm:"type:text;not null;index"`
	Created  int64  `gorm:"default:0"`
	Existing int64  `gorm:"default:0"`
	Skipped  int64  `gorm:"default:0"`
	Error    string `gorm:"type:text"`

	StartedAt  time.Time
	FinishedAt *time.Time
}
