package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanMeta contains metadata about a scan run persisted to the history store
type ScanMeta struct {
	ID          string     `json:"id"`
	Target      string     `json:"target"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      ScanStatus `json:"status"`
	OutputDir   string     `json:"output_dir"`
	ReportPath  string     `json:"report_path,omitempty"`
	StagesRun   []string   `json:"stages_run,omitempty"`
}

// NewScanMeta creates scan metadata for a fresh run against target
func NewScanMeta(target string) *ScanMeta {
	return &ScanMeta{
		ID:        uuid.New().String(),
		Target:    target,
		StartedAt: time.Now(),
		Status:    StatusPending,
		StagesRun: []string{},
	}
}
