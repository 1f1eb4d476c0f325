package models

import (
	"fmt"
	"time"
)

// Run is a persisted deletion run.
type Run struct {
	ID             string     `json:"id"`
	Sequence       int        `json:"sequence"`
	PlaylistID     string     `json:"playlistId"`
	RequestedCount int        `json:"requestedCount"`
	DeletedCount   int        `json:"deletedCount"`
	SettingsJSON   string     `json:"settings"`
	DryRun         bool       `json:"dryRun"`
	Completed      bool       `json:"completed"`
	ErrorMessage   string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Validate checks the fields required before a run can be stored.
func (r *Run) Validate() error {
	if r.PlaylistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	if r.RequestedCount < 0 || r.DeletedCount < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	return nil
}

// Status summarises the run outcome for display.
func (r *Run) Status() string {
	switch {
	case r.DryRun:
		return "dry-run"
	case r.Completed:
		return "completed"
	case r.FinishedAt == nil:
		return "running"
	default:
		return "failed"
	}
}

// Snapshot records a scan export written to disk.
type Snapshot struct {
	ID                 string    `json:"id"`
	RunID              string    `json:"runId,omitempty"`
	PlaylistID         string    `json:"playlistId"`
	PagesFetched       int       `json:"pagesFetched"`
	UniqueEntries      int       `json:"uniqueEntries"`
	ReportedVideoCount *int      `json:"reportedVideoCount"`
	FilePath           string    `json:"filePath"`
	CreatedAt          time.Time `json:"createdAt"`
}
