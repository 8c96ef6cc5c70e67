package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// DedupRun records one batch execution of the detection pipeline.
type DedupRun struct {
	ID             string     `json:"id" db:"id"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at" db:"finished_at"`
	Status         RunStatus  `json:"status" db:"status"`
	ListingsTotal  int        `json:"listings_total" db:"listings_total"`
	ListingsValid  int        `json:"listings_valid" db:"listings_valid"`
	Rejected       int        `json:"rejected" db:"rejected"`
	ClustersTotal  int        `json:"clusters_total" db:"clusters_total"`
	DuplicateSets  int        `json:"duplicate_sets" db:"duplicate_sets"` // clusters with 2+ members
	BlockWarnings  int        `json:"block_warnings" db:"block_warnings"`
	ErrorMessage   string     `json:"error_message" db:"error_message"`
}
