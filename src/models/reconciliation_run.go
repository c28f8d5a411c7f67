package models

import (
	"time"

	"github.com/google/uuid"
)

type RunMode string

const (
	RunModeDailySync        RunMode = "daily-sync"
	RunModeBackfillRange    RunMode = "backfill-range"
	RunModeQuantityRefresh  RunMode = "quantity-refresh"
	RunModeYearRangeRefresh RunMode = "year-range-refresh"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// ReconciliationRun is the persisted report of one pipeline execution.
type ReconciliationRun struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Mode       RunMode    `db:"mode" json:"mode"`
	Status     RunStatus  `db:"status" json:"status"`
	RunDate    time.Time  `db:"run_date" json:"runDate"`
	StartDate  *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate    *time.Time `db:"end_date" json:"endDate,omitempty"`
	Created    int        `db:"created" json:"created"`
	Retained   int        `db:"retained" json:"retained"`
	Removed    int        `db:"removed" json:"removed"`
	Upserted   int        `db:"upserted" json:"upserted"`
	Skipped    int        `db:"skipped" json:"skipped"`
	Details    []byte     `db:"details" json:"-"`
	Error      string     `db:"error" json:"error,omitempty"`
	StartedAt  time.Time  `db:"started_at" json:"startedAt"`
	FinishedAt *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
}
