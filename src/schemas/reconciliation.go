package schemas

import (
	"time"

	"portfolio/src/models"

	"github.com/google/uuid"
)

// RowSkip records a snapshot row or security that did not contribute to a run, and why.
type RowSkip struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

type RunRequest struct {
	ID        uuid.UUID      `json:"id"`
	Mode      models.RunMode `json:"mode"`
	StartDate *time.Time     `json:"startDate,omitempty"`
	EndDate   *time.Time     `json:"endDate,omitempty"`
}

type RunReport struct {
	ID        uuid.UUID        `json:"id"`
	Mode      models.RunMode   `json:"mode"`
	Status    models.RunStatus `json:"status"`
	RunDate   time.Time        `json:"runDate"`
	StartDate *time.Time       `json:"startDate,omitempty"`
	EndDate   *time.Time       `json:"endDate,omitempty"`
	Created   int              `json:"created"`
	Retained  int              `json:"retained"`
	Removed   int              `json:"removed"`
	Upserted  int              `json:"upserted"`
	Skipped   []RowSkip        `json:"skipped"`
	Fallbacks []RowSkip        `json:"fallbacks,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type RunAccepted struct {
	ID   uuid.UUID      `json:"id"`
	Mode models.RunMode `json:"mode"`
}
