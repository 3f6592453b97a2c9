package reporting

import "time"

// Summary aggregates the scheduler's registry by lifecycle status.
// It is computed on demand; nothing is stored.

type Summary struct {
	TotalCalls int `json:"totalCalls"`

	ScheduledCalls int `json:"scheduledCalls"`
	ExecutingCalls int `json:"executingCalls"`
	CompletedCalls int `json:"completedCalls"`
	FailedCalls    int `json:"failedCalls"`
	CancelledCalls int `json:"cancelledCalls"`

	OldestCreatedAt *time.Time `json:"oldestCreatedAt,omitempty"`
	NewestCreatedAt *time.Time `json:"newestCreatedAt,omitempty"`
}
