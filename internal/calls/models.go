package calls

import "time"

// ScheduledCall represents one escape call request tracked by the scheduler.
//
// JSON field names are camelCase because the browser client depends on them;
// do not rename without versioning the API.
//
// NOTE: This is a domain model only. Provider-specific identifiers (like the
// Twilio CallSid) live in ProviderCallID and are never used as the internal id.

type ScheduledCall struct {
	ID          string `json:"id"`
	Destination string `json:"destination"`

	// SpokenText is the message read to the callee. Empty means the
	// process-wide default message is used at execution time.
	SpokenText string `json:"spokenText,omitempty"`

	ScheduledTime time.Time `json:"scheduledTime"`

	Status Status `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	ExecutedAt  *time.Time `json:"executedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	// ProviderCallID is set once the telephony provider accepted the call.
	ProviderCallID string `json:"providerCallId,omitempty"`

	// FailureReason is set when execution failed at the provider boundary.
	FailureReason string `json:"failureReason,omitempty"`
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions may leave the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo enforces the one-directional lifecycle:
//
//	scheduled -> executing -> completed|failed
//	scheduled -> cancelled
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusScheduled:
		return next == StatusExecuting || next == StatusCancelled
	case StatusExecuting:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}
