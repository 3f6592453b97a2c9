package reporting

import (
	"errors"

	"escapecall/internal/calls"
)

// HistorySource abstracts where call records come from.
// The scheduler's registry satisfies it; tests use a slice-backed fake.
type HistorySource interface {
	ListHistory() []calls.ScheduledCall
}

type Service struct {
	src HistorySource
}

func NewService(src HistorySource) *Service { return &Service{src: src} }

// Summarize folds the full history into per-status counts.
func (s *Service) Summarize() (Summary, error) {
	if s.src == nil {
		return Summary{}, errors.New("reporting: history source not configured")
	}

	out := Summary{}
	for _, c := range s.src.ListHistory() {
		out.TotalCalls++
		switch c.Status {
		case calls.StatusScheduled:
			out.ScheduledCalls++
		case calls.StatusExecuting:
			out.ExecutingCalls++
		case calls.StatusCompleted:
			out.CompletedCalls++
		case calls.StatusFailed:
			out.FailedCalls++
		case calls.StatusCancelled:
			out.CancelledCalls++
		}

		created := c.CreatedAt
		if out.OldestCreatedAt == nil || created.Before(*out.OldestCreatedAt) {
			t := created
			out.OldestCreatedAt = &t
		}
		if out.NewestCreatedAt == nil || created.After(*out.NewestCreatedAt) {
			t := created
			out.NewestCreatedAt = &t
		}
	}
	return out, nil
}
