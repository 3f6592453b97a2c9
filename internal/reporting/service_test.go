package reporting

import (
	"testing"
	"time"

	"escapecall/internal/calls"
)

type sliceSource []calls.ScheduledCall

func (s sliceSource) ListHistory() []calls.ScheduledCall { return s }

func TestSummarizeCountsByStatus(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	src := sliceSource{
		{ID: "c1", Status: calls.StatusScheduled, CreatedAt: now},
		{ID: "c2", Status: calls.StatusCompleted, CreatedAt: now.Add(-time.Hour)},
		{ID: "c3", Status: calls.StatusCompleted, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "c4", Status: calls.StatusFailed, CreatedAt: now.Add(-30 * time.Minute)},
		{ID: "c5", Status: calls.StatusCancelled, CreatedAt: now.Add(time.Minute)},
	}
	svc := NewService(src)

	out, err := svc.Summarize()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 5 {
		t.Fatalf("expected 5 calls, got %d", out.TotalCalls)
	}
	if out.ScheduledCalls != 1 || out.CompletedCalls != 2 || out.FailedCalls != 1 || out.CancelledCalls != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.OldestCreatedAt == nil || !out.OldestCreatedAt.Equal(now.Add(-2*time.Hour)) {
		t.Fatalf("unexpected oldest: %v", out.OldestCreatedAt)
	}
	if out.NewestCreatedAt == nil || !out.NewestCreatedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected newest: %v", out.NewestCreatedAt)
	}
}

func TestSummarizeEmptyHistory(t *testing.T) {
	svc := NewService(sliceSource{})
	out, err := svc.Summarize()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 0 || out.OldestCreatedAt != nil || out.NewestCreatedAt != nil {
		t.Fatalf("expected zero summary, got %+v", out)
	}
}

func TestSummarizeRequiresSource(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.Summarize(); err == nil {
		t.Fatalf("expected error without a source")
	}
}
