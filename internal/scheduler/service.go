package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"escapecall/internal/calls"
	"escapecall/internal/telephony"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Delay bounds for scheduled calls, in minutes.
const (
	MinDelayMinutes = 1
	MaxDelayMinutes = 1440
)

// DefaultRetentionCap is how many terminal (completed/failed) entries are kept.
const DefaultRetentionCap = 100

var (
	ErrInvalidDestination = errors.New("scheduler: destination must be E.164, e.g. +15551234567")
	ErrInvalidDelay       = errors.New("scheduler: delay must be between 1 and 1440 minutes")
	ErrNotFound           = errors.New("scheduler: scheduled call not found")
	ErrInvalidState       = errors.New("scheduler: call is not in a cancellable state")
)

// Config controls scheduler behavior. Zero values get safe defaults.
type Config struct {
	// DefaultMessage is spoken when a call carries no message of its own.
	DefaultMessage string

	// RetentionCap bounds terminal history entries (completed + failed).
	RetentionCap int

	// GatewayTimeout bounds each provider call made from a timer fire.
	GatewayTimeout time.Duration

	// Location is the timezone for the periodic prune job.
	Location *time.Location
}

func (c Config) withDefaults() Config {
	out := c
	if out.DefaultMessage == "" {
		out.DefaultMessage = telephony.DefaultEscapeMessage
	}
	if out.RetentionCap <= 0 {
		out.RetentionCap = DefaultRetentionCap
	}
	if out.GatewayTimeout <= 0 {
		out.GatewayTimeout = 15 * time.Second
	}
	if out.Location == nil {
		out.Location = time.UTC
	}
	return out
}

// Service owns the in-memory registry of escape calls and their timers.
//
// Invariants:
// - At most one armed timer per call id; the handle is released
//   unconditionally when the timer fires or the call is cancelled.
// - Status transitions go through calls.Status.CanTransitionTo; a cancel
//   racing a fire is resolved by whichever transition is applied first.
//
// The registry lives and dies with the process. Nothing is persisted.
type Service struct {
	mu      sync.Mutex
	entries map[string]*calls.ScheduledCall
	timers  map[string]*time.Timer

	provider telephony.Provider
	log      *slog.Logger
	cfg      Config
	clock    func() time.Time

	cron *cron.Cron
}

func New(provider telephony.Provider, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		entries:  map[string]*calls.ScheduledCall{},
		timers:   map[string]*time.Timer{},
		provider: provider,
		log:      log,
		cfg:      cfg.withDefaults(),
		clock:    time.Now,
	}
}

// Start launches the hourly retention prune. Safe to call once.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}
	s.cron = cron.New(cron.WithLocation(s.cfg.Location))
	_, err := s.cron.AddFunc("0 * * * *", func() {
		if n := s.PruneHistory(); n > 0 {
			s.log.Info("pruned call history", "removed", n)
		}
	})
	if err != nil {
		// The spec string is a constant; a parse failure is a programming error.
		s.log.Error("prune job registration failed", "err", err)
		return
	}
	s.cron.Start()
}

// Stop disarms every pending timer and halts the prune job.
// Pending calls stay in the registry but will not fire again.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
}

// Schedule registers a call to be placed delayMinutes from now and arms its timer.
func (s *Service) Schedule(destination, spokenText string, delayMinutes int) (calls.ScheduledCall, error) {
	if !telephony.ValidDestination(destination) {
		return calls.ScheduledCall{}, ErrInvalidDestination
	}
	if delayMinutes < MinDelayMinutes || delayMinutes > MaxDelayMinutes {
		return calls.ScheduledCall{}, ErrInvalidDelay
	}

	now := s.clock().UTC()
	delay := time.Duration(delayMinutes) * time.Minute
	entry := &calls.ScheduledCall{
		ID:            uuid.NewString(),
		Destination:   destination,
		SpokenText:    spokenText,
		ScheduledTime: now.Add(delay),
		Status:        calls.StatusScheduled,
		CreatedAt:     now,
	}

	s.mu.Lock()
	s.entries[entry.ID] = entry
	id := entry.ID
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id) })
	snapshot := *entry
	s.mu.Unlock()

	s.log.Info("call scheduled",
		"call_id", entry.ID,
		"scheduled_time", entry.ScheduledTime,
		"delay_minutes", delayMinutes,
	)
	return snapshot, nil
}

// fire executes one scheduled call. It runs on the timer goroutine.
//
// The timer handle is released before anything else so a failed gateway call
// can never leave an armed timer behind. The status re-check under the same
// lock closes the race with Cancel.
func (s *Service) fire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	entry, ok := s.entries[id]
	if !ok || !entry.Status.CanTransitionTo(calls.StatusExecuting) {
		// Cancelled (or pruned) between arming and firing; nothing to do.
		s.mu.Unlock()
		return
	}
	entry.Status = calls.StatusExecuting
	req := telephony.PlaceCallRequest{To: entry.Destination, SpokenText: entry.SpokenText}
	s.mu.Unlock()

	if req.SpokenText == "" {
		req.SpokenText = s.cfg.DefaultMessage
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GatewayTimeout)
	defer cancel()
	res, err := s.provider.PlaceCall(ctx, req)

	executedAt := s.clock().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ExecutedAt = &executedAt
	if err != nil {
		entry.Status = calls.StatusFailed
		entry.FailureReason = err.Error()
		s.log.Error("scheduled call failed", "call_id", id, "err", err)
		return
	}
	entry.Status = calls.StatusCompleted
	entry.ProviderCallID = res.ProviderCallID
	s.log.Info("scheduled call executed", "call_id", id, "provider_call_id", res.ProviderCallID)
}

// ListPending returns calls that are still scheduled and not yet due.
// Entries whose fire time elapsed but whose status has not flipped yet are
// excluded so clients never render a stale countdown.
func (s *Service) ListPending() []calls.ScheduledCall {
	now := s.clock().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]calls.ScheduledCall, 0)
	for _, e := range s.entries {
		if e.Status == calls.StatusScheduled && e.ScheduledTime.After(now) {
			out = append(out, *e)
		}
	}
	sortByCreatedAtDesc(out)
	return out
}

// ListHistory returns every known entry, most recent first.
func (s *Service) ListHistory() []calls.ScheduledCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]calls.ScheduledCall, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sortByCreatedAtDesc(out)
	return out
}

// Get returns a single entry by id.
func (s *Service) Get(id string) (calls.ScheduledCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return calls.ScheduledCall{}, ErrNotFound
	}
	return *e, nil
}

// Cancel disarms and cancels a scheduled call.
// Returns ErrNotFound for unknown ids and ErrInvalidState once the call has
// started executing or reached a terminal state.
func (s *Service) Cancel(id string) (calls.ScheduledCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return calls.ScheduledCall{}, ErrNotFound
	}
	if !entry.Status.CanTransitionTo(calls.StatusCancelled) {
		return calls.ScheduledCall{}, ErrInvalidState
	}

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	now := s.clock().UTC()
	entry.Status = calls.StatusCancelled
	entry.CancelledAt = &now

	s.log.Info("call cancelled", "call_id", id)
	return *entry, nil
}

// PruneHistory drops the oldest completed/failed entries beyond the retention
// cap. Scheduled, executing and cancelled entries are never touched.
// Returns the number of removed entries.
func (s *Service) PruneHistory() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var terminal []*calls.ScheduledCall
	for _, e := range s.entries {
		if e.Status == calls.StatusCompleted || e.Status == calls.StatusFailed {
			terminal = append(terminal, e)
		}
	}
	excess := len(terminal) - s.cfg.RetentionCap
	if excess <= 0 {
		return 0
	}

	sort.Slice(terminal, func(i, j int) bool {
		if terminal[i].CreatedAt.Equal(terminal[j].CreatedAt) {
			return terminal[i].ID < terminal[j].ID
		}
		return terminal[i].CreatedAt.Before(terminal[j].CreatedAt)
	})
	for _, e := range terminal[:excess] {
		delete(s.entries, e.ID)
	}
	return excess
}

func sortByCreatedAtDesc(entries []calls.ScheduledCall) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
