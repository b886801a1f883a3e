package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/okx-copytrack/internal/api"
	"github.com/rickgao/okx-copytrack/internal/model"
	"github.com/rickgao/okx-copytrack/internal/tracker"
)

// unknownNickname is shown when the trader's display name cannot be resolved.
const unknownNickname = "Unknown"

// PositionSource fetches the raw open-positions payload for one account.
type PositionSource interface {
	GetPositions(ctx context.Context, uid string) (*api.PositionsResponse, error)
}

// NicknameSource resolves an account UID to its public display name.
type NicknameSource interface {
	ResolveNickname(ctx context.Context, uid string) (string, error)
}

// EventHandler consumes the classified events for one account and poll cycle.
type EventHandler interface {
	HandleEvents(account model.TrackedAccount, events []model.PositionEvent) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(account model.TrackedAccount, events []model.PositionEvent) error

func (f HandlerFunc) HandleEvents(account model.TrackedAccount, events []model.PositionEvent) error {
	return f(account, events)
}

// MultiHandler fans events out to several handlers. Every handler sees every
// batch; the first error is returned after all handlers have run.
type MultiHandler []EventHandler

func (m MultiHandler) HandleEvents(account model.TrackedAccount, events []model.PositionEvent) error {
	var firstErr error
	for _, h := range m {
		if err := h.HandleEvents(account, events); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ErrorNotifier reports an unexpected per-account failure to the operator.
type ErrorNotifier interface {
	NotifyError(uid string, err error, pause time.Duration)
}

// Config holds the scheduler settings.
type Config struct {
	// Interval between poll cycles.
	Interval time.Duration

	// Retry controls how failed position fetches are retried.
	Retry RetryPolicy

	// ErrorPause is how long the cycle sleeps after an unexpected
	// per-account error before resuming.
	ErrorPause time.Duration
}

// DefaultConfig returns the production scheduler settings.
func DefaultConfig() Config {
	return Config{
		Interval:   150 * time.Second,
		Retry:      DefaultRetryPolicy(),
		ErrorPause: 60 * time.Second,
	}
}

// Scheduler polls the tracked accounts on a fixed interval, feeds each
// snapshot through the tracker and hands the classified events to the
// handler. Accounts are processed sequentially within a cycle.
type Scheduler struct {
	cfg      Config
	uids     []string
	source   PositionSource
	names    NicknameSource
	trk      *tracker.Tracker
	handler  EventHandler
	notifier ErrorNotifier
	logger   *slog.Logger

	// sleep is swappable so tests can observe delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error

	nicknames map[string]string
	lastCycle atomic.Int64 // unix micros of the last completed cycle

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler for the given accounts. notifier may be
// nil, in which case unexpected errors are only logged.
func NewScheduler(cfg Config, uids []string, source PositionSource, names NicknameSource, trk *tracker.Tracker, handler EventHandler, notifier ErrorNotifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		uids:      uids,
		source:    source,
		names:     names,
		trk:       trk,
		handler:   handler,
		notifier:  notifier,
		logger:    logger,
		sleep:     sleepCtx,
		nicknames: make(map[string]string),
	}
}

// Start launches the poll loop. The first cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.uids) == 0 {
		return fmt.Errorf("no accounts to track")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	s.logger.Info("poll scheduler started",
		"accounts", len(s.uids),
		"interval", s.cfg.Interval)
	return nil
}

// Stop cancels the poll loop and waits for the in-flight cycle to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("poll scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastCycle reports when the most recent poll cycle completed. The zero time
// means no cycle has completed yet.
func (s *Scheduler) LastCycle() time.Time {
	micros := s.lastCycle.Load()
	if micros == 0 {
		return time.Time{}
	}
	return time.UnixMicro(micros)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle polls every tracked account once. An unexpected error for one
// account is reported and aborts the rest of the cycle after a pause; the
// next tick starts fresh.
func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()

	// Nicknames are cached per cycle, so a renamed trader shows up on the
	// next poll.
	s.nicknames = make(map[string]string)

	for _, uid := range s.uids {
		if ctx.Err() != nil {
			return
		}

		if err := s.processAccount(ctx, uid); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("account poll failed",
				"uid", uid,
				"error", err,
				"pause", s.cfg.ErrorPause)
			if s.notifier != nil {
				s.notifier.NotifyError(uid, err, s.cfg.ErrorPause)
			}
			if s.sleep(ctx, s.cfg.ErrorPause) != nil {
				return
			}
			break
		}
	}

	s.lastCycle.Store(time.Now().UnixMicro())
	s.logger.Debug("poll cycle completed",
		"accounts", len(s.uids),
		"elapsed", time.Since(start))
}

// processAccount fetches, normalizes and diffs one account's positions.
// Panics in the fetch or handler paths are converted into errors so a single
// bad account cannot crash the loop.
func (s *Scheduler) processAccount(ctx context.Context, uid string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while polling %s: %v", uid, r)
		}
	}()

	account := model.TrackedAccount{
		UID:         uid,
		DisplayName: s.nickname(ctx, uid),
	}

	resp, err := s.fetchWithRetry(ctx, uid)
	if err != nil {
		return err
	}

	snapshot, err := resp.Normalize()
	if err != nil {
		// A malformed payload is not a tracked change. Skip the cycle
		// for this account and leave its committed state alone.
		s.logger.Warn("skipping cycle, malformed positions payload",
			"uid", uid,
			"error", err)
		return nil
	}

	events := s.trk.Observe(uid, snapshot)
	if len(events) == 0 {
		return nil
	}

	s.logger.Info("position changes detected",
		"uid", uid,
		"nickname", account.DisplayName,
		"events", len(events))

	if err := s.handler.HandleEvents(account, events); err != nil {
		s.logger.Error("event handler failed", "uid", uid, "error", err)
	}
	return nil
}

// fetchWithRetry keeps requesting the account's positions until a fetch
// succeeds or ctx is cancelled. The first MaxFastRetries failures are
// retried after FastDelay; then the loop cools down for CooldownDelay,
// resets the counter and keeps going.
func (s *Scheduler) fetchWithRetry(ctx context.Context, uid string) (*api.PositionsResponse, error) {
	failures := 0

	for {
		resp, err := s.source.GetPositions(ctx, uid)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		failures++
		delay := s.cfg.Retry.FastDelay
		if failures > s.cfg.Retry.MaxFastRetries {
			delay = s.cfg.Retry.CooldownDelay
			failures = 0
			s.logger.Warn("fast retries exhausted, cooling down",
				"uid", uid,
				"cooldown", delay,
				"error", err)
		} else {
			s.logger.Warn("positions fetch failed, retrying",
				"uid", uid,
				"attempt", failures,
				"delay", delay,
				"error", err)
		}

		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// nickname resolves and caches the account's display name for the current
// cycle. Resolution failures fall back to a fixed placeholder.
func (s *Scheduler) nickname(ctx context.Context, uid string) string {
	if name, ok := s.nicknames[uid]; ok {
		return name
	}

	name, err := s.names.ResolveNickname(ctx, uid)
	if err != nil || name == "" {
		s.logger.Warn("nickname resolution failed", "uid", uid, "error", err)
		return unknownNickname
	}

	s.nicknames[uid] = name
	return name
}
