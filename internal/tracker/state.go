package tracker

import (
	"sync"
	"time"

	"github.com/rickgao/okx-copytrack/internal/model"
)

// accountState remembers the last committed snapshot for one account.
type accountState struct {
	snapshot model.Snapshot
	first    bool
}

// Tracker owns the per-account states for the life of the process.
//
// The poll scheduler is the only mutator and processes accounts sequentially;
// the mutex exists so the health endpoint can read state concurrently. State
// is never persisted; a restart rebuilds it from the first poll of each
// account.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*accountState

	nowMicro func() int64 // stubbed in tests
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		states:   make(map[string]*accountState),
		nowMicro: func() int64 { return time.Now().UnixMicro() },
	}
}

// Observe diffs the freshly fetched snapshot against the stored state for the
// account, commits the new snapshot, and returns the classified events.
//
// The returned Closed events carry records from the snapshot as it was before
// this call; the commit happens only after the diff, so a caller never sees a
// partially-updated record.
func (t *Tracker) Observe(uid string, snapshot model.Snapshot) []model.PositionEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[uid]
	if !ok {
		st = &accountState{snapshot: model.Snapshot{}, first: true}
		t.states[uid] = st
	}

	events := Diff(st.snapshot, snapshot, st.first)

	now := t.nowMicro()
	for i := range events {
		events[i].UID = uid
		events[i].ObservedAt = now
	}

	st.snapshot = snapshot.Clone()
	st.first = false

	return events
}

// Positions returns a copy of the last committed snapshot for the account.
// The second result is false when the account has not been observed yet.
func (t *Tracker) Positions(uid string) (model.Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.states[uid]
	if !ok || st.first {
		return nil, false
	}
	return st.snapshot.Clone(), true
}

// Observed returns how many accounts have at least one committed snapshot.
func (t *Tracker) Observed() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, st := range t.states {
		if !st.first {
			n++
		}
	}
	return n
}
