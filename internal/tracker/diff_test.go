package tracker

import (
	"testing"

	"github.com/rickgao/okx-copytrack/internal/model"
)

func record(inst string, side model.Side, entry float64) model.PositionRecord {
	return model.PositionRecord{
		Instrument: inst,
		Side:       side,
		Leverage:   10,
		Size:       25,
		EntryPrice: entry,
		UpdatedTS:  1705321845000000,
	}
}

func TestDiff_NoChange(t *testing.T) {
	s := model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000),
		"ETH-USDT-SWAP": record("ETH-USDT-SWAP", model.SideShort, 3200),
	}

	events := Diff(s, s, false)
	if len(events) != 0 {
		t.Errorf("len(events) = %d, want 0", len(events))
	}
}

func TestDiff_FirstObservation(t *testing.T) {
	curr := model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000),
	}

	events := Diff(model.Snapshot{}, curr, true)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Type != model.EventInitialSnapshot {
		t.Errorf("Type = %q, want initial_snapshot", ev.Type)
	}
	if len(ev.Snapshot) != 1 {
		t.Errorf("len(Snapshot) = %d, want 1", len(ev.Snapshot))
	}
}

func TestDiff_FirstObservationEmpty(t *testing.T) {
	events := Diff(model.Snapshot{}, model.Snapshot{}, true)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Type != model.EventInitialSnapshot {
		t.Errorf("Type = %q, want initial_snapshot", events[0].Type)
	}
	if len(events[0].Snapshot) != 0 {
		t.Errorf("len(Snapshot) = %d, want 0 (no positions found)", len(events[0].Snapshot))
	}
}

// Even when first is true and prev is non-empty, only an InitialSnapshot may
// be emitted. This covers restart behavior: state is rebuilt, never diffed
// against a phantom previous snapshot.
func TestDiff_FirstObservationSuppressesOpenedClosed(t *testing.T) {
	prev := model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000),
	}
	curr := model.Snapshot{
		"ETH-USDT-SWAP": record("ETH-USDT-SWAP", model.SideShort, 3200),
	}

	events := Diff(prev, curr, true)
	if len(events) != 1 || events[0].Type != model.EventInitialSnapshot {
		t.Fatalf("events = %+v, want single InitialSnapshot", events)
	}
}

func TestDiff_Opened(t *testing.T) {
	prev := model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000),
	}
	curr := model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000),
		"ETH-USDT-SWAP": record("ETH-USDT-SWAP", model.SideShort, 3200),
	}

	events := Diff(prev, curr, false)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Type != model.EventOpened {
		t.Errorf("Type = %q, want opened", ev.Type)
	}
	if ev.Instrument != "ETH-USDT-SWAP" {
		t.Errorf("Instrument = %q, want ETH-USDT-SWAP", ev.Instrument)
	}
	if ev.Record.EntryPrice != 3200 {
		t.Errorf("Record.EntryPrice = %v, want 3200", ev.Record.EntryPrice)
	}
}

func TestDiff_ClosedCarriesPreviousRecord(t *testing.T) {
	prev := model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000),
		"ETH-USDT-SWAP": record("ETH-USDT-SWAP", model.SideShort, 3200),
	}
	// BTC is gone; ETH's record has drifted, which must not matter.
	curr := model.Snapshot{
		"ETH-USDT-SWAP": record("ETH-USDT-SWAP", model.SideShort, 3250),
	}

	events := Diff(prev, curr, false)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Type != model.EventClosed {
		t.Errorf("Type = %q, want closed", ev.Type)
	}
	if ev.Instrument != "BTC-USDT-SWAP" {
		t.Errorf("Instrument = %q, want BTC-USDT-SWAP", ev.Instrument)
	}
	if ev.Record.EntryPrice != 97000 {
		t.Errorf("Record.EntryPrice = %v, want the previous snapshot's 97000", ev.Record.EntryPrice)
	}
}

func TestDiff_OpenedAndClosedTogether(t *testing.T) {
	prev := model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000),
	}
	curr := model.Snapshot{
		"SOL-USDT-SWAP": record("SOL-USDT-SWAP", model.SideLong, 187),
	}

	events := Diff(prev, curr, false)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}

	byType := map[model.EventType]model.PositionEvent{}
	for _, ev := range events {
		byType[ev.Type] = ev
	}
	if byType[model.EventOpened].Instrument != "SOL-USDT-SWAP" {
		t.Errorf("opened instrument = %q, want SOL-USDT-SWAP", byType[model.EventOpened].Instrument)
	}
	if byType[model.EventClosed].Instrument != "BTC-USDT-SWAP" {
		t.Errorf("closed instrument = %q, want BTC-USDT-SWAP", byType[model.EventClosed].Instrument)
	}
}

// TestObserve_Scenario walks one account through three polls:
// initial snapshot, an open, then a close.
func TestObserve_Scenario(t *testing.T) {
	tr := New()
	tr.nowMicro = func() int64 { return 1705321845000000 }
	uid := "ABC123"

	// Poll 1: {BTC} -> one InitialSnapshot listing BTC, nothing else.
	events := tr.Observe(uid, model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000),
	})
	if len(events) != 1 || events[0].Type != model.EventInitialSnapshot {
		t.Fatalf("poll 1 events = %+v, want single InitialSnapshot", events)
	}
	if events[0].UID != uid {
		t.Errorf("UID = %q, want %q", events[0].UID, uid)
	}
	if events[0].ObservedAt != 1705321845000000 {
		t.Errorf("ObservedAt = %d, want 1705321845000000", events[0].ObservedAt)
	}

	// Poll 2: {BTC, ETH} -> one Opened(ETH) only.
	events = tr.Observe(uid, model.Snapshot{
		"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97100),
		"ETH-USDT-SWAP": record("ETH-USDT-SWAP", model.SideShort, 3200),
	})
	if len(events) != 1 {
		t.Fatalf("poll 2 events = %+v, want single Opened", events)
	}
	if events[0].Type != model.EventOpened || events[0].Instrument != "ETH-USDT-SWAP" {
		t.Errorf("poll 2 event = %+v, want Opened(ETH-USDT-SWAP)", events[0])
	}

	// Poll 3: {ETH} -> one Closed(BTC) carrying poll 2's BTC record.
	events = tr.Observe(uid, model.Snapshot{
		"ETH-USDT-SWAP": record("ETH-USDT-SWAP", model.SideShort, 3200),
	})
	if len(events) != 1 {
		t.Fatalf("poll 3 events = %+v, want single Closed", events)
	}
	if events[0].Type != model.EventClosed || events[0].Instrument != "BTC-USDT-SWAP" {
		t.Errorf("poll 3 event = %+v, want Closed(BTC-USDT-SWAP)", events[0])
	}
	if events[0].Record.EntryPrice != 97100 {
		t.Errorf("closed record entry = %v, want poll 2's 97100", events[0].Record.EntryPrice)
	}
}

func TestObserve_IndependentAccounts(t *testing.T) {
	tr := New()

	ev1 := tr.Observe("A", model.Snapshot{"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000)})
	ev2 := tr.Observe("B", model.Snapshot{})

	if len(ev1) != 1 || ev1[0].Type != model.EventInitialSnapshot {
		t.Errorf("account A events = %+v, want InitialSnapshot", ev1)
	}
	if len(ev2) != 1 || ev2[0].Type != model.EventInitialSnapshot {
		t.Errorf("account B events = %+v, want InitialSnapshot", ev2)
	}

	// A second observation of B with a position is an Opened, not initial.
	ev2 = tr.Observe("B", model.Snapshot{"ETH-USDT-SWAP": record("ETH-USDT-SWAP", model.SideLong, 3200)})
	if len(ev2) != 1 || ev2[0].Type != model.EventOpened {
		t.Errorf("account B second poll = %+v, want Opened", ev2)
	}
}

func TestPositions(t *testing.T) {
	tr := New()

	if _, ok := tr.Positions("A"); ok {
		t.Error("Positions before any observation = ok, want !ok")
	}

	tr.Observe("A", model.Snapshot{"BTC-USDT-SWAP": record("BTC-USDT-SWAP", model.SideLong, 97000)})

	snap, ok := tr.Positions("A")
	if !ok {
		t.Fatal("Positions after observation = !ok, want ok")
	}
	if len(snap) != 1 {
		t.Errorf("len(snap) = %d, want 1", len(snap))
	}

	// The returned snapshot is a copy; mutating it must not affect state.
	delete(snap, "BTC-USDT-SWAP")
	snap2, _ := tr.Positions("A")
	if len(snap2) != 1 {
		t.Error("Positions returned a reference to internal state")
	}
}

func TestObserved(t *testing.T) {
	tr := New()
	if tr.Observed() != 0 {
		t.Errorf("Observed() = %d, want 0", tr.Observed())
	}
	tr.Observe("A", model.Snapshot{})
	tr.Observe("B", model.Snapshot{})
	if tr.Observed() != 2 {
		t.Errorf("Observed() = %d, want 2", tr.Observed())
	}
}
