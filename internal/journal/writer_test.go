package journal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/okx-copytrack/internal/model"
)

var journalAccount = model.TrackedAccount{UID: "A1", DisplayName: "WhaleHunter"}

func journalRecord(inst string) model.PositionRecord {
	return model.PositionRecord{
		Instrument: inst,
		Side:       model.SideLong,
		Leverage:   10,
		Size:       25,
		EntryPrice: 97234.1,
		LiqPrice:   88120.5,
		UplRatio:   0.0412,
		UpdatedTS:  1705321845000000,
	}
}

func TestTransform_Opened(t *testing.T) {
	rows := transform(entry{
		account: journalAccount,
		event: model.PositionEvent{
			Type:       model.EventOpened,
			UID:        "A1",
			Instrument: "BTC-USDT-SWAP",
			Record:     journalRecord("BTC-USDT-SWAP"),
			ObservedAt: 1705321900000000,
		},
	})

	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.ID == uuid.Nil {
		t.Error("row ID not assigned")
	}
	if r.EventType != "opened" || r.UID != "A1" || r.Nickname != "WhaleHunter" {
		t.Errorf("row identity = %s/%s/%s", r.EventType, r.UID, r.Nickname)
	}
	if r.Instrument != "BTC-USDT-SWAP" || r.Side != "LONG" || r.Leverage != 10 {
		t.Errorf("row position = %s/%s/%v", r.Instrument, r.Side, r.Leverage)
	}
	if r.EntryPrice != 97234.1 || r.UplRatio != 0.0412 {
		t.Errorf("row prices = %v/%v", r.EntryPrice, r.UplRatio)
	}
	if r.ObservedAt != 1705321900000000 {
		t.Errorf("ObservedAt = %d", r.ObservedAt)
	}
}

func TestTransform_InitialSnapshotExpands(t *testing.T) {
	rows := transform(entry{
		account: journalAccount,
		event: model.PositionEvent{
			Type: model.EventInitialSnapshot,
			UID:  "A1",
			Snapshot: model.Snapshot{
				"BTC-USDT-SWAP": journalRecord("BTC-USDT-SWAP"),
				"ETH-USDT-SWAP": journalRecord("ETH-USDT-SWAP"),
			},
			ObservedAt: 1705321900000000,
		},
	})

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].ID == rows[1].ID {
		t.Error("rows share an ID")
	}
	seen := map[string]bool{}
	for _, r := range rows {
		if r.EventType != "initial_snapshot" {
			t.Errorf("EventType = %q", r.EventType)
		}
		seen[r.Instrument] = true
	}
	if !seen["BTC-USDT-SWAP"] || !seen["ETH-USDT-SWAP"] {
		t.Errorf("instruments = %v", seen)
	}
}

func TestTransform_EmptyInitialSnapshot(t *testing.T) {
	rows := transform(entry{
		account: journalAccount,
		event: model.PositionEvent{
			Type:       model.EventInitialSnapshot,
			UID:        "A1",
			Snapshot:   model.Snapshot{},
			ObservedAt: 1705321900000000,
		},
	})

	// An empty first observation is still journaled.
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Instrument != "" {
		t.Errorf("Instrument = %q, want empty", rows[0].Instrument)
	}
}

func TestStop_FlushesQueuedEvents(t *testing.T) {
	w := NewWriter(DefaultWriterConfig(), nil, nil)

	var mu sync.Mutex
	var inserted int
	var insertCtxErr error
	w.insert = func(ctx context.Context, rows []eventRow) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		inserted += len(rows)
		insertCtxErr = ctx.Err()
		return 0, nil
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	err := w.HandleEvents(journalAccount, []model.PositionEvent{
		{Type: model.EventOpened, Record: journalRecord("BTC-USDT-SWAP")},
		{Type: model.EventClosed, Record: journalRecord("ETH-USDT-SWAP")},
	})
	if err != nil {
		t.Fatalf("HandleEvents failed: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Events queued at shutdown still reach the insert, and on a context
	// that is alive even though the writer's own context is cancelled.
	mu.Lock()
	defer mu.Unlock()
	if inserted != 2 {
		t.Fatalf("inserted rows = %d, want 2", inserted)
	}
	if insertCtxErr != nil {
		t.Errorf("insert ran on a dead context: %v", insertCtxErr)
	}
}

func TestHandleEvents_Enqueues(t *testing.T) {
	w := NewWriter(DefaultWriterConfig(), nil, nil)

	err := w.HandleEvents(journalAccount, []model.PositionEvent{
		{Type: model.EventOpened, Record: journalRecord("BTC-USDT-SWAP")},
		{Type: model.EventClosed, Record: journalRecord("ETH-USDT-SWAP")},
	})
	if err != nil {
		t.Fatalf("HandleEvents failed: %v", err)
	}

	if w.input.Len() != 2 {
		t.Fatalf("buffered = %d, want 2", w.input.Len())
	}
}
