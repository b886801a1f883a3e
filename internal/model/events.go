package model

// EventType classifies a position transition detected between two polls.
type EventType string

const (
	// EventOpened - instrument present now, absent in the previous snapshot.
	EventOpened EventType = "opened"

	// EventClosed - instrument absent now, present in the previous snapshot.
	EventClosed EventType = "closed"

	// EventInitialSnapshot - first successful poll for the account since
	// process start. Emitted exactly once per account, even when the
	// snapshot is empty.
	EventInitialSnapshot EventType = "initial_snapshot"
)

// PositionEvent is one classified transition for one account.
//
// Opened and Closed events carry a single Record. A Closed record always comes
// from the snapshot preceding the close: the position is no longer fetchable
// once it disappears from the account's current snapshot.
// InitialSnapshot events carry the full Snapshot instead.
type PositionEvent struct {
	Type       EventType
	UID        string         // Account the event belongs to
	Instrument string         // Empty for InitialSnapshot
	Record     PositionRecord // Zero value for InitialSnapshot
	Snapshot   Snapshot       // Nil except for InitialSnapshot
	ObservedAt int64          // When the diff cycle ran (µs since epoch)
}
