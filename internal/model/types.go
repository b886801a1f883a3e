package model

// Side indicates the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// SideFromRaw derives a Side from the raw posSide field.
// OKX reports "long", "short", or "net"; anything other than "long" maps to SHORT.
func SideFromRaw(raw string) Side {
	if raw == "long" {
		return SideLong
	}
	return SideShort
}

// TrackedAccount identifies one copy-trading lead account being monitored.
type TrackedAccount struct {
	UID         string // Opaque account identifier (OKX uniqueName)
	DisplayName string // Nickname resolved per cycle, "Unknown" when unavailable
}

// PositionRecord is one open position within an account's snapshot.
type PositionRecord struct {
	Instrument string  // Instrument ID, unique within a snapshot
	Side       Side    // LONG or SHORT
	Leverage   float64 // Position leverage
	Size       float64 // Raw position size (contracts)
	EntryPrice float64 // Average entry price
	LiqPrice   float64 // Estimated liquidation price
	UplRatio   float64 // Unrealized PnL as a signed fraction (0.05 = +5%)
	UpdatedTS  int64   // Last position update (µs since epoch)
}

// Snapshot is the complete set of an account's open positions at one poll,
// keyed by instrument ID.
type Snapshot map[string]PositionRecord

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Instruments returns the snapshot's instrument IDs in unspecified order.
func (s Snapshot) Instruments() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
