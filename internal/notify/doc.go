// Package notify turns classified position events into operator-facing
// messages and delivers them through a Sink.
//
// Delivery is fire-and-forget: a failed send is logged and dropped, never
// retried, and never surfaces to the poll cycle. Message formatting mirrors
// the OKX copy-trading web presentation (HTML, PnL indicator, display
// timestamps in a configurable UTC offset).
package notify
