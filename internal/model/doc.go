// Package model defines shared data types used across the position tracker.
//
// Conventions:
//   - Numeric position fields are parsed from OKX string payloads into float64
//   - Timestamps: int64 microseconds since Unix epoch
//   - Instruments: OKX instrument IDs (e.g., "BTC-USDT-SWAP")
package model
