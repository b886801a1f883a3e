// Package tracker implements the position change-detection core.
//
// It remembers the last committed snapshot per tracked account and classifies
// each newly observed snapshot into events:
//   - Opened: instrument present now, absent before
//   - Closed: instrument absent now, present before (carries the last known record)
//   - InitialSnapshot: first successful observation since process start
//
// Instruments present in both snapshots are silent; there is no
// "still open" event every cycle.
package tracker
