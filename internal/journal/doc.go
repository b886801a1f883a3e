// Package journal persists every classified position event to Postgres. It
// is an optional handler: events are enqueued into an in-memory buffer and
// written in batches, so a slow or unavailable database never stalls the
// poll cycle. Rows are deduplicated on insert, which makes replays after a
// crash harmless.
package journal
