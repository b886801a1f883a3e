// Package poller drives the periodic position polling cycle. A Scheduler
// fetches each tracked account's open positions on a fixed interval, feeds
// them through the tracker to classify changes, and fans the resulting
// events out to the registered handlers.
//
// Transient fetch failures are retried in place with a short delay; once the
// fast retries are exhausted the scheduler backs off into a long cooldown and
// keeps trying. Unexpected per-account errors pause the cycle briefly and are
// reported through the dispatcher, so one misbehaving account cannot take the
// process down.
package poller
