// Package markprice maintains live mark prices for the instruments held by
// the tracked accounts. A Subscriber keeps one WebSocket connection to the
// OKX public feed, subscribes to the mark-price channel per instrument and
// writes every push into the Cache. Lookups that miss the cache fall back to
// the REST endpoint, so a flapping stream degrades to slower prices rather
// than missing ones.
package markprice
