package markprice

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RESTSource fetches a mark price over HTTP. Used when the cache has no
// fresh value for an instrument.
type RESTSource interface {
	GetMarkPrice(ctx context.Context, instID string) (string, error)
}

type cacheEntry struct {
	price string
	at    time.Time
}

// Cache holds the latest mark price per instrument. Values are fed by the
// Subscriber and read by the notification path, so access is guarded.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	ttl      time.Duration
	fallback RESTSource
	logger   *slog.Logger

	now func() time.Time
}

// NewCache creates a Cache. fallback may be nil, in which case a stale or
// missing entry is a lookup failure.
func NewCache(fallback RESTSource, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries:  make(map[string]cacheEntry),
		ttl:      time.Minute,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// Set stores the latest price for an instrument.
func (c *Cache) Set(instID, price string) {
	c.mu.Lock()
	c.entries[instID] = cacheEntry{price: price, at: c.now()}
	c.mu.Unlock()
}

// Len reports how many instruments have a cached price.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MarkPrice returns the freshest known price for instID. A cached value
// within the TTL wins; otherwise the REST fallback is consulted and its
// answer cached.
func (c *Cache) MarkPrice(ctx context.Context, instID string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[instID]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.at) <= c.ttl {
		return entry.price, nil
	}

	if c.fallback == nil {
		if ok {
			// Stale is still better than nothing.
			return entry.price, nil
		}
		return "", ErrNoPrice
	}

	price, err := c.fallback.GetMarkPrice(ctx, instID)
	if err != nil {
		if ok {
			c.logger.Debug("rest fallback failed, serving stale price",
				"instrument", instID,
				"age", c.now().Sub(entry.at))
			return entry.price, nil
		}
		return "", err
	}

	c.Set(instID, price)
	return price, nil
}
