package markprice

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeREST struct {
	price string
	err   error
	calls int
}

func (f *fakeREST) GetMarkPrice(ctx context.Context, instID string) (string, error) {
	f.calls++
	return f.price, f.err
}

func TestCache_FreshValueSkipsFallback(t *testing.T) {
	rest := &fakeREST{price: "97000"}
	c := NewCache(rest, nil)

	c.Set("BTC-USDT-SWAP", "97301.2")

	px, err := c.MarkPrice(context.Background(), "BTC-USDT-SWAP")
	if err != nil {
		t.Fatalf("MarkPrice failed: %v", err)
	}
	if px != "97301.2" {
		t.Errorf("price = %q, want 97301.2", px)
	}
	if rest.calls != 0 {
		t.Errorf("fallback calls = %d, want 0", rest.calls)
	}
}

func TestCache_MissUsesFallbackAndCaches(t *testing.T) {
	rest := &fakeREST{price: "97000"}
	c := NewCache(rest, nil)

	px, err := c.MarkPrice(context.Background(), "BTC-USDT-SWAP")
	if err != nil {
		t.Fatalf("MarkPrice failed: %v", err)
	}
	if px != "97000" {
		t.Errorf("price = %q, want 97000", px)
	}

	// Second lookup is served from the cache.
	if _, err := c.MarkPrice(context.Background(), "BTC-USDT-SWAP"); err != nil {
		t.Fatalf("second MarkPrice failed: %v", err)
	}
	if rest.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", rest.calls)
	}
}

func TestCache_StaleValueRefreshed(t *testing.T) {
	rest := &fakeREST{price: "97500"}
	c := NewCache(rest, nil)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("BTC-USDT-SWAP", "97301.2")

	// Push the clock past the TTL.
	c.now = func() time.Time { return now.Add(2 * time.Minute) }

	px, err := c.MarkPrice(context.Background(), "BTC-USDT-SWAP")
	if err != nil {
		t.Fatalf("MarkPrice failed: %v", err)
	}
	if px != "97500" {
		t.Errorf("price = %q, want refreshed 97500", px)
	}
	if rest.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", rest.calls)
	}
}

func TestCache_FallbackFailureServesStale(t *testing.T) {
	rest := &fakeREST{err: errors.New("status 503")}
	c := NewCache(rest, nil)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("BTC-USDT-SWAP", "97301.2")
	c.now = func() time.Time { return now.Add(2 * time.Minute) }

	px, err := c.MarkPrice(context.Background(), "BTC-USDT-SWAP")
	if err != nil {
		t.Fatalf("MarkPrice failed: %v", err)
	}
	if px != "97301.2" {
		t.Errorf("price = %q, want stale 97301.2", px)
	}
}

func TestCache_MissWithoutFallback(t *testing.T) {
	c := NewCache(nil, nil)

	_, err := c.MarkPrice(context.Background(), "BTC-USDT-SWAP")
	if !errors.Is(err, ErrNoPrice) {
		t.Fatalf("err = %v, want ErrNoPrice", err)
	}
}

func TestCache_MissWithFailingFallback(t *testing.T) {
	rest := &fakeREST{err: errors.New("status 503")}
	c := NewCache(rest, nil)

	if _, err := c.MarkPrice(context.Background(), "BTC-USDT-SWAP"); err == nil {
		t.Fatal("expected error when cache is empty and fallback fails")
	}
}
