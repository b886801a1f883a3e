package markprice

import (
	"errors"
	"time"
)

var (
	// ErrNoPrice is returned when no price is known for an instrument and
	// no fallback source is configured.
	ErrNoPrice = errors.New("no price available")

	// ErrNotConnected is returned when a send is attempted while the feed
	// connection is down.
	ErrNotConnected = errors.New("not connected")
)

// wsRequest is an operation sent to the public feed.
type wsRequest struct {
	Op   string  `json:"op"` // "subscribe" or "unsubscribe"
	Args []wsArg `json:"args"`
}

// wsArg names one channel subscription.
type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

// wsPush is an inbound frame: either an event acknowledgement or a data push.
type wsPush struct {
	Event string      `json:"event,omitempty"` // "subscribe", "unsubscribe", "error"
	Code  string      `json:"code,omitempty"`
	Msg   string      `json:"msg,omitempty"`
	Arg   wsArg       `json:"arg"`
	Data  []markQuote `json:"data,omitempty"`
}

// markQuote is one mark-price data element.
type markQuote struct {
	InstID string `json:"instId"`
	MarkPx string `json:"markPx"`
	Ts     string `json:"ts"`
}

// SubscriberConfig configures the mark-price WebSocket subscriber.
type SubscriberConfig struct {
	URL               string        // Public feed URL
	HandshakeTimeout  time.Duration // Dial deadline
	WriteTimeout      time.Duration // Write deadline for sends
	PingInterval      time.Duration // Keepalive interval; OKX drops idle connections after 30s
	ReconnectBaseWait time.Duration // Base wait time for reconnection
	ReconnectMaxWait  time.Duration // Max wait time for reconnection
}

// DefaultSubscriberConfig returns sensible defaults.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		URL:               "wss://ws.okx.com:8443/ws/v5/public",
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      5 * time.Second,
		PingInterval:      20 * time.Second,
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  60 * time.Second,
	}
}
