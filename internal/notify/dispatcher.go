package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/okx-copytrack/internal/model"
)

// Sink delivers a formatted message to the operator channel.
// Implementations must swallow delivery failures.
type Sink interface {
	Send(text string)
}

// PriceSource provides the live mark price used in closed-position messages.
type PriceSource interface {
	MarkPrice(ctx context.Context, instID string) (string, error)
}

// Dispatcher formats classified events and hands them to the Sink.
type Dispatcher struct {
	sink   Sink
	prices PriceSource
	cfg    FormatConfig
	logger *slog.Logger

	priceTimeout time.Duration
}

// NewDispatcher creates a Dispatcher. prices may be nil, in which case closed
// messages always show the unavailable placeholder.
func NewDispatcher(sink Sink, prices PriceSource, cfg FormatConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sink:         sink,
		prices:       prices,
		cfg:          cfg,
		logger:       logger,
		priceTimeout: 10 * time.Second,
	}
}

// HandleEvents produces exactly one message per event and sends each through
// the Sink. It never returns an error: delivery and price-lookup failures are
// logged and absorbed here so they cannot escalate into the poll cycle.
func (d *Dispatcher) HandleEvents(account model.TrackedAccount, events []model.PositionEvent) error {
	for _, ev := range events {
		d.sink.Send(d.render(account, ev))
	}
	return nil
}

// NotifyError sends a best-effort message about an unexpected per-account
// failure, naming the offending account.
func (d *Dispatcher) NotifyError(uid string, err error, pause time.Duration) {
	d.sink.Send(fmt.Sprintf("Error occurred for UID <b>%s</b>:\n%v\n\nRetrying after %s", uid, err, pause))
}

func (d *Dispatcher) render(account model.TrackedAccount, ev model.PositionEvent) string {
	switch ev.Type {
	case model.EventOpened:
		return d.cfg.formatOpened(account, ev.Record)
	case model.EventClosed:
		return d.cfg.formatClosed(account, ev.Record, d.markPrice(ev.Instrument))
	case model.EventInitialSnapshot:
		return d.cfg.formatInitial(account, ev.Snapshot)
	default:
		return fmt.Sprintf("⚠️ [<b>%s</b>]\nUnrecognized event %q for %s", account.DisplayName, ev.Type, ev.Instrument)
	}
}

// markPrice looks up the live mark price, substituting a placeholder on any
// failure rather than failing the dispatch.
func (d *Dispatcher) markPrice(instID string) string {
	if d.prices == nil {
		return priceUnavailable
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.priceTimeout)
	defer cancel()

	px, err := d.prices.MarkPrice(ctx, instID)
	if err != nil {
		d.logger.Warn("mark price lookup failed", "instrument", instID, "error", err)
		return priceUnavailable
	}
	return px
}
