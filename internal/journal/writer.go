package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/okx-copytrack/internal/model"
)

// WriterConfig controls the batching behavior.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults. Position events are rare
// compared to market data, so the batches stay small.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
	}
}

// WriterMetrics counts writer activity.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// entry pairs an event with the account it belongs to.
type entry struct {
	account model.TrackedAccount
	event   model.PositionEvent
}

// eventRow is one row of the position_events table.
type eventRow struct {
	ID         uuid.UUID
	EventType  string
	UID        string
	Nickname   string
	Instrument string
	Side       string
	Leverage   float64
	Size       float64
	EntryPrice float64
	LiqPrice   float64
	UplRatio   float64
	UpdatedTS  int64
	ObservedAt int64
}

// Writer journals position events to Postgres in batches.
type Writer struct {
	cfg    WriterConfig
	logger *slog.Logger

	input *Buffer[entry]
	db    *pgxpool.Pool

	// insert is swappable so tests can observe flushes without a database.
	insert func(ctx context.Context, rows []eventRow) (int, error)

	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewWriter creates a Writer backed by the given pool.
func NewWriter(cfg WriterConfig, db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  NewBuffer[entry](cfg.BatchSize * 2),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
	w.insert = w.batchInsert
	return w
}

// HandleEvents enqueues the batch for persistence. It never blocks and never
// fails; database trouble surfaces in the metrics and logs instead.
func (w *Writer) HandleEvents(account model.TrackedAccount, events []model.PositionEvent) error {
	for _, ev := range events {
		w.input.Push(entry{account: account, event: ev})
	}
	return nil
}

// Start begins consuming events and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval)
	return nil
}

// Stop drains what it can and shuts down.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping journal writer")

	w.input.Close()
	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("journal writer stopped")
	case <-ctx.Done():
		w.logger.Warn("journal writer stop timed out")
	}

	// Final drain and flush. w.ctx is already cancelled, so this runs on
	// its own short-lived context or the remaining events would be lost.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, e := range w.input.Drain(0) {
		w.appendRows(e)
	}
	w.flush(flushCtx)

	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		entries := w.input.Drain(w.cfg.BatchSize)
		if entries == nil {
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
				continue
			}
		}

		shouldFlush := false
		for _, e := range entries {
			if w.appendRows(e) {
				shouldFlush = true
			}
		}
		if shouldFlush {
			w.flush(w.ctx)
		}
	}
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// appendRows transforms one entry into rows and adds them to the batch.
// Reports whether the batch has reached its flush threshold.
func (w *Writer) appendRows(e entry) bool {
	rows := transform(e)

	w.batchMu.Lock()
	w.batch = append(w.batch, rows...)
	full := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()
	return full
}

// transform converts an event into journal rows. An initial snapshot
// expands to one row per open position; an empty snapshot still yields a
// single row so the first observation is on record.
func transform(e entry) []eventRow {
	base := eventRow{
		ID:         uuid.New(),
		EventType:  string(e.event.Type),
		UID:        e.account.UID,
		Nickname:   e.account.DisplayName,
		ObservedAt: e.event.ObservedAt,
	}

	if e.event.Type != model.EventInitialSnapshot {
		row := base
		fillRecord(&row, e.event.Record)
		return []eventRow{row}
	}

	if len(e.event.Snapshot) == 0 {
		return []eventRow{base}
	}

	rows := make([]eventRow, 0, len(e.event.Snapshot))
	for _, rec := range e.event.Snapshot {
		row := base
		row.ID = uuid.New()
		fillRecord(&row, rec)
		rows = append(rows, row)
	}
	return rows
}

func fillRecord(row *eventRow, rec model.PositionRecord) {
	row.Instrument = rec.Instrument
	row.Side = string(rec.Side)
	row.Leverage = rec.Leverage
	row.Size = rec.Size
	row.EntryPrice = rec.EntryPrice
	row.LiqPrice = rec.LiqPrice
	row.UplRatio = rec.UplRatio
	row.UpdatedTS = rec.UpdatedTS
}

// flush writes the current batch to the database.
func (w *Writer) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]eventRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.insert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed position events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start))
}

// batchInsert inserts rows using pgx.Batch. The uniqueness constraint on
// (uid, instrument, event_type, observed_at) makes replays a no-op.
func (w *Writer) batchInsert(ctx context.Context, rows []eventRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO position_events (id, event_type, uid, nickname, instrument, side, leverage, size, entry_price, liq_price, upl_ratio, updated_ts, observed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (uid, instrument, event_type, observed_at) DO NOTHING
		`, r.ID, r.EventType, r.UID, r.Nickname, r.Instrument, r.Side, r.Leverage, r.Size, r.EntryPrice, r.LiqPrice, r.UplRatio, r.UpdatedTS, r.ObservedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}
	return conflicts, nil
}
