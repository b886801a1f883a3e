package markprice

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/okx-copytrack/internal/model"
)

const markPriceChannel = "mark-price"

// Subscriber keeps one connection to the public feed and streams mark-price
// pushes for the tracked instruments into the Cache. The connection is
// re-dialed with exponential backoff and tracked subscriptions are replayed
// after every reconnect.
type Subscriber struct {
	cfg    SubscriberConfig
	cache  *Cache
	logger *slog.Logger

	mu      sync.Mutex
	tracked map[string]struct{}
	conn    *websocket.Conn

	writeMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSubscriber creates a Subscriber feeding the given cache.
func NewSubscriber(cfg SubscriberConfig, cache *Cache, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		cfg:     cfg,
		cache:   cache,
		logger:  logger,
		tracked: make(map[string]struct{}),
	}
}

// Start launches the connect/read loop. It returns immediately; the first
// dial happens in the background so a dead feed cannot block startup.
func (s *Subscriber) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	s.logger.Info("mark price subscriber started", "url", s.cfg.URL)
	return nil
}

// Stop tears down the connection and waits for the loop to exit.
func (s *Subscriber) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("mark price subscriber stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Track adds instruments to the subscription set. Already-tracked
// instruments are ignored; new ones are subscribed immediately when the
// connection is up, otherwise on the next reconnect.
func (s *Subscriber) Track(instIDs ...string) {
	s.mu.Lock()
	fresh := make([]string, 0, len(instIDs))
	for _, id := range instIDs {
		if id == "" {
			continue
		}
		if _, ok := s.tracked[id]; ok {
			continue
		}
		s.tracked[id] = struct{}{}
		fresh = append(fresh, id)
	}
	connected := s.conn != nil
	s.mu.Unlock()

	if len(fresh) == 0 || !connected {
		return
	}
	if err := s.send("subscribe", fresh); err != nil {
		s.logger.Warn("subscribe failed", "instruments", fresh, "error", err)
	}
}

// Untrack removes instruments from the subscription set.
func (s *Subscriber) Untrack(instIDs ...string) {
	s.mu.Lock()
	gone := make([]string, 0, len(instIDs))
	for _, id := range instIDs {
		if _, ok := s.tracked[id]; !ok {
			continue
		}
		delete(s.tracked, id)
		gone = append(gone, id)
	}
	connected := s.conn != nil
	s.mu.Unlock()

	if len(gone) == 0 || !connected {
		return
	}
	if err := s.send("unsubscribe", gone); err != nil {
		s.logger.Warn("unsubscribe failed", "instruments", gone, "error", err)
	}
}

// Tracked reports how many instruments are currently subscribed.
func (s *Subscriber) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked)
}

// HandleEvents keeps the subscription set aligned with the accounts' open
// positions: opened and first-seen instruments are tracked, closed ones
// dropped. Dispatch order matters, so this handler must run after the
// notifier, which still needs the closing instrument's price.
func (s *Subscriber) HandleEvents(account model.TrackedAccount, events []model.PositionEvent) error {
	for _, ev := range events {
		switch ev.Type {
		case model.EventOpened:
			s.Track(ev.Instrument)
		case model.EventClosed:
			s.Untrack(ev.Instrument)
		case model.EventInitialSnapshot:
			s.Track(ev.Snapshot.Instruments()...)
		}
	}
	return nil
}

// run dials, replays subscriptions and reads pushes until ctx is cancelled,
// reconnecting with exponential backoff on every failure.
func (s *Subscriber) run(ctx context.Context) {
	wait := s.cfg.ReconnectBaseWait

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dial(ctx)
		if err != nil {
			s.logger.Warn("feed dial failed", "error", err, "retry_in", wait)

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			wait *= 2
			if wait > s.cfg.ReconnectMaxWait {
				wait = s.cfg.ReconnectMaxWait
			}
			continue
		}

		wait = s.cfg.ReconnectBaseWait
		s.logger.Info("feed connected", "url", s.cfg.URL)

		if err := s.resubscribe(); err != nil {
			s.logger.Warn("resubscribe failed", "error", err)
		}

		s.readUntilError(ctx, conn)

		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}
}

func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return conn, nil
}

// resubscribe replays the tracked set onto a fresh connection.
func (s *Subscriber) resubscribe() error {
	s.mu.Lock()
	instIDs := make([]string, 0, len(s.tracked))
	for id := range s.tracked {
		instIDs = append(instIDs, id)
	}
	s.mu.Unlock()

	if len(instIDs) == 0 {
		return nil
	}
	return s.send("subscribe", instIDs)
}

// readUntilError consumes pushes until the connection dies or ctx is
// cancelled. A keepalive ping goes out every PingInterval; OKX closes
// connections idle for 30 seconds.
func (s *Subscriber) readUntilError(ctx context.Context, conn *websocket.Conn) {
	pingDone := make(chan struct{})
	defer close(pingDone)

	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				s.writeMu.Lock()
				conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				err := conn.WriteMessage(websocket.TextMessage, []byte("ping"))
				s.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("feed read failed", "error", err)
			}
			return
		}
		s.handleFrame(data)
	}
}

// handleFrame routes one inbound frame: pong keepalives are dropped, event
// acknowledgements logged, data pushes written to the cache.
func (s *Subscriber) handleFrame(data []byte) {
	if string(data) == "pong" {
		return
	}

	var push wsPush
	if err := json.Unmarshal(data, &push); err != nil {
		s.logger.Warn("unparseable feed frame", "error", err)
		return
	}

	if push.Event != "" {
		if push.Event == "error" {
			s.logger.Warn("feed error event", "code", push.Code, "msg", push.Msg)
		} else {
			s.logger.Debug("feed event", "event", push.Event, "instrument", push.Arg.InstID)
		}
		return
	}

	for _, q := range push.Data {
		if q.InstID == "" || q.MarkPx == "" {
			continue
		}
		s.cache.Set(q.InstID, q.MarkPx)
	}
}

func (s *Subscriber) send(op string, instIDs []string) error {
	args := make([]wsArg, 0, len(instIDs))
	for _, id := range instIDs {
		args = append(args, wsArg{Channel: markPriceChannel, InstID: id})
	}

	data, err := json.Marshal(wsRequest{Op: op, Args: args})
	if err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
