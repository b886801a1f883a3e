package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/okx-copytrack/internal/api"
	"github.com/rickgao/okx-copytrack/internal/config"
	"github.com/rickgao/okx-copytrack/internal/database"
	"github.com/rickgao/okx-copytrack/internal/journal"
	"github.com/rickgao/okx-copytrack/internal/markprice"
	"github.com/rickgao/okx-copytrack/internal/notify"
	"github.com/rickgao/okx-copytrack/internal/poller"
	"github.com/rickgao/okx-copytrack/internal/tracker"
	"github.com/rickgao/okx-copytrack/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/tracker.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting tracker",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.RestURL,
		"accounts", len(cfg.Accounts),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional event journal database
	var pool *pgxpool.Pool
	var writer *journal.Writer
	if cfg.JournalEnabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)

		pool, err = database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		writer = journal.NewWriter(journal.WriterConfig{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
		}, pool, logger)
		if err := writer.Start(ctx); err != nil {
			logger.Error("failed to start journal writer", "error", err)
			os.Exit(1)
		}
		defer stopComponent(writer.Stop, "journal writer", logger)

		logger.Info("event journal enabled")
	}

	// Create API client
	apiOpts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithUTCOffset(cfg.Display.UTCOffsetHours),
	}
	if cfg.API.DeviceID != "" {
		apiOpts = append(apiOpts, api.WithDeviceID(cfg.API.DeviceID))
	}
	apiClient := api.NewClient(cfg.API.RestURL, apiOpts...)

	// Notification sink
	var sink notify.Sink
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramSink(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Error("failed to create telegram sink", "error", err)
			os.Exit(1)
		}
		sink = tg
		logger.Info("telegram notifications enabled", "chat_id", cfg.Telegram.ChatID)
	} else {
		sink = &notify.LogSink{Logger: logger}
		logger.Warn("telegram token not set, notifications go to the log")
	}

	// Live mark prices: WebSocket feed with REST fallback
	priceCache := markprice.NewCache(apiClient, logger)
	subCfg := markprice.DefaultSubscriberConfig()
	subCfg.URL = cfg.API.WSURL
	priceFeed := markprice.NewSubscriber(subCfg, priceCache, logger)
	if err := priceFeed.Start(ctx); err != nil {
		logger.Error("failed to start mark price subscriber", "error", err)
		os.Exit(1)
	}
	defer stopComponent(priceFeed.Stop, "mark price subscriber", logger)

	// Message formatting
	fmtCfg := notify.DefaultFormatConfig()
	fmtCfg.UTCOffsetHours = cfg.Display.UTCOffsetHours
	fmtCfg.TimeFormat = cfg.Display.TimeFormat
	fmtCfg.ProfileURLTemplate = cfg.API.RestURL + "/copy-trading/account/%s?tab=trade"

	dispatcher := notify.NewDispatcher(sink, priceCache, fmtCfg, logger)

	// Position tracking and event fan-out. The dispatcher must run before
	// the price feed handler so closed-position messages still find the
	// closing instrument subscribed.
	trk := tracker.New()
	handlers := poller.MultiHandler{dispatcher, priceFeed}
	if writer != nil {
		handlers = append(handlers, writer)
	}

	sched := poller.NewScheduler(poller.Config{
		Interval: cfg.Poller.Interval,
		Retry: poller.RetryPolicy{
			MaxFastRetries: cfg.Poller.MaxFastRetries,
			FastDelay:      cfg.Poller.FastRetryDelay,
			CooldownDelay:  cfg.Poller.Cooldown,
		},
		ErrorPause: cfg.Poller.ErrorPause,
	}, cfg.Accounts, apiClient, apiClient, trk, handlers, dispatcher, logger)

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(pool, trk, sched, priceFeed, logger),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start poll scheduler", "error", err)
		os.Exit(1)
	}
	defer stopComponent(sched.Stop, "poll scheduler", logger)

	logger.Info("tracker running",
		"instance_id", cfg.Instance.ID,
		"interval", cfg.Poller.Interval,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("tracker stopped")
}

// stopComponent stops a component with a bounded timeout.
func stopComponent(stop func(context.Context) error, name string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("component stop failed", "component", name, "error", err)
	}
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(pool *pgxpool.Pool, trk *tracker.Tracker, sched *poller.Scheduler, feed *markprice.Subscriber, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database (optional component)
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		// Check poll progress
		last := sched.LastCycle()
		health.Components["poller"] = map[string]interface{}{
			"observed_accounts": trk.Observed(),
			"last_cycle":        last,
		}
		if last.IsZero() {
			health.Status = "degraded"
		}

		health.Components["mark_price_feed"] = map[string]interface{}{
			"tracked_instruments": feed.Tracked(),
		}

		// Set response
		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/positions", func(w http.ResponseWriter, r *http.Request) {
		uid := r.URL.Query().Get("uid")
		if uid == "" {
			http.Error(w, "uid query parameter required", http.StatusBadRequest)
			return
		}

		snapshot, ok := trk.Positions(uid)
		if !ok {
			http.Error(w, "account not observed yet", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uid":       uid,
			"count":     len(snapshot),
			"positions": snapshot,
		})
	})

	return mux
}
