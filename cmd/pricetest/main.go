// pricetest subscribes to the OKX mark-price feed and prints updates.
// Usage: go run ./cmd/pricetest -instruments BTC-USDT-SWAP,ETH-USDT-SWAP
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/okx-copytrack/internal/markprice"
)

func main() {
	url := flag.String("url", markprice.DefaultSubscriberConfig().URL, "public feed url")
	instruments := flag.String("instruments", "BTC-USDT-SWAP", "comma-separated instrument IDs")
	interval := flag.Duration("interval", 5*time.Second, "print interval")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	instIDs := strings.Split(*instruments, ",")
	for i := range instIDs {
		instIDs[i] = strings.TrimSpace(instIDs[i])
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	cache := markprice.NewCache(nil, logger)
	cfg := markprice.DefaultSubscriberConfig()
	cfg.URL = *url

	sub := markprice.NewSubscriber(cfg, cache, logger)
	sub.Track(instIDs...)

	if err := sub.Start(ctx); err != nil {
		logger.Error("failed to start subscriber", "error", err)
		os.Exit(1)
	}

	logger.Info("streaming mark prices", "instruments", instIDs)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			sub.Stop(stopCtx)
			return
		case <-ticker.C:
			for _, id := range instIDs {
				px, err := cache.MarkPrice(ctx, id)
				if err != nil {
					fmt.Printf("%-20s (no price yet)\n", id)
					continue
				}
				fmt.Printf("%-20s %s\n", id, px)
			}
			fmt.Println()
		}
	}
}
