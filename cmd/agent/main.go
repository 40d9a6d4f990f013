package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/confrent/roombooking/config"
	"github.com/confrent/roombooking/internal/actor/agent"
	"github.com/confrent/roombooking/internal/bus"
	"github.com/confrent/roombooking/internal/cache"
	"github.com/confrent/roombooking/internal/protocol"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kafkaBus := bus.NewKafkaBus(cfg.Bus.Brokers, logger)
	defer kafkaBus.Close()

	var store cache.SnapshotStore
	if cfg.Redis.Enabled {
		redisStore := cache.NewRedisStore(cfg.Redis)
		defer redisStore.Close()
		store = redisStore
	} else {
		store = cache.NewMemoryStore()
	}

	router := agent.New(protocol.NewID(), kafkaBus, cfg.Topology, store, logger)
	if err := router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("agent stopped", "error", err)
		os.Exit(1)
	}
}
