package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/confrent/roombooking/config"
	"github.com/confrent/roombooking/internal/actor/building"
	"github.com/confrent/roombooking/internal/bus"
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

	roomIDs := make([]string, cfg.Building.Rooms)
	for i := range roomIDs {
		roomIDs[i] = protocol.NewID()
	}

	coordinator := building.New(protocol.NewID(), roomIDs, kafkaBus, cfg.Topology, logger)
	if err := coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("building stopped", "error", err)
		os.Exit(1)
	}
}
