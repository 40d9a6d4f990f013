package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/confrent/roombooking/config"
	"github.com/confrent/roombooking/internal/actor/customer"
	"github.com/confrent/roombooking/internal/bootstrap"
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

	session := customer.NewSession(protocol.NewID(), kafkaBus, cfg.Topology, cfg.Customer.RequestTimeout(), logger)
	if err := session.Start(ctx); err != nil {
		logger.Error("start customer session", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway online", "customer_id", session.ID(), "address", cfg.HTTP.Address)

	if err := bootstrap.Run(ctx, cfg, session); err != nil {
		logger.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}
