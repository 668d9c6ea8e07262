// Package main runs the scripted ragdoll demo scene.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-ragdoll/internal/config"
	"github.com/Faultbox/midgard-ragdoll/internal/demo"
	"github.com/Faultbox/midgard-ragdoll/internal/logger"
	"github.com/Faultbox/midgard-ragdoll/internal/store"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	var fileCfg logger.FileConfig
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.Init(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Ragdoll Demo ===")
	logger.Sugar.Debugf("Config: %+v", cfg.Demo)

	st, err := store.Open(cfg.Storage.AppName)
	if err != nil {
		// The scene still runs; save and load fall back to the snapshot file.
		logger.Warn("snapshot store unavailable", zap.Error(err))
		st = nil
	}

	scene, err := demo.New(cfg, st, logger.Named("demo"))
	if err != nil {
		logger.Error("failed to create scene", zap.Error(err))
		os.Exit(1)
	}
	defer scene.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scene.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("scene error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("demo finished normally")
}
