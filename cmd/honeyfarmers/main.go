package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"honeyfarmers/internal/app/service"
	"honeyfarmers/internal/client"
	"honeyfarmers/internal/domain/entity"
	"honeyfarmers/internal/infrastructure/configloader"
	chainclient "honeyfarmers/internal/infrastructure/network/client"
	networkdefinition "honeyfarmers/internal/infrastructure/network/definition"
	"honeyfarmers/internal/infrastructure/restapi"
	"honeyfarmers/internal/infrastructure/storage"
	"honeyfarmers/internal/infrastructure/wallet"
	"honeyfarmers/internal/pkg/logger"
	"honeyfarmers/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yml"

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()
	if *configPath == "" {
		*configPath = os.Getenv("HF_CONFIG")
	}
	if *configPath == "" {
		*configPath = defaultConfigPath
	}

	cfg, err := configloader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewZap(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger.InstallZap(zapLogger, cfg.Logging.Level)

	appLogger := logger.NewSlogAdapter()
	appLogger.Info("Honeyfarmers client starting", "network", cfg.Network.Default, "storage", cfg.Storage.Driver)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	kv, closer, err := storage.Open(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
	}
	defer closer.Close()

	networks := networkdefinition.NewRegistry(appLogger, cfg.Network.Overrides)
	chains := chainclient.NewAntelopeClientProvider(cfg, appLogger)
	metadata := client.NewAtomicAssetsClient(
		time.Duration(cfg.Metadata.RequestTimeoutMs)*time.Millisecond,
		zapLogger,
		cfg.Metadata.RateLimit,
		cfg.Metadata.BurstLimit,
	)

	signer := wallet.NewSigner(cfg.Wallet.SignerURL, time.Duration(cfg.Wallet.SignerTimeoutMs)*time.Millisecond, zapLogger)
	if signer == nil {
		appLogger.Warn("No signer configured; actions will be rejected")
	}
	kitFactory := wallet.NewKitFactory(chains, networks, kv, cfg.Wallet, signer, appLogger)

	sessionStore := service.NewSessionStore(kv, appLogger)
	reconciler := service.NewReconciler(sessionStore, kitFactory, cfg.SessionKitTimeout(), appLogger, m)
	pipeline := service.NewGameStateService(chains, metadata, appLogger, m, cfg)

	gameClient, err := service.NewGameClient(networks, sessionStore, reconciler, pipeline, entity.NetworkKey(cfg.Network.Default), appLogger, m)
	if err != nil {
		logger.Fatal("Failed to create game client", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gameClient.Start(ctx)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := restapi.NewRouter(restapi.Deps{
		Client:         gameClient,
		Logger:         zapLogger,
		Gatherer:       registry,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
