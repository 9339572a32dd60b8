package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yoga-guide/internal/common/camunda"
	"yoga-guide/internal/common/config"
	"yoga-guide/internal/common/database"
	"yoga-guide/internal/common/genai"
	commonhttp "yoga-guide/internal/common/http"
	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/common/observability"
	"yoga-guide/internal/plan"
	"yoga-guide/internal/server"
	generateplan "yoga-guide/internal/workers/plan/generate-plan"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: configs/config.yaml lookup)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		logger.New("info", "console").Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting plan server...",
		zap.String("environment", cfg.App.Environment),
		zap.Strings("models", cfg.APIs.GenAI.Models),
	)

	obs := observability.New(cfg.App.Name, nil)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Generation client ---
	genClient, err := genai.NewClient(ctx, genai.Config{
		BaseURL:         cfg.APIs.GenAI.BaseURL,
		APIKey:          cfg.APIs.GenAI.APIKey,
		MaxOutputTokens: cfg.APIs.GenAI.MaxOutputTokens,
		Temperature:     cfg.APIs.GenAI.Temperature,
	}, commonhttp.NewClient(config.GetDuration(cfg.APIs.GenAI.Timeout)), log)
	if err != nil {
		zapLog.Fatal("generation client init failed", zap.Error(err))
	}
	if !genClient.HasAPIKey() {
		zapLog.Warn("no generation API key configured; plan requests will fail with Missing API Key")
	}

	fallbackOpts := []plan.FallbackOption{
		plan.WithAttemptTimeout(config.GetDuration(cfg.APIs.GenAI.AttemptTimeout)),
		plan.WithObservability(obs),
	}
	serverOpts := []server.Option{}

	// --- Model ledger (optional) ---
	if cfg.Database.Redis.Address != "" {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis client init failed", zap.Error(err))
		}
		defer rdb.Close()

		if err := rdb.Ping(ctx); err != nil {
			zapLog.Warn("redis not reachable yet, ledger writes will fail until it is", zap.Error(err))
		}

		ledger := plan.NewRedisLedger(rdb.GetClient(), cfg.Database.Redis.KeyPrefix)
		fallbackOpts = append(fallbackOpts, plan.WithRecorder(ledger))
		serverOpts = append(serverOpts,
			server.WithStats(ledger),
			server.WithReadinessCheck("redis", rdb.Ping),
		)
		zapLog.Info("model ledger enabled", zap.String("address", cfg.Database.Redis.Address))
	}

	pipeline := plan.NewPipeline(
		plan.NewFallbackClient(genClient, log, fallbackOpts...),
		plan.PipelineConfig{
			Models:  cfg.APIs.GenAI.Models,
			Timeout: config.GetDuration(cfg.APIs.GenAI.Timeout),
		},
		log,
		obs,
	)

	// --- Workflow worker (optional) ---
	var planWorker *camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		serverOpts = append(serverOpts, server.WithReadinessCheck("zeebe", zeebe.HealthCheck))

		if config.IsWorkerEnabled(cfg, generateplan.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, generateplan.TaskType)
			handler := generateplan.NewHandler(generateplan.Dependencies{
				Config:      generateplan.NewConfig(wcfg),
				Builder:     pipeline,
				Credentials: genClient,
				Logger:      log,
				Obs:         obs,
			})
			planWorker = camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
				TaskType:      generateplan.TaskType,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
			}, handler.Handle, log)
		} else {
			zapLog.Info("worker disabled", zap.String("taskType", generateplan.TaskType))
		}
	}

	// --- HTTP server ---
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.New(pipeline, genClient, log, serverOpts...),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, stopping server...")
	case err := <-errCh:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown", zap.Error(err))
	}
	if planWorker != nil {
		planWorker.Stop()
	}

	zapLog.Info("Plan server stopped gracefully")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
