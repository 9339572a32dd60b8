package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yoga-guide/internal/capture"
	"yoga-guide/internal/common/config"
	commonhttp "yoga-guide/internal/common/http"
	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/common/mqtt"
	"yoga-guide/internal/inference"
	"yoga-guide/internal/live"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: configs/config.yaml lookup)")
	frameDir := flag.String("frames", "", "directory of JPEG/PNG frames, overrides live.frame_dir")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}
	if *frameDir != "" {
		cfg.Live.FrameDir = *frameDir
	}

	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		logger.New("info", "console").Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := capture.NewDirectorySource(cfg.Live.FrameDir, cfg.Live.FPS, cfg.Live.Loop, log)

	sidecar := inference.NewClient(inference.Config{
		BaseURL: cfg.APIs.PoseEstimator.BaseURL,
		Model:   cfg.APIs.PoseEstimator.Model,
	}, commonhttp.NewClient(config.GetDuration(cfg.APIs.PoseEstimator.Timeout)), log)

	factory := func(ctx context.Context) (live.Estimator, error) {
		est, err := sidecar.NewEstimator(ctx)
		if err != nil {
			return nil, err
		}
		return est, nil
	}

	renderers := live.MultiRenderer{live.NewLogRenderer(log)}

	var pub *mqtt.Publisher
	if cfg.MQTT.Enabled {
		pub = mqtt.NewPublisher(cfg.MQTT, log)
		if err := pub.Connect(); err != nil {
			zapLog.Fatal("mqtt connect failed", zap.Error(err))
		}
		defer pub.Close()
		renderers = append(renderers, live.NewMQTTRenderer(pub, cfg.MQTT.Topic))
	}

	session := live.NewSession(
		source,
		factory,
		live.TickerScheduler{Interval: config.GetDuration(cfg.Live.RefreshInterval)},
		renderers,
		log,
		live.WithEstimateTimeout(config.GetDuration(cfg.APIs.PoseEstimator.Timeout)),
	)

	zapLog.Info("Starting live session",
		zap.String("sessionId", session.ID()),
		zap.String("frameDir", cfg.Live.FrameDir),
		zap.String("estimator", cfg.APIs.PoseEstimator.BaseURL),
	)

	if err := session.Start(ctx); err != nil {
		zapLog.Error("live session failed to start", zap.Error(err))
		_ = session.Dispose()
		return
	}

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, disposing session...")

	start := time.Now()
	if err := session.Dispose(); err != nil {
		zapLog.Error("dispose failed", zap.Error(err))
	}

	zapLog.Info("Live session stopped",
		zap.Uint64("frames", session.Frames()),
		zap.Duration("disposeTook", time.Since(start)),
	)

	if pub != nil {
		published, failed := pub.Stats()
		zapLog.Info("MQTT publisher stats",
			zap.Any("published", published),
			zap.Uint64("errors", failed),
		)
	}
}
