package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiapx/fiapx-motion-service/internal/infra/archive"
	"github.com/fiapx/fiapx-motion-service/internal/infra/cache"
	"github.com/fiapx/fiapx-motion-service/internal/infra/config"
	"github.com/fiapx/fiapx-motion-service/internal/infra/email"
	"github.com/fiapx/fiapx-motion-service/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-motion-service/internal/infra/metrics"
	miniostorage "github.com/fiapx/fiapx-motion-service/internal/infra/minio"
	"github.com/fiapx/fiapx-motion-service/internal/infra/postgres"
	"github.com/fiapx/fiapx-motion-service/internal/infra/rabbitmq"
	"github.com/fiapx/fiapx-motion-service/internal/infra/render"
	"github.com/fiapx/fiapx-motion-service/internal/infra/tracing"
	"github.com/fiapx/fiapx-motion-service/internal/usecase"
	"github.com/fiapx/fiapx-motion-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting " + tracing.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		UseSSL:        cfg.MinIOUseSSL,
		UploadBucket:  cfg.MinIOUploadBucket,
		ArchiveBucket: cfg.MinIOArchiveBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	statusPub := rabbitmq.NewStatusPublisher(pub, cfg.RabbitMQStatusQueue)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Motion pipeline
	collections, err := cache.NewCollectionCache(cfg.CacheSize, log)
	fatalOnErr(err, "create collection cache")

	visualizer := render.NewVisualizer(
		ffmpeg.NewFrameRenderer(cfg.FFmpegBin, log),
		render.Options{
			ArrowScale:            cfg.ArrowScale,
			NormalizedArrowLength: cfg.NormalizedArrowLength,
			ValidationFrames:      cfg.ValidationFrames,
		},
		log,
	)
	visualize := usecase.NewVisualizeMotionUseCase(
		ffmpeg.NewMotionExtractor(cfg.ExtractorBin, log),
		ffmpeg.NewProber(cfg.FFprobeBin, log),
		visualizer,
		collections,
		log,
	)

	repo := postgres.NewJobRepository(pool)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	uc := usecase.NewProcessMotionUseCase(
		repo, storage, visualize, archive.NewZipCreator("motion"),
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessMotionConfig{
			TempDir:    cfg.TempDir,
			MaxRetries: cfg.MaxRetries,
		},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, map[string]metrics.Check{
		"postgres": pool.Ping,
		"rabbitmq": func(context.Context) error {
			if rmqConn.IsClosed() {
				return errors.New("publisher connection closed")
			}
			return nil
		},
	}, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQRequestQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("motion worker started, consuming messages",
		zap.String("queue", cfg.RabbitMQRequestQueue),
		zap.Int("workers", cfg.WorkerCount),
		zap.Int("cache_size", cfg.CacheSize),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info(tracing.ServiceName + " stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
