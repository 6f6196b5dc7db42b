package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"github.com/fiapx/fiapx-motion-service/internal/domain/port"
	"github.com/fiapx/fiapx-motion-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProcessMotionUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	visualize *VisualizeMotionUseCase
	archiver  port.Archiver
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
}

type ProcessMotionConfig struct {
	TempDir    string
	MaxRetries int
}

func NewProcessMotionUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	visualize *VisualizeMotionUseCase,
	archiver port.Archiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessMotionConfig,
) *ProcessMotionUseCase {
	return &ProcessMotionUseCase{
		repo:      repo,
		storage:   storage,
		visualize: visualize,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
	}
}

func (uc *ProcessMotionUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessMotionUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.MotionVisualizationMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}
	if msg.FrameIndex < 0 || msg.VideoKey == "" {
		uc.logger.Error("invalid motion request", zap.String("video_key", msg.VideoKey), zap.Int("frame_index", msg.FrameIndex))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "invalid_request: video_key and non-negative frame_index required")
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
		attribute.Int("job.frame_index", msg.FrameIndex),
	)

	log := uc.logger.With(
		zap.String("job_id", msg.JobID.String()),
		zap.String("video_key", msg.VideoKey),
		zap.Int("frame_index", msg.FrameIndex),
	)

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewMotionJob(msg.UserID, msg.VideoKey, msg.FrameIndex, msg.Normalize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if job.Status == entity.JobStatusCompleted {
		log.Info("job already completed, skipping duplicate delivery")
		return nil
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded", log)
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.processMotionPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}
	if job.Status != entity.JobStatusCompleted {
		return nil
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ProcessMotionUseCase) processMotionPipeline(
	ctx context.Context,
	job *entity.MotionJob,
	msg entity.MotionVisualizationMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Identify the stored video so the collection cache can be keyed by version
	identity, err := uc.storage.StatVideo(ctx, msg.VideoKey)
	if err != nil {
		log.Error("failed to stat video", zap.Error(err))
		return uc.handleFailure(ctx, job, msg, rawMsg, "stat_video", err, log)
	}

	// Download video from MinIO, the reference frame needs it even on a cache hit
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input"+filepath.Ext(msg.VideoKey))
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleFailure(ctx, job, msg, rawMsg, "download_video", err, log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Extract (or reuse) vectors and render the requested frame
	renderDir := filepath.Join(workDir, "render")
	result, err := uc.visualize.Visualize(ctx, VisualizeRequest{
		Source:    VideoSource{Path: videoPath, Identity: *identity},
		Index:     msg.FrameIndex,
		Normalize: msg.Normalize,
		OutputDir: renderDir,
	})
	if err != nil {
		log.Error("motion visualization failed", zap.Error(err))
		return uc.handleFailure(ctx, job, msg, rawMsg, "visualize", err, log)
	}

	// Bundle the rendered images
	zipStart := time.Now()
	ctx3, spanZip := tracer.Start(ctx, "create_zip")
	zipPath := filepath.Join(workDir, "motion.zip")
	if err := uc.archiver.CreateZip(ctx3, result.Visualization.Paths(), zipPath); err != nil {
		spanZip.End()
		log.Error("zip creation failed", zap.Error(err))
		return uc.handleFailure(ctx, job, msg, rawMsg, "create_zip", err, log)
	}
	spanZip.End()
	metrics.JobProcessingDuration.WithLabelValues("zip").Observe(time.Since(zipStart).Seconds())

	// Upload ZIP to MinIO
	upStart := time.Now()
	ctx4, spanUp := tracer.Start(ctx, "upload_zip")
	archiveKey := fmt.Sprintf("%s/motion_%s_frame%04d.zip", msg.UserID, job.ID.String(), result.FrameNumber)
	zipFile, err := os.Open(zipPath)
	if err != nil {
		spanUp.End()
		return uc.handleFailure(ctx, job, msg, rawMsg, "open_zip", err, log)
	}
	zipStat, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		spanUp.End()
		return uc.handleFailure(ctx, job, msg, rawMsg, "stat_zip", err, log)
	}
	if err := uc.storage.UploadArchive(ctx4, archiveKey, zipFile, zipStat.Size()); err != nil {
		zipFile.Close()
		spanUp.End()
		log.Error("zip upload failed", zap.Error(err))
		return uc.handleFailure(ctx, job, msg, rawMsg, "upload_zip", err, log)
	}
	zipFile.Close()
	spanUp.End()
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	// Mark completed
	job.MarkCompleted(archiveKey, result.FrameNumber, result.VectorCount)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_number", result.FrameNumber),
		zap.Int("vector_count", result.VectorCount),
		zap.Bool("cache_hit", result.CacheHit),
		zap.String("archive_key", archiveKey),
	)

	return nil
}

// handleFailure fails permanently on errors that come from the vector data
// itself, everything else goes through the retry budget.
func (uc *ProcessMotionUseCase) handleFailure(
	ctx context.Context,
	job *entity.MotionJob,
	msg entity.MotionVisualizationMessage,
	rawMsg []byte,
	stage string,
	err error,
	log *zap.Logger,
) error {
	errMsg := stage + ": " + err.Error()
	if motion.IsPermanent(err) {
		job.GiveUp(errMsg)
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg, log)
	}
	return uc.handleRetryableFailure(ctx, job, msg, rawMsg, errMsg, log)
}

func (uc *ProcessMotionUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.MotionJob,
	msg entity.MotionVisualizationMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg, log)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessMotionUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.MotionJob,
	msg entity.MotionVisualizationMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, log)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job)
	}

	return nil
}

func (uc *ProcessMotionUseCase) publishStatus(ctx context.Context, job *entity.MotionJob, log *zap.Logger) {
	data, _ := json.Marshal(entity.NewMotionStatusMessage(job))
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
