package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"github.com/fiapx/fiapx-motion-service/internal/domain/port"
	"github.com/fiapx/fiapx-motion-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// VideoSource is a video available on local disk together with the identity
// its collection is cached under.
type VideoSource struct {
	Path     string
	Identity entity.VideoIdentity
}

type VisualizeRequest struct {
	Source    VideoSource
	Index     int
	Normalize bool
	OutputDir string
}

type VisualizeResult struct {
	FrameIndex    int
	FrameNumber   int
	VectorCount   int
	CacheHit      bool
	Visualization *port.VisualizationResult
}

// VisualizeMotionUseCase extracts vectors at most once per video identity and
// renders single frames out of the cached collection.
type VisualizeMotionUseCase struct {
	source     port.MotionRecordSource
	probe      port.GeometryProbe
	visualizer port.Visualizer
	cache      port.CollectionCache
	logger     *zap.Logger
}

func NewVisualizeMotionUseCase(
	source port.MotionRecordSource,
	probe port.GeometryProbe,
	visualizer port.Visualizer,
	cache port.CollectionCache,
	logger *zap.Logger,
) *VisualizeMotionUseCase {
	return &VisualizeMotionUseCase{
		source:     source,
		probe:      probe,
		visualizer: visualizer,
		cache:      cache,
		logger:     logger,
	}
}

// Collection returns the frame vector collection for src, building it on a miss.
func (uc *VisualizeMotionUseCase) Collection(ctx context.Context, src VideoSource) (*motion.Collection, bool, error) {
	return uc.cache.GetOrBuild(ctx, src.Identity.CacheKey(), func(ctx context.Context) (*motion.Collection, error) {
		return uc.build(ctx, src)
	})
}

func (uc *VisualizeMotionUseCase) build(ctx context.Context, src VideoSource) (*motion.Collection, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "extract_motion")
	defer span.End()

	start := time.Now()
	records, err := uc.source.ExtractRecords(ctx, src.Path)
	if err != nil {
		return nil, fmt.Errorf("extract motion records: %w", err)
	}

	col, err := motion.Aggregate(records)
	if err != nil {
		return nil, fmt.Errorf("aggregate motion records: %w", err)
	}

	metrics.JobProcessingDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	metrics.VectorsExtractedTotal.Add(float64(col.VectorCount()))
	span.SetAttributes(
		attribute.Int("motion.records", len(records)),
		attribute.Int("motion.frames", col.Len()),
	)

	first, _ := col.At(0)
	uc.logger.Info("motion vectors aggregated",
		zap.String("video", src.Identity.Key),
		zap.Int("records", len(records)),
		zap.Int("frames", col.Len()),
		zap.Int("vectors", col.VectorCount()),
		zap.Int("first_frame_number", first.FrameNumber),
	)
	return col, nil
}

func (uc *VisualizeMotionUseCase) Visualize(ctx context.Context, req VisualizeRequest) (*VisualizeResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "VisualizeMotionUseCase.Visualize")
	defer span.End()
	span.SetAttributes(attribute.Int("motion.frame_index", req.Index))

	col, hit, err := uc.Collection(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	block, err := col.At(req.Index)
	if err != nil {
		return nil, err
	}
	field := motion.Derive(block, req.Normalize)

	geom, err := uc.probe.ProbeGeometry(ctx, req.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("probe geometry: %w", err)
	}

	renderStart := time.Now()
	ctx2, spanRender := tracer.Start(ctx, "render_field")
	vis, err := uc.visualizer.Render(ctx2, port.VisualizationRequest{
		VideoPath:   req.Source.Path,
		FrameNumber: block.FrameNumber,
		Field:       field,
		Normalized:  req.Normalize,
		Geometry:    *geom,
		OutputDir:   req.OutputDir,
	})
	spanRender.End()
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	metrics.JobProcessingDuration.WithLabelValues("render").Observe(time.Since(renderStart).Seconds())

	uc.logger.Info("motion vectors correspond to frame number",
		zap.Int("frame_index", req.Index),
		zap.Int("frame_number", block.FrameNumber),
		zap.Int("vectors", field.Len()),
		zap.Float64("max_magnitude", field.MaxMagnitude()),
		zap.Bool("cache_hit", hit),
	)

	return &VisualizeResult{
		FrameIndex:    req.Index,
		FrameNumber:   block.FrameNumber,
		VectorCount:   field.Len(),
		CacheHit:      hit,
		Visualization: vis,
	}, nil
}
