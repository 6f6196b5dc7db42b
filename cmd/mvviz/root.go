package main

import (
	"context"
	"fmt"

	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"github.com/fiapx/fiapx-motion-service/internal/infra/cache"
	"github.com/fiapx/fiapx-motion-service/internal/infra/config"
	"github.com/fiapx/fiapx-motion-service/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-motion-service/internal/infra/render"
	"github.com/fiapx/fiapx-motion-service/internal/usecase"
	"github.com/fiapx/fiapx-motion-service/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// motionService is the slice of the visualize use case the commands need.
type motionService interface {
	Collection(ctx context.Context, src usecase.VideoSource) (*motion.Collection, bool, error)
	Visualize(ctx context.Context, req usecase.VisualizeRequest) (*usecase.VisualizeResult, error)
}

var (
	cfg *config.Config
	log *zap.Logger

	// motionSvc is built lazily so tests can inject their own.
	motionSvc motionService

	logLevel     string
	extractorBin string
	ffmpegBin    string
	ffprobeBin   string
)

var rootCmd = &cobra.Command{
	Use:   "mvviz",
	Short: "Inspect and render codec motion vectors of a video",
	Long: `mvviz extracts the motion vectors a video decoder already computed,
groups them per frame and renders the vector field of a chosen frame next
to the decoder's own overlay for validation.

Vectors are extracted once per invocation; rendering several frames of the
same video reuses them.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&extractorBin, "extractor", "", "motion vector extractor binary")
	rootCmd.PersistentFlags().StringVar(&ffmpegBin, "ffmpeg", "", "ffmpeg binary")
	rootCmd.PersistentFlags().StringVar(&ffprobeBin, "ffprobe", "", "ffprobe binary")
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	override(&cfg.LogLevel, logLevel)
	override(&cfg.ExtractorBin, extractorBin)
	override(&cfg.FFmpegBin, ffmpegBin)
	override(&cfg.FFprobeBin, ffprobeBin)

	if log == nil {
		log, err = logger.NewConsole(cfg.LogLevel)
		if err != nil {
			return err
		}
	}

	if motionSvc == nil {
		svc, err := newMotionService(cfg, log)
		if err != nil {
			return err
		}
		motionSvc = svc
	}
	return nil
}

func newMotionService(cfg *config.Config, log *zap.Logger) (*usecase.VisualizeMotionUseCase, error) {
	collections, err := cache.NewCollectionCache(cfg.CacheSize, log)
	if err != nil {
		return nil, fmt.Errorf("create collection cache: %w", err)
	}
	visualizer := render.NewVisualizer(
		ffmpeg.NewFrameRenderer(cfg.FFmpegBin, log),
		render.Options{
			ArrowScale:            cfg.ArrowScale,
			NormalizedArrowLength: cfg.NormalizedArrowLength,
			ValidationFrames:      cfg.ValidationFrames,
		},
		log,
	)
	return usecase.NewVisualizeMotionUseCase(
		ffmpeg.NewMotionExtractor(cfg.ExtractorBin, log),
		ffmpeg.NewProber(cfg.FFprobeBin, log),
		visualizer,
		collections,
		log,
	), nil
}

func override(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}
