package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fiapx/fiapx-motion-service/internal/domain/port"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

const (
	fieldFile     = "field.png"
	compositeFile = "composite.png"
	compositeGap  = 16
)

// ReferenceFramer renders frames of the source video for side-by-side validation.
type ReferenceFramer interface {
	RenderReference(ctx context.Context, videoPath string, frameNumber, count int, outDir string) ([]string, error)
}

type Options struct {
	// ArrowScale multiplies raw pixel displacements.
	ArrowScale float64
	// NormalizedArrowLength is the drawn length in pixels of a unit vector.
	NormalizedArrowLength float64
	// ValidationFrames is how many consecutive reference frames to render.
	ValidationFrames int
}

type Visualizer struct {
	framer ReferenceFramer
	opts   Options
	logger *zap.Logger
}

func NewVisualizer(framer ReferenceFramer, opts Options, logger *zap.Logger) *Visualizer {
	if opts.ArrowScale <= 0 {
		opts.ArrowScale = 1
	}
	if opts.NormalizedArrowLength <= 0 {
		opts.NormalizedArrowLength = 8
	}
	if opts.ValidationFrames < 1 {
		opts.ValidationFrames = 1
	}
	return &Visualizer{framer: framer, opts: opts, logger: logger}
}

func (v *Visualizer) Render(ctx context.Context, req port.VisualizationRequest) (*port.VisualizationResult, error) {
	if req.Geometry.Width <= 0 || req.Geometry.Height <= 0 {
		return nil, fmt.Errorf("invalid video geometry %dx%d", req.Geometry.Width, req.Geometry.Height)
	}
	if req.Field.Len() != len(req.Field.DX) || req.Field.Len() != len(req.Field.Magnitude) {
		return nil, errors.New("field arrays differ in length")
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	scale := v.opts.ArrowScale
	if req.Normalized {
		scale = v.opts.NormalizedArrowLength
	}
	field := drawField(req.Field, req.Geometry.Width, req.Geometry.Height, scale)

	result := &port.VisualizationResult{FieldPath: filepath.Join(req.OutputDir, fieldFile)}
	if err := gg.SavePNG(result.FieldPath, field); err != nil {
		return nil, fmt.Errorf("save field: %w", err)
	}

	refs, err := v.framer.RenderReference(ctx, req.VideoPath, req.FrameNumber, v.opts.ValidationFrames, req.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("render reference frame: %w", err)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no reference frame rendered for frame %d", req.FrameNumber)
	}
	result.ReferencePaths = refs

	ref, err := gg.LoadImage(refs[0])
	if err != nil {
		return nil, fmt.Errorf("load reference frame: %w", err)
	}

	result.CompositePath = filepath.Join(req.OutputDir, compositeFile)
	if err := gg.SavePNG(result.CompositePath, composite(field, ref)); err != nil {
		return nil, fmt.Errorf("save composite: %w", err)
	}

	v.logger.Debug("visualization rendered",
		zap.Int("frame_number", req.FrameNumber),
		zap.Int("vectors", req.Field.Len()),
		zap.String("output_dir", req.OutputDir),
	)
	return result, nil
}

// composite places the field and the reference frame side by side, top aligned.
func composite(field, ref image.Image) image.Image {
	fb, rb := field.Bounds(), ref.Bounds()
	h := fb.Dy()
	if rb.Dy() > h {
		h = rb.Dy()
	}

	dc := gg.NewContext(fb.Dx()+compositeGap+rb.Dx(), h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(field, 0, 0)
	dc.DrawImage(ref, fb.Dx()+compositeGap, 0)
	return dc.Image()
}
