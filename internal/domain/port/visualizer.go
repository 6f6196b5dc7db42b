package port

import (
	"context"

	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
)

type VisualizationRequest struct {
	VideoPath   string
	FrameNumber int
	Field       motion.Field
	Normalized  bool
	Geometry    VideoGeometry
	OutputDir   string
}

type VisualizationResult struct {
	FieldPath      string
	ReferencePaths []string
	CompositePath  string
}

// Paths lists every file the visualization wrote.
func (r *VisualizationResult) Paths() []string {
	paths := []string{r.FieldPath}
	paths = append(paths, r.ReferencePaths...)
	if r.CompositePath != "" {
		paths = append(paths, r.CompositePath)
	}
	return paths
}

type Visualizer interface {
	Render(ctx context.Context, req VisualizationRequest) (*VisualizationResult, error)
}
