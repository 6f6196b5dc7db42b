package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

const referencePattern = "reference_%02d.png"

// FrameRenderer writes decoded frames with FFmpeg's own motion vector overlay,
// used to eyeball the extracted field against the codec's view.
type FrameRenderer struct {
	bin    string
	logger *zap.Logger
}

func NewFrameRenderer(bin string, logger *zap.Logger) *FrameRenderer {
	return &FrameRenderer{bin: bin, logger: logger}
}

// RenderReference writes count frames starting at frameNumber (0-based decoder
// index) into outDir and returns their paths in order.
func (r *FrameRenderer) RenderReference(ctx context.Context, videoPath string, frameNumber, count int, outDir string) ([]string, error) {
	if count < 1 {
		count = 1
	}

	cmd := exec.CommandContext(ctx, r.bin,
		"-flags2", "+export_mvs",
		"-i", videoPath,
		"-vf", fmt.Sprintf(`select=gte(n\,%d),codecview=mv=pf+bf+bb`, frameNumber),
		"-vframes", strconv.Itoa(count),
		"-y",
		filepath.Join(outDir, referencePattern),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	frames, err := filepath.Glob(filepath.Join(outDir, "reference_*.png"))
	if err != nil {
		return nil, fmt.Errorf("glob reference frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no reference frame rendered for frame %d", frameNumber)
	}
	sort.Strings(frames)

	r.logger.Debug("reference frames rendered",
		zap.Int("frame_number", frameNumber),
		zap.Int("count", len(frames)),
	)
	return frames, nil
}
