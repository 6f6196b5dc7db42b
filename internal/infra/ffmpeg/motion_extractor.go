package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"go.uber.org/zap"
)

// MotionExtractor runs the extract_mvs tool (FFmpeg's extract_mvs example built
// with CSV output) and decodes what it prints on stdout.
type MotionExtractor struct {
	bin    string
	logger *zap.Logger
}

func NewMotionExtractor(bin string, logger *zap.Logger) *MotionExtractor {
	return &MotionExtractor{bin: bin, logger: logger}
}

func (e *MotionExtractor) ExtractRecords(ctx context.Context, videoPath string) ([]motion.MotionRecord, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file: %w", err)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.bin, videoPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("extractor stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start extractor: %w", err)
	}

	records, readErr := motion.ReadRecords(stdout)
	if readErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("extractor error: %w, output: %s", err, strings.TrimSpace(stderr.String()))
	}
	if readErr != nil {
		return nil, fmt.Errorf("decode motion records: %w", readErr)
	}

	e.logger.Info("motion records extracted",
		zap.String("video", videoPath),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}
