package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fiapx/fiapx-motion-service/internal/domain/port"
	"go.uber.org/zap"
)

type Prober struct {
	bin    string
	logger *zap.Logger
}

func NewProber(bin string, logger *zap.Logger) *Prober {
	return &Prober{bin: bin, logger: logger}
}

func (p *Prober) ProbeGeometry(ctx context.Context, videoPath string) (*port.VideoGeometry, error) {
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-of", "flat=s=_",
		"-select_streams", "v:0",
		"-show_entries", "stream=height,width",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	width, height, err := parseFlatGeometry(string(output))
	if err != nil {
		return nil, err
	}

	duration, err := p.getVideoDuration(ctx, videoPath)
	if err != nil {
		p.logger.Warn("could not get video duration", zap.Error(err))
	}

	return &port.VideoGeometry{Width: width, Height: height, Duration: duration}, nil
}

// parseFlatGeometry reads ffprobe's flat writer output, e.g.
//
//	streams_stream_0_width=450
//	streams_stream_0_height=192
func parseFlatGeometry(output string) (int, int, error) {
	var width, height int
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)

		var dst *int
		switch {
		case strings.HasSuffix(key, "_width"):
			dst = &width
		case strings.HasSuffix(key, "_height"):
			dst = &height
		default:
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, 0, fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = n
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("ffprobe reported no video geometry: %q", strings.TrimSpace(output))
	}
	return width, height, nil
}

func (p *Prober) getVideoDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
