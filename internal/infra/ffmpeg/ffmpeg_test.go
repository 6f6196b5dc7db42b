package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTool writes an executable shell script standing in for an external binary.
func fakeTool(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stand-ins need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func fakeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0644))
	return path
}

func TestMotionExtractorDecodesStdout(t *testing.T) {
	bin := fakeTool(t, "extract_mvs", `cat <<'CSV'
framenum,source,blockw,blockh,srcx,srcy,dstx,dsty,flags
2,-1,16,16,10,10,12,11,0x0
2,-1,16,16,20,20,22,19,0x0
3,,,,,,,,
4,-1,16,16,5,5,5,5,0x0
CSV`)

	e := NewMotionExtractor(bin, zap.NewNop())
	records, err := e.ExtractRecords(context.Background(), fakeVideo(t))
	require.NoError(t, err)
	require.Len(t, records, 4)

	c, err := motion.Aggregate(records)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, c.FrameNumbers())
}

func TestMotionExtractorProcessFailure(t *testing.T) {
	bin := fakeTool(t, "extract_mvs", `echo "Could not open source file" >&2; exit 1`)

	e := NewMotionExtractor(bin, zap.NewNop())
	_, err := e.ExtractRecords(context.Background(), fakeVideo(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not open source file")
	assert.False(t, motion.IsPermanent(err))
}

func TestMotionExtractorMalformedOutput(t *testing.T) {
	bin := fakeTool(t, "extract_mvs", `printf 'framenum,srcx,srcy\n2,1,1\n'`)

	e := NewMotionExtractor(bin, zap.NewNop())
	_, err := e.ExtractRecords(context.Background(), fakeVideo(t))
	var malformed *motion.MalformedRecordError
	require.ErrorAs(t, err, &malformed)
}

func TestMotionExtractorMissingVideo(t *testing.T) {
	e := NewMotionExtractor("extract_mvs", zap.NewNop())
	_, err := e.ExtractRecords(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	assert.Error(t, err)
}

func TestParseFlatGeometry(t *testing.T) {
	w, h, err := parseFlatGeometry("streams_stream_0_width=450\nstreams_stream_0_height=192\n")
	require.NoError(t, err)
	assert.Equal(t, 450, w)
	assert.Equal(t, 192, h)

	w, h, err = parseFlatGeometry("streams_stream_0_height=\"720\"\nstreams_stream_0_width=\"1280\"\n")
	require.NoError(t, err)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	_, _, err = parseFlatGeometry("")
	assert.Error(t, err)

	_, _, err = parseFlatGeometry("streams_stream_0_width=abc\n")
	assert.Error(t, err)
}

func TestProberGeometryAndDuration(t *testing.T) {
	bin := fakeTool(t, "ffprobe", `case "$*" in
*format=duration*) echo "4.250000" ;;
*) printf 'streams_stream_0_width=450\nstreams_stream_0_height=192\n' ;;
esac`)

	p := NewProber(bin, zap.NewNop())
	geom, err := p.ProbeGeometry(context.Background(), fakeVideo(t))
	require.NoError(t, err)
	assert.Equal(t, 450, geom.Width)
	assert.Equal(t, 192, geom.Height)
	assert.InDelta(t, 4.25, geom.Duration, 1e-9)
}

func TestProberDurationIsBestEffort(t *testing.T) {
	bin := fakeTool(t, "ffprobe", `case "$*" in
*format=duration*) echo "N/A" ;;
*) printf 'streams_stream_0_width=320\nstreams_stream_0_height=240\n' ;;
esac`)

	p := NewProber(bin, zap.NewNop())
	geom, err := p.ProbeGeometry(context.Background(), fakeVideo(t))
	require.NoError(t, err)
	assert.Equal(t, 320, geom.Width)
	assert.Zero(t, geom.Duration)
}

func TestFrameRendererBuildsSelectFilter(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := fakeTool(t, "ffmpeg", `printf '%s' "$*" > `+argsFile+`
for a; do last=$a; done
printf 'png' > "$(printf "$last" 1)"
printf 'png' > "$(printf "$last" 2)"`)

	outDir := t.TempDir()
	r := NewFrameRenderer(bin, zap.NewNop())
	frames, err := r.RenderReference(context.Background(), "clip.mp4", 12, 2, outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(outDir, "reference_01.png"),
		filepath.Join(outDir, "reference_02.png"),
	}, frames)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), `select=gte(n\,12),codecview=mv=pf+bf+bb`)
	assert.Contains(t, string(args), "-vframes 2")
	assert.True(t, strings.HasPrefix(string(args), "-flags2 +export_mvs"))
}

func TestFrameRendererNoOutput(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `exit 0`)

	r := NewFrameRenderer(bin, zap.NewNop())
	_, err := r.RenderReference(context.Background(), "clip.mp4", 99999, 1, t.TempDir())
	assert.Error(t, err)
}
