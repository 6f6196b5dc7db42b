package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"github.com/fiapx/fiapx-motion-service/internal/domain/port"
	"github.com/fiapx/fiapx-motion-service/internal/infra/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newVisualizeUseCase(t *testing.T, source *mockSource, probe *mockProbe, vis *fileVisualizer) *VisualizeMotionUseCase {
	t.Helper()
	c, err := cache.NewCollectionCache(4, zap.NewNop())
	require.NoError(t, err)
	return NewVisualizeMotionUseCase(source, probe, vis, c, zap.NewNop())
}

func localSource(path string, mod time.Time) VideoSource {
	return VideoSource{Path: path, Identity: entity.VideoIdentity{Key: path, Size: 100, ModTime: mod}}
}

func TestVisualizeExtractsOncePerIdentity(t *testing.T) {
	source := &mockSource{}
	source.On("ExtractRecords", mock.Anything, "/videos/clip.mp4").Return(scenarioRecords(), nil).Once()
	probe := &mockProbe{}
	probe.On("ProbeGeometry", mock.Anything, "/videos/clip.mp4").Return(&port.VideoGeometry{Width: 450, Height: 192}, nil)
	vis := &fileVisualizer{}
	uc := newVisualizeUseCase(t, source, probe, vis)

	src := localSource("/videos/clip.mp4", time.Unix(1700000000, 0))

	first, err := uc.Visualize(context.Background(), VisualizeRequest{Source: src, Index: 0, OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 2, first.FrameNumber)
	assert.Equal(t, 2, first.VectorCount)
	assert.Equal(t, 2, vis.last.FrameNumber)
	assert.Equal(t, []float64{2, 2}, vis.last.Field.DX)
	assert.Equal(t, 450, vis.last.Geometry.Width)

	second, err := uc.Visualize(context.Background(), VisualizeRequest{Source: src, Index: 1, Normalize: true, OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 4, second.FrameNumber)
	assert.Equal(t, []float64{0}, vis.last.Field.DX)
	assert.Equal(t, []float64{0}, vis.last.Field.DY)
	assert.True(t, vis.last.Normalized)

	source.AssertNumberOfCalls(t, "ExtractRecords", 1)
}

func TestVisualizeRebuildsWhenVideoChanges(t *testing.T) {
	source := &mockSource{}
	source.On("ExtractRecords", mock.Anything, "/videos/clip.mp4").Return(scenarioRecords(), nil)
	probe := &mockProbe{}
	probe.On("ProbeGeometry", mock.Anything, mock.Anything).Return(&port.VideoGeometry{Width: 450, Height: 192}, nil)
	uc := newVisualizeUseCase(t, source, probe, &fileVisualizer{})

	_, err := uc.Visualize(context.Background(), VisualizeRequest{Source: localSource("/videos/clip.mp4", time.Unix(1, 0)), OutputDir: t.TempDir()})
	require.NoError(t, err)

	res, err := uc.Visualize(context.Background(), VisualizeRequest{Source: localSource("/videos/clip.mp4", time.Unix(2, 0)), OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.False(t, res.CacheHit)

	source.AssertNumberOfCalls(t, "ExtractRecords", 2)
}

func TestVisualizeIndexOutOfRange(t *testing.T) {
	source := &mockSource{}
	source.On("ExtractRecords", mock.Anything, mock.Anything).Return(scenarioRecords(), nil)
	vis := &fileVisualizer{}
	uc := newVisualizeUseCase(t, source, &mockProbe{}, vis)

	_, err := uc.Visualize(context.Background(), VisualizeRequest{Source: localSource("/v.mp4", time.Unix(1, 0)), Index: 5, OutputDir: t.TempDir()})
	var oor *motion.FrameIndexOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 2, oor.Len)
	assert.Zero(t, vis.calls)
}

func TestVisualizeEmptyStreamIsNotCached(t *testing.T) {
	source := &mockSource{}
	source.On("ExtractRecords", mock.Anything, mock.Anything).Return([]motion.MotionRecord{{FrameNumber: 2}}, nil)
	uc := newVisualizeUseCase(t, source, &mockProbe{}, &fileVisualizer{})
	src := localSource("/v.mp4", time.Unix(1, 0))

	for i := 0; i < 2; i++ {
		_, err := uc.Visualize(context.Background(), VisualizeRequest{Source: src, OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, motion.ErrEmptyStream)
		assert.True(t, motion.IsPermanent(err))
	}
	source.AssertNumberOfCalls(t, "ExtractRecords", 2)
}

func TestVisualizeCollaboratorErrors(t *testing.T) {
	src := localSource("/v.mp4", time.Unix(1, 0))

	source := &mockSource{}
	source.On("ExtractRecords", mock.Anything, mock.Anything).Return(nil, errors.New("extractor missing"))
	uc := newVisualizeUseCase(t, source, &mockProbe{}, &fileVisualizer{})
	_, err := uc.Visualize(context.Background(), VisualizeRequest{Source: src, OutputDir: t.TempDir()})
	assert.ErrorContains(t, err, "extractor missing")
	assert.False(t, motion.IsPermanent(err))

	source = &mockSource{}
	source.On("ExtractRecords", mock.Anything, mock.Anything).Return(scenarioRecords(), nil)
	probe := &mockProbe{}
	probe.On("ProbeGeometry", mock.Anything, mock.Anything).Return(nil, errors.New("ffprobe: exit status 1"))
	uc = newVisualizeUseCase(t, source, probe, &fileVisualizer{})
	_, err = uc.Visualize(context.Background(), VisualizeRequest{Source: src, OutputDir: t.TempDir()})
	assert.ErrorContains(t, err, "probe geometry")

	probe = &mockProbe{}
	probe.On("ProbeGeometry", mock.Anything, mock.Anything).Return(&port.VideoGeometry{Width: 10, Height: 10}, nil)
	uc = newVisualizeUseCase(t, source, probe, &fileVisualizer{err: errors.New("disk full")})
	_, err = uc.Visualize(context.Background(), VisualizeRequest{Source: src, OutputDir: t.TempDir()})
	assert.ErrorContains(t, err, "disk full")
}
