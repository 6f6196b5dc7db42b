package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"github.com/fiapx/fiapx-motion-service/internal/domain/port"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, job *entity.MotionJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockRepo) Update(ctx context.Context, job *entity.MotionJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.MotionJob, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*entity.MotionJob)
	return job, args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) StatVideo(ctx context.Context, key string) (*entity.VideoIdentity, error) {
	args := m.Called(ctx, key)
	id, _ := args.Get(0).(*entity.VideoIdentity)
	return id, args.Error(1)
}

func (m *mockStorage) DownloadVideo(ctx context.Context, key, dest string) error {
	if err := m.Called(ctx, key, dest).Error(0); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("video"), 0644)
}

func (m *mockStorage) UploadArchive(ctx context.Context, key string, r io.Reader, size int64) error {
	_, _ = io.Copy(io.Discard, r)
	return m.Called(ctx, key, size).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return m.Called(ctx, msg).Error(0)
}

type mockDLQ struct{ mock.Mock }

func (m *mockDLQ) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return m.Called(ctx, msg, reason).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyFailure(ctx context.Context, email string, job *entity.MotionJob) error {
	return m.Called(ctx, email, job).Error(0)
}

type mockSource struct{ mock.Mock }

func (m *mockSource) ExtractRecords(ctx context.Context, path string) ([]motion.MotionRecord, error) {
	args := m.Called(ctx, path)
	records, _ := args.Get(0).([]motion.MotionRecord)
	return records, args.Error(1)
}

type mockProbe struct{ mock.Mock }

func (m *mockProbe) ProbeGeometry(ctx context.Context, path string) (*port.VideoGeometry, error) {
	args := m.Called(ctx, path)
	g, _ := args.Get(0).(*port.VideoGeometry)
	return g, args.Error(1)
}

// fileVisualizer writes placeholder images and remembers the last request.
type fileVisualizer struct {
	last  port.VisualizationRequest
	calls int
	err   error
}

func (v *fileVisualizer) Render(_ context.Context, req port.VisualizationRequest) (*port.VisualizationResult, error) {
	v.last = req
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, err
	}
	res := &port.VisualizationResult{
		FieldPath:      filepath.Join(req.OutputDir, "field.png"),
		ReferencePaths: []string{filepath.Join(req.OutputDir, "reference_01.png")},
		CompositePath:  filepath.Join(req.OutputDir, "composite.png"),
	}
	for _, p := range res.Paths() {
		if err := os.WriteFile(p, []byte("png"), 0644); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func fl(v float64) *float64 { return &v }

func scenarioRecords() []motion.MotionRecord {
	return []motion.MotionRecord{
		{FrameNumber: 2, SrcX: fl(10), SrcY: fl(10), DstX: fl(12), DstY: fl(11)},
		{FrameNumber: 2, SrcX: fl(20), SrcY: fl(20), DstX: fl(22), DstY: fl(19)},
		{FrameNumber: 3},
		{FrameNumber: 4, SrcX: fl(5), SrcY: fl(5), DstX: fl(5), DstY: fl(5)},
	}
}
