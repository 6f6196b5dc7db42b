package port

import (
	"context"

	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
)

// MotionRecordSource runs the codec-level extractor and returns its raw rows.
type MotionRecordSource interface {
	ExtractRecords(ctx context.Context, videoPath string) ([]motion.MotionRecord, error)
}

type VideoGeometry struct {
	Width    int
	Height   int
	Duration float64
}

type GeometryProbe interface {
	ProbeGeometry(ctx context.Context, videoPath string) (*VideoGeometry, error)
}

// CollectionCache builds a collection at most once per key. A failed build is not cached.
type CollectionCache interface {
	GetOrBuild(ctx context.Context, key string, build func(ctx context.Context) (*motion.Collection, error)) (*motion.Collection, bool, error)
}
