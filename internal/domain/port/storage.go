package port

import (
	"context"
	"io"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
)

type VideoStorage interface {
	StatVideo(ctx context.Context, objectKey string) (*entity.VideoIdentity, error)
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadArchive(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
