package port

import (
	"context"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
)

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, job *entity.MotionJob) error
}
