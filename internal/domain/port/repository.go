package port

import (
	"context"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.MotionJob) error
	Update(ctx context.Context, job *entity.MotionJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.MotionJob, error)
}
