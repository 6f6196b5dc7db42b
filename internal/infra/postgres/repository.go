package postgres

import (
	"context"
	"fmt"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.MotionJob) error {
	query := `
		INSERT INTO motion_jobs (
			id, user_id, video_key, archive_key, status, frame_index,
			frame_number, vector_count, normalize, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ArchiveKey, string(job.Status),
		job.FrameIndex, job.FrameNumber, job.VectorCount, job.Normalize,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.MotionJob) error {
	query := `
		UPDATE motion_jobs SET
			status=$2, archive_key=$3, frame_number=$4, vector_count=$5,
			attempt=$6, error_message=$7, updated_at=$8, completed_at=$9
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ArchiveKey, job.FrameNumber,
		job.VectorCount, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.MotionJob, error) {
	query := `
		SELECT id, user_id, video_key, archive_key, status, frame_index,
			frame_number, vector_count, normalize, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM motion_jobs WHERE id=$1`

	job := &entity.MotionJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ArchiveKey, &status,
		&job.FrameIndex, &job.FrameNumber, &job.VectorCount, &job.Normalize,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
