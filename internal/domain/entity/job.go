package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// MotionJob tracks one visualization request for a video frame.
// FrameIndex is the requested collection index; FrameNumber is the decoder
// frame it resolved to and is only known once vectors were extracted.
type MotionJob struct {
	ID           uuid.UUID
	UserID       string
	VideoKey     string
	ArchiveKey   string
	Status       JobStatus
	FrameIndex   int
	FrameNumber  int
	VectorCount  int
	Normalize    bool
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewMotionJob(userID, videoKey string, frameIndex int, normalize bool, maxAttempts int) *MotionJob {
	now := time.Now().UTC()
	return &MotionJob{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FrameIndex:  frameIndex,
		FrameNumber: -1,
		Normalize:   normalize,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *MotionJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *MotionJob) MarkCompleted(archiveKey string, frameNumber, vectorCount int) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ArchiveKey = archiveKey
	j.FrameNumber = frameNumber
	j.VectorCount = vectorCount
	j.ErrorMessage = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *MotionJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

// GiveUp exhausts the retry budget so the job is not picked up again.
func (j *MotionJob) GiveUp(errMsg string) {
	j.MarkFailed(errMsg)
	j.Attempt = j.MaxAttempts
}

func (j *MotionJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
