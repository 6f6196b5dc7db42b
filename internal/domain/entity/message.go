package entity

import "github.com/google/uuid"

// MotionVisualizationMessage is the inbound message from the motion.visualize queue.
// FrameIndex addresses the collection of frames that carry vectors, so index 0
// is the first inter-coded frame, not frame 0 of the video.
type MotionVisualizationMessage struct {
	JobID      uuid.UUID `json:"job_id"`
	UserID     string    `json:"user_id"`
	VideoKey   string    `json:"video_key"`
	FrameIndex int       `json:"frame_index"`
	Normalize  bool      `json:"normalize"`
	UserEmail  string    `json:"user_email"`
}

// MotionStatusMessage is the outbound message published to the motion.status queue.
type MotionStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	VideoKey     string    `json:"video_key"`
	ArchiveKey   string    `json:"archive_key,omitempty"`
	FrameIndex   int       `json:"frame_index"`
	FrameNumber  int       `json:"frame_number"`
	VectorCount  int       `json:"vector_count,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}

func NewMotionStatusMessage(job *MotionJob) MotionStatusMessage {
	return MotionStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		VideoKey:     job.VideoKey,
		ArchiveKey:   job.ArchiveKey,
		FrameIndex:   job.FrameIndex,
		FrameNumber:  job.FrameNumber,
		VectorCount:  job.VectorCount,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
}
