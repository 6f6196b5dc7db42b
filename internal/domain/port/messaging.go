package port

import "context"

// StatusPublisher receives an encoded entity.MotionStatusMessage.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks a request that will never succeed, along with the reason.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
