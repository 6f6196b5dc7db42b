package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, send: smtp.SendMail, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail string, job *entity.MotionJob) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("FIAP X - Motion Vector Visualization Failed [Job %s]", job.ID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"Your motion vector visualization request could not be completed.\r\n\r\n"+
			"Job ID: %s\r\n"+
			"Video: %s\r\n"+
			"Requested frame index: %d\r\n"+
			"Attempts: %d/%d\r\n"+
			"Error: %s\r\n\r\n"+
			"Check the frame index against the frames that carry motion vectors, or upload the video again.\r\n\r\n"+
			"-- FIAP X Motion Service",
		job.ID, job.VideoKey, job.FrameIndex, job.Attempt, job.MaxAttempts, job.ErrorMessage,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, userEmail, subject, body,
	)

	err := n.send(addr, nil, n.from, []string{userEmail}, []byte(msg))
	if err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", job.ID.String()),
	)
	return nil
}
