package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/fiapx/fiapx-motion-service/internal/infra/rabbitmq"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
)

// requestPublisher is swapped in tests.
var requestPublisher func(ctx context.Context) (publishFunc, func(), error) = dialRequestPublisher

type publishFunc func(ctx context.Context, msg entity.MotionVisualizationMessage) error

var (
	submitFrame     int
	submitNormalize bool
	submitUser      string
	submitEmail     string
)

var submitCmd = &cobra.Command{
	Use:   "submit [video-key]",
	Short: "Queue a visualization of a stored video for the worker",
	Long: `Publishes a motion visualization request for a video already uploaded to
object storage. The worker renders the frame and uploads a ZIP archive;
progress is reported on the status queue under the printed job id.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().IntVarP(&submitFrame, "frame", "f", 0, "collection index to render")
	submitCmd.Flags().BoolVar(&submitNormalize, "normalize", false, "draw unit-length arrows coloured by magnitude")
	submitCmd.Flags().StringVar(&submitUser, "user", "", "owner of the request")
	submitCmd.Flags().StringVar(&submitEmail, "email", "", "address notified on permanent failure")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if submitFrame < 0 {
		return errors.New("--frame must be non-negative")
	}
	if submitUser == "" {
		return errors.New("--user is required")
	}

	publish, closeFn, err := requestPublisher(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	msg := entity.MotionVisualizationMessage{
		JobID:      uuid.New(),
		UserID:     submitUser,
		VideoKey:   args[0],
		FrameIndex: submitFrame,
		Normalize:  submitNormalize,
		UserEmail:  submitEmail,
	}
	if err := publish(cmd.Context(), msg); err != nil {
		return fmt.Errorf("publish request: %w", err)
	}
	cmd.Printf("submitted job %s\n", msg.JobID)
	return nil
}

func dialRequestPublisher(_ context.Context) (publishFunc, func(), error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	pub, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQExchange)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	rp := rabbitmq.NewRequestPublisher(pub, cfg.RabbitMQRequestQueue)
	return rp.PublishRequest, func() {
		pub.Close()
		conn.Close()
	}, nil
}
