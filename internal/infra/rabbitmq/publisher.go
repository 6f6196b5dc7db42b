package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table) error {
	return p.channel.PublishWithContext(ctx,
		exchange,
		key,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers:      injectTrace(ctx, headers),
		},
	)
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

type StatusPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewStatusPublisher(pub *Publisher, routingKey string) *StatusPublisher {
	return &StatusPublisher{pub: pub, routingKey: routingKey}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, sp.pub.exchange, sp.routingKey, msg, nil)
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return dp.pub.publish(ctx, "", dp.queue, msg, amqp.Table{"x-dlq-reason": reason})
}

// RequestPublisher submits visualization requests for the worker to pick up.
type RequestPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewRequestPublisher(pub *Publisher, routingKey string) *RequestPublisher {
	return &RequestPublisher{pub: pub, routingKey: routingKey}
}

func (rp *RequestPublisher) PublishRequest(ctx context.Context, msg entity.MotionVisualizationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return rp.pub.publish(ctx, rp.pub.exchange, rp.routingKey, body, nil)
}
